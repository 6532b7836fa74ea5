package entity

import "time"

// FallbackBusinessName is used when a listing container carries no readable label.
const FallbackBusinessName = "Unknown Business"

// Business represents one listing discovered in the search feed.
//
// URL is the canonical detail-page link and the dedup key for a collection run.
// Every other field is independently optional; an unresolved field is emitted as
// JSON null, never omitted, so downstream consumers see a stable shape.
type Business struct {
	URL          string      `json:"url"`
	Name         string      `json:"name"`
	Rating       *float64    `json:"rating"`
	ReviewCount  *int        `json:"review_count"`
	Category     *string     `json:"category"`
	Address      *string     `json:"address"`
	Phone        *string     `json:"phone"`
	Website      *string     `json:"website"`
	HoursStatus  *string     `json:"hours_status"`
	IsSponsored  bool        `json:"is_sponsored"`
	ScrapedAt    time.Time   `json:"scraped_at"`
	Enrichment   *Enrichment `json:"enrichment"`
	QualityScore *float64    `json:"quality_score"`
	Reviews      []Review    `json:"reviews,omitempty"`
}

// Merge copies non-nil fields from a later extraction pass onto b.
// A field already populated is only replaced when the incoming value is
// non-nil; a details pass never nulls out data found earlier.
func (b *Business) Merge(in Business) {
	if in.Name != "" && in.Name != FallbackBusinessName {
		b.Name = in.Name
	}
	if in.Rating != nil {
		b.Rating = in.Rating
	}
	if in.ReviewCount != nil {
		b.ReviewCount = in.ReviewCount
	}
	if in.Category != nil {
		b.Category = in.Category
	}
	if in.Address != nil {
		b.Address = in.Address
	}
	if in.Phone != nil {
		b.Phone = in.Phone
	}
	if in.Website != nil {
		b.Website = in.Website
	}
	if in.HoursStatus != nil {
		b.HoursStatus = in.HoursStatus
	}
	if in.IsSponsored {
		b.IsSponsored = true
	}
}
