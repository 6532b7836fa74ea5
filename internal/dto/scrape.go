package dto

import "strings"

// ScrapeRequest is the payload accepted by the scraping endpoint. It mirrors
// the job shape the API service forwards: either a free-form query or the
// type_business/city/country triple.
type ScrapeRequest struct {
	Query             string   `json:"query,omitempty"`
	TypeBusiness      string   `json:"type_business,omitempty"`
	City              string   `json:"city,omitempty"`
	Country           string   `json:"country,omitempty"`
	MaxResults        int      `json:"max_results,omitempty"`
	MinRating         float64  `json:"min_rating,omitempty"`
	IncludeCategories []string `json:"include_categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
	WithReviews       bool     `json:"with_reviews,omitempty"`
	MaxReviews        int      `json:"max_reviews,omitempty"`
	WithShareLinks    bool     `json:"with_share_links,omitempty"`
	WithEnrichment    bool     `json:"with_enrichment,omitempty"`
	// CallbackURL is a path on the configured callback base URL, e.g.
	// "/internal/results". Full URLs are rejected.
	CallbackURL       string   `json:"callback_url,omitempty"`
}

// SearchTerm resolves the effective search query. Empty means the request is
// invalid: a missing search term is a hard input error.
func (r ScrapeRequest) SearchTerm() string {
	if q := strings.TrimSpace(r.Query); q != "" {
		return q
	}
	tb := strings.TrimSpace(r.TypeBusiness)
	if tb == "" {
		return ""
	}
	var locParts []string
	if city := strings.TrimSpace(r.City); city != "" {
		locParts = append(locParts, city)
	}
	if country := strings.TrimSpace(r.Country); country != "" {
		locParts = append(locParts, country)
	}
	if len(locParts) == 0 {
		return tb
	}
	return tb + " in " + strings.Join(locParts, ", ")
}
