// Package scoring computes a bounded completeness score for a collected
// business record after its enrichment attempt.
package scoring

import (
	"math"
	"strings"

	"github.com/octobees/leads-generator/worker/internal/entity"
)

const (
	weightName        = 1.0
	weightPhone       = 1.0
	weightWebsite     = 1.0
	weightAddress     = 1.0
	weightRating      = 0.5
	weightReviewCount = 0.5
	weightEmails      = 2.0
	weightContactPage = 1.0
	weightPerSocial   = 0.5
	socialCap         = 2.0

	denominator = 10.0
)

// Score maps a business plus its enrichment record to a completeness score
// in [0.0, 1.0], rounded to one decimal. Pure function: no side effects and
// no failure modes.
func Score(b entity.Business) float64 {
	total := 0.0

	if hasName(b.Name) {
		total += weightName
	}
	if b.Phone != nil && strings.TrimSpace(*b.Phone) != "" {
		total += weightPhone
	}
	if b.Website != nil && strings.TrimSpace(*b.Website) != "" {
		total += weightWebsite
	}
	if b.Address != nil && strings.TrimSpace(*b.Address) != "" {
		total += weightAddress
	}
	if b.Rating != nil {
		total += weightRating
	}
	if b.ReviewCount != nil {
		total += weightReviewCount
	}

	if b.Enrichment != nil {
		if len(b.Enrichment.EmailsFound) > 0 {
			total += weightEmails
		}
		if b.Enrichment.ContactPageURL != nil {
			total += weightContactPage
		}
		social := float64(len(b.Enrichment.Social)) * weightPerSocial
		if social > socialCap {
			social = socialCap
		}
		total += social
	}

	return math.Round(total/denominator*10) / 10
}

func hasName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && name != entity.FallbackBusinessName
}
