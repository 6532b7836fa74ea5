// Package classify decides what kind of listing fragment a piece of text is.
// Every classifier is a pure two-stage filter: reject fast on a deny-list,
// then accept on a domain allow-list. The same input always yields the same
// answer; there is no hidden state.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// Kind identifies the classification of a text fragment.
type Kind int

const (
	KindNone Kind = iota
	KindCategory
	KindAddress
	KindPhone
	KindHours
)

// Precedence is the fixed order in which classifiers claim a fragment.
var Precedence = []Kind{KindCategory, KindAddress, KindPhone, KindHours}

const (
	minCategoryLen = 3
	maxCategoryLen = 60
	minAddressLen  = 8
	maxAddressLen  = 120
	minPhoneLen    = 7
	maxPhoneLen    = 25
	minHoursLen    = 4
	maxHoursLen    = 80

	minPhoneDigits = 7
	maxPhoneDigits = 15
)

var (
	denyFragment = regexp.MustCompile(`(?i)^(sponsored|ad|ads|advertisement)$`)
	pureNumeric  = regexp.MustCompile(`^[\d\s.,()]+$`)

	hoursToken  = regexp.MustCompile(`(?i)\b(open|closed|closes|opens|24 hours|temporarily closed|permanently closed)\b`)
	hoursDetail = regexp.MustCompile(`(?i)\b(\d{1,2}(:\d{2})?\s*(am|pm)|24 hours)\b`)

	categoryKeywords = regexp.MustCompile(`(?i)\b(restaurant|cafe|coffee|bar|pub|bakery|shop|store|market|salon|spa|barber|clinic|dentist|doctor|hospital|pharmacy|hotel|hostel|gym|fitness|studio|school|academy|university|agency|services?|repair|garage|dealer|laundry|warung|bengkel|toko|supplier|contractor|consultant|lawyer|attorney|accountant|grocery|supermarket|boutique|gallery|museum|church|mosque|temple)\b`)

	streetKeywords = regexp.MustCompile(`(?i)\b(street|st\.|avenue|ave\.?|road|rd\.?|boulevard|blvd\.?|lane|ln\.?|drive|dr\.?|way|plaza|square|suite|ste\.?|floor|block|jalan|jl\.?|gang|unit|building)\b`)
	addressShape   = regexp.MustCompile(`(?i)^\d+\s+\S+|\b\S+\s+\d+[a-z]?\b`)

	nonPhoneChars = regexp.MustCompile(`[^\d\s+\-().]`)
)

// Classifier groups the fragment classifiers behind one region-aware value.
type Classifier struct {
	region string
}

// New builds a classifier. Region is an ISO 3166-1 alpha-2 code used for
// phone-number normalization; it defaults to "US" when blank.
func New(region string) *Classifier {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = "US"
	}
	return &Classifier{region: region}
}

// Classify tests text against the unclaimed kinds in precedence order and
// returns the first match, or KindNone.
func (c *Classifier) Classify(text string, unclaimed map[Kind]bool) Kind {
	for _, kind := range Precedence {
		if !unclaimed[kind] {
			continue
		}
		if c.Matches(kind, text) {
			return kind
		}
	}
	return KindNone
}

// Matches reports whether text is a plausible fragment of the given kind.
func (c *Classifier) Matches(kind Kind, text string) bool {
	switch kind {
	case KindCategory:
		return c.IsCategory(text)
	case KindAddress:
		return c.IsAddress(text)
	case KindPhone:
		return c.IsPhone(text)
	case KindHours:
		return c.IsHoursStatus(text)
	}
	return false
}

// IsCategory reports whether text looks like a business category.
func (c *Classifier) IsCategory(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < minCategoryLen || len(text) > maxCategoryLen {
		return false
	}
	if denyFragment.MatchString(text) || pureNumeric.MatchString(text) {
		return false
	}
	if hoursToken.MatchString(text) || streetKeywords.MatchString(text) {
		return false
	}
	if categoryKeywords.MatchString(text) {
		return true
	}
	// Generic fallback: a short capitalized phrase that looks like a label.
	return isShortCapitalizedPhrase(text)
}

// IsAddress reports whether text looks like a street address.
func (c *Classifier) IsAddress(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < minAddressLen || len(text) > maxAddressLen {
		return false
	}
	if denyFragment.MatchString(text) || pureNumeric.MatchString(text) {
		return false
	}
	if hoursToken.MatchString(text) {
		return false
	}
	return streetKeywords.MatchString(text) && addressShape.MatchString(text)
}

// IsPhone reports whether text looks like a phone number: after stripping
// whitespace and punctuation the fragment must be 7-15 digits and contain no
// characters a phone number cannot carry.
func (c *Classifier) IsPhone(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < minPhoneLen || len(text) > maxPhoneLen {
		return false
	}
	if nonPhoneChars.MatchString(text) {
		return false
	}
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// IsHoursStatus reports whether text looks like an opening-hours status line.
func (c *Classifier) IsHoursStatus(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < minHoursLen || len(text) > maxHoursLen {
		return false
	}
	if denyFragment.MatchString(text) {
		return false
	}
	if !hoursToken.MatchString(text) {
		return false
	}
	// "Open" alone qualifies; longer lines must carry a time detail or the
	// provider's status separator.
	if len(text) <= 6 {
		return true
	}
	return hoursDetail.MatchString(text) || strings.Contains(text, "⋅") || strings.Contains(text, "·")
}

// NormalizePhone formats a classifier-accepted fragment as E.164 when the
// number parses for the configured region, otherwise returns the trimmed raw
// fragment.
func (c *Classifier) NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	num, err := phonenumbers.Parse(raw, c.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func isShortCapitalizedPhrase(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		r := []rune(w)[0]
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
