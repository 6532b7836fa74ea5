package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/octobees/leads-generator/worker/internal/browser"
	"github.com/octobees/leads-generator/worker/internal/classify"
	"github.com/octobees/leads-generator/worker/internal/entity"
)

// containerSnapshot is the serialized form of one listing card, produced by
// listingSnapshotScript. Everything the extractor needs crosses the page
// boundary as plain data.
type containerSnapshot struct {
	URL       string         `json:"url"`
	Label     string         `json:"label"`
	FullText  string         `json:"fullText"`
	Fragments []string       `json:"fragments"`
	Links     []linkSnapshot `json:"links"`
}

type linkSnapshot struct {
	Href    string `json:"href"`
	Label   string `json:"label"`
	Text    string `json:"text"`
	Cluster bool   `json:"cluster"`
}

var (
	ratingToken      = regexp.MustCompile(`(\d[.,]\d)\s*(?:stars?|\()`)
	looseRatingToken = regexp.MustCompile(`(?:^|[\s·⋅])(\d[.,]\d)(?:[\s·⋅(]|$)`)
	reviewCountToken = regexp.MustCompile(`\((\d[\d,.]*)\)`)
	sponsoredToken   = regexp.MustCompile(`(?i)\bsponsored\b`)
	trackingMarker   = regexp.MustCompile(`(?i)(utm_|gclid=|/aclk\?|/url\?|adurl=)`)

	phoneTemplates = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[\s\-.]?\(?\d{1,4}\)?[\s\-.]?\d{3,4}[\s\-.]?\d{3,4}`),
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}[\s\-.]?\d{4}`),
		regexp.MustCompile(`\b0\d{2,3}[\s\-.]?\d{3,4}[\s\-.]?\d{3,4}\b`),
	}

	// The provider separates fields with "·" but joins an hours status with
	// "⋅", so only the former splits fragments.
	fragmentSeparators = regexp.MustCompile(`\s*[·•|]\s*|\n+`)
)

// providerHosts are hosts that never count as an external business website.
var providerHosts = []string{
	"google.com",
	"google.co",
	"gstatic.com",
	"googleusercontent.com",
	"googleapis.com",
}

// adRedirectMarkers identify the provider's own ad/tracking redirect links.
// They resolve to real external sites, so the website cascade lets them pass.
var adRedirectMarkers = []string{
	"googleadservices.com",
	"/aclk?",
	"doubleclick.net",
}

// ListingExtractor assembles Business records from the rendered feed.
type ListingExtractor struct {
	page       browser.Page
	classifier *classify.Classifier
	log        Logger
}

// NewListingExtractor wires an extractor. All dependencies are required.
func NewListingExtractor(page browser.Page, cls *classify.Classifier, log Logger) *ListingExtractor {
	return &ListingExtractor{page: page, classifier: cls, log: log}
}

// Extract enumerates listing containers and returns Business records in
// document order, capped at maxResults. The seen set carries URL dedup state
// across repeated passes within one collection run.
func (e *ListingExtractor) Extract(ctx context.Context, maxResults int, seen map[string]struct{}) ([]entity.Business, error) {
	var snaps []containerSnapshot
	if err := e.page.Evaluate(ctx, listingSnapshotScript, &snaps); err != nil {
		return nil, fmt.Errorf("listing snapshot: %w", err)
	}

	degraded := false
	if len(snaps) == 0 {
		// No article containers at all: the provider changed markup or the
		// page rendered a bare result set. Fall back to raw anchors.
		if err := e.page.Evaluate(ctx, anchorSnapshotScript, &snaps); err != nil {
			return nil, fmt.Errorf("anchor snapshot: %w", err)
		}
		degraded = true
		e.log.Printf("listing_extractor mode=degraded anchors=%d", len(snaps))
	}

	var out []entity.Business
	for _, snap := range snaps {
		if maxResults > 0 && len(seen) >= maxResults {
			break
		}
		b, ok := e.assemble(snap, degraded)
		if !ok {
			continue
		}
		if _, dup := seen[b.URL]; dup {
			continue
		}
		seen[b.URL] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}

// assemble builds one Business from a container snapshot. Any panic caused by
// malformed data is confined to this container.
func (e *ListingExtractor) assemble(snap containerSnapshot, degraded bool) (b entity.Business, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Printf("listing_extractor container_failed err=%v", r)
			ok = false
		}
	}()

	identity := canonicalPlaceURL(snap.URL)
	if identity == "" {
		return entity.Business{}, false
	}

	b = entity.Business{
		URL:       identity,
		Name:      resolveName(snap.Label),
		ScrapedAt: time.Now().UTC(),
	}
	if degraded {
		return b, true
	}

	if r, found := parseRating(snap.FullText); found {
		b.Rating = &r
	}
	if n, found := parseReviewCount(snap.FullText); found {
		b.ReviewCount = &n
	}
	if site, found := e.resolveWebsite(snap); found {
		b.Website = &site
	}
	b.IsSponsored = sponsoredToken.MatchString(snap.FullText)

	e.classifyFragments(&b, snap)
	e.fallbackFieldScan(&b, snap.FullText)

	return b, true
}

// classifyFragments runs a container's fragments through the field
// classifiers, falling back to splitting the full text when the card exposed
// no fragment nodes.
func (e *ListingExtractor) classifyFragments(b *entity.Business, snap containerSnapshot) {
	fragments := snap.Fragments
	if len(fragments) == 0 && snap.FullText != "" {
		fragments = splitFullText(snap.FullText)
	}
	claimFragments(e.classifier, b, fragments)
}

// claimFragments runs each fragment through the field classifiers in
// precedence order. A kind is claimed at most once per record, and a claimed
// fragment is not re-tested for the remaining kinds. Fields already populated
// on b keep their values.
func claimFragments(cls *classify.Classifier, b *entity.Business, fragments []string) {
	unclaimed := map[classify.Kind]bool{
		classify.KindCategory: b.Category == nil,
		classify.KindAddress:  b.Address == nil,
		classify.KindPhone:    b.Phone == nil,
		classify.KindHours:    b.HoursStatus == nil,
	}

	for _, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if frag == "" || frag == b.Name {
			continue
		}
		switch cls.Classify(frag, unclaimed) {
		case classify.KindCategory:
			b.Category = &frag
			unclaimed[classify.KindCategory] = false
		case classify.KindAddress:
			b.Address = &frag
			unclaimed[classify.KindAddress] = false
		case classify.KindPhone:
			normalized := cls.NormalizePhone(frag)
			b.Phone = &normalized
			unclaimed[classify.KindPhone] = false
		case classify.KindHours:
			b.HoursStatus = &frag
			unclaimed[classify.KindHours] = false
		}
	}
}

// fallbackFieldScan recovers address and phone from the whole container text
// when fragment classification came up empty. These passes are coarser, so
// they only run as a last resort.
func (e *ListingExtractor) fallbackFieldScan(b *entity.Business, fullText string) {
	if b.Address == nil {
		for _, line := range splitFullText(fullText) {
			line = strings.TrimSpace(line)
			if e.classifier.IsAddress(line) {
				b.Address = &line
				break
			}
		}
	}
	if b.Phone == nil {
		for _, re := range phoneTemplates {
			if m := re.FindString(fullText); m != "" && e.classifier.IsPhone(m) {
				normalized := e.classifier.NormalizePhone(m)
				b.Phone = &normalized
				break
			}
		}
	}
}

// resolveWebsite runs the confidence cascade over a container's links:
// explicit "Website" action, the action-link cluster, accessible attributes,
// then acceptance by elimination.
func (e *ListingExtractor) resolveWebsite(snap containerSnapshot) (string, bool) {
	ctx := context.Background()
	return FirstMatch(ctx, e.log,
		Strategy[string]{
			Name: "website_action_label",
			Run: func(context.Context) (string, bool, error) {
				for _, l := range snap.Links {
					label := strings.ToLower(l.Label + " " + l.Text)
					if strings.Contains(label, "website") && isExternalLink(l.Href) {
						return l.Href, true, nil
					}
				}
				return "", false, nil
			},
		},
		Strategy[string]{
			Name: "action_cluster_external",
			Run: func(context.Context) (string, bool, error) {
				for _, l := range snap.Links {
					if l.Cluster && isExternalLink(l.Href) {
						return l.Href, true, nil
					}
				}
				return "", false, nil
			},
		},
		Strategy[string]{
			Name: "accessible_attr_mentions_website",
			Run: func(context.Context) (string, bool, error) {
				for _, l := range snap.Links {
					if strings.Contains(strings.ToLower(l.Label), "website") && l.Href != "" {
						return l.Href, true, nil
					}
				}
				return "", false, nil
			},
		},
		Strategy[string]{
			Name: "external_by_elimination",
			Run: func(context.Context) (string, bool, error) {
				var candidates []string
				for _, l := range snap.Links {
					if isExternalLink(l.Href) {
						candidates = append(candidates, l.Href)
					}
				}
				switch len(candidates) {
				case 0:
					return "", false, nil
				case 1:
					return candidates[0], true, nil
				default:
					for _, c := range candidates {
						if !trackingMarker.MatchString(c) {
							return c, true, nil
						}
					}
					return candidates[0], true, nil
				}
			},
		},
	)
}

// isExternalLink reports whether href points outside the provider. The
// provider's ad-redirect links count as external because they resolve to
// real business sites.
func isExternalLink(href string) bool {
	if href == "" {
		return false
	}
	lowered := strings.ToLower(href)
	for _, marker := range adRedirectMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, p := range providerHosts {
		if host == p || strings.HasSuffix(host, "."+p) {
			return false
		}
	}
	if platform := socialPlatformForHost(host); platform != "" {
		return false
	}
	return true
}

func socialPlatformForHost(host string) string {
	for _, social := range []string{"facebook.com", "fb.com", "instagram.com", "linkedin.com", "youtube.com", "youtu.be", "tiktok.com", "twitter.com", "x.com", "pinterest.com"} {
		if host == social || strings.HasSuffix(host, "."+social) {
			return social
		}
	}
	return ""
}

// canonicalPlaceURL normalizes a detail-page URL into the dedup identity:
// scheme, host and path only. Query parameters vary between renders of the
// same listing.
func canonicalPlaceURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// resolveName trims the accessible label at the first separator. The
// provider concatenates name, category and rating into one label.
func resolveName(label string) string {
	name := label
	for _, sep := range []string{"·", "⋅", "•", "|", "\n"} {
		if idx := strings.Index(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.FallbackBusinessName
	}
	return name
}

// parseRating finds a rating token bounded to [1.0, 5.0]. Out-of-range
// matches are discarded, never clamped.
func parseRating(text string) (float64, bool) {
	candidates := ratingToken.FindAllStringSubmatch(text, -1)
	if len(candidates) == 0 {
		candidates = looseRatingToken.FindAllStringSubmatch(text, -1)
	}
	for _, m := range candidates {
		val, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		if val >= 1.0 && val <= 5.0 {
			return val, true
		}
	}
	return 0, false
}

// parseReviewCount finds a parenthesized count token.
func parseReviewCount(text string) (int, bool) {
	for _, m := range reviewCountToken.FindAllStringSubmatch(text, -1) {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m[1])
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

func splitFullText(text string) []string {
	return fragmentSeparators.Split(text, -1)
}
