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

// panelSnapshot is the serialized form of the opened detail panel.
type panelSnapshot struct {
	Title       string   `json:"title"`
	RatingLabel string   `json:"ratingLabel"`
	Website     string   `json:"website"`
	Fragments   []string `json:"fragments"`
}

// reviewSnapshot is the serialized form of one review container.
type reviewSnapshot struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	PhotoLabel  string   `json:"photoLabel"`
	ProfileText string   `json:"profileText"`
	RatingLabel string   `json:"ratingLabel"`
	Texts       []string `json:"texts"`
	LikesLabel  string   `json:"likesLabel"`
	FullText    string   `json:"fullText"`
}

var (
	starRating   = regexp.MustCompile(`(?i)(\d)(?:[.,]\d)?\s*(?:star|bintang)`)
	relativeDate = regexp.MustCompile(`(?i)\b(?:edited\s+)?(?:a|an|\d+)\s+(?:second|minute|hour|day|week|month|year)s?\s+ago\b`)
	likesNumber  = regexp.MustCompile(`\d+`)
	photoPrefix  = regexp.MustCompile(`(?i)^photo of\s+`)

	// Metadata lines that must never be mistaken for review prose.
	reviewMetadata = regexp.MustCompile(`(?i)^(local guide|new|like|share|helpful|more|report review|see original|translated by|photos?|\d+ reviews?|\d+ photos?)\b`)
)

const (
	panelWaitTimeout  = 12 * time.Second
	dialogWaitTimeout = 5 * time.Second
	minReviewTextLen  = 5
)

// ReviewOptions tune a review pass for one business.
type ReviewOptions struct {
	MaxReviews     int
	WithShareLinks bool
}

// ReviewExtractor walks a business's detail panel through its stages:
// click the listing, wait for the sidebar, open the reviews tab, scroll,
// extract, and always hand the feed back in a navigable state.
type ReviewExtractor struct {
	page       browser.Page
	classifier *classify.Classifier
	scrollOpts ScrollOptions
	log        Logger
	delay      func()
}

// NewReviewExtractor wires an extractor. All dependencies are required.
func NewReviewExtractor(page browser.Page, cls *classify.Classifier, log Logger, thinkTime func()) *ReviewExtractor {
	if thinkTime == nil {
		thinkTime = func() { time.Sleep(800 * time.Millisecond) }
	}
	return &ReviewExtractor{
		page:       page,
		classifier: cls,
		scrollOpts: ReviewScrollOptions(),
		log:        log,
		delay:      thinkTime,
	}
}

// ExtractFor opens the detail panel for a business and returns its reviews
// plus a snapshot of the panel's business fields, which the panel renders
// more completely than the feed card. Every stage degrades gracefully: a
// failed stage returns whatever was extracted so far, and the panel is always
// dismissed before returning.
func (e *ReviewExtractor) ExtractFor(ctx context.Context, b entity.Business, opts ReviewOptions) (reviews []entity.Review, details entity.Business, err error) {
	defer func() {
		e.closePanel(ctx)
	}()

	if !e.openListing(ctx, b) {
		e.log.Printf("review_extractor url=%s stage=click result=no_match", b.URL)
		return nil, entity.Business{}, nil
	}
	e.delay()

	if waitErr := e.page.WaitFor(ctx, `div[role="main"] h1, div[role="tablist"]`, panelWaitTimeout); waitErr != nil {
		// Not fatal: the panel may be rendered without the expected marker.
		e.log.Printf("review_extractor url=%s stage=sidebar_wait result=timeout err=%v", b.URL, waitErr)
	}
	e.delay()

	details = e.panelDetails(ctx, b)

	if !e.openReviewsTab(ctx) {
		e.log.Printf("review_extractor url=%s stage=tab result=not_found", b.URL)
		return nil, details, nil
	}
	e.delay()

	target := opts.MaxReviews
	if b.ReviewCount != nil && *b.ReviewCount < target {
		target = *b.ReviewCount
	}
	ctrl := NewScrollController(&reviewScrollDriver{page: e.page}, e.scrollOpts, e.log)
	if _, scrollErr := ctrl.Run(ctx, target); scrollErr != nil {
		return nil, details, scrollErr
	}

	reviews, err = e.extractRendered(ctx, opts.MaxReviews)
	if err != nil {
		return reviews, details, err
	}

	if opts.WithShareLinks {
		e.collectShareLinks(ctx, reviews)
	}
	return reviews, details, nil
}

// panelDetails snapshots the opened panel and assembles the business fields
// it renders, reusing the feed card's rating parsers and fragment
// classifiers. A failed snapshot yields an empty record, which merges as a
// no-op.
func (e *ReviewExtractor) panelDetails(ctx context.Context, base entity.Business) entity.Business {
	var snap panelSnapshot
	if err := e.page.Evaluate(ctx, panelSnapshotScript, &snap); err != nil {
		e.log.Printf("review_extractor url=%s stage=details err=%v", base.URL, err)
		return entity.Business{}
	}

	details := entity.Business{Name: strings.TrimSpace(snap.Title)}
	if r, found := parseRating(snap.RatingLabel); found {
		details.Rating = &r
	}
	if n, found := parseReviewCount(snap.RatingLabel); found {
		details.ReviewCount = &n
	}
	if isExternalLink(snap.Website) {
		site := snap.Website
		details.Website = &site
	}
	claimFragments(e.classifier, &details, snap.Fragments)
	return details
}

// openListing resolves the target listing among currently rendered elements.
// The match cascade (exact URL, URL substring, label substring) runs inside
// one evaluate call because the feed may re-render between lookup and click.
func (e *ReviewExtractor) openListing(ctx context.Context, b entity.Business) bool {
	// Put the pointer over the feed first so the click carries ordinary
	// pointer activity. Failure here is irrelevant to the match.
	_ = e.page.MouseMove(ctx, feedWheelX, feedWheelY)

	script := fmt.Sprintf(listingClickScriptTemplate,
		b.URL,
		normalizedPlacePath(b.URL),
		strings.ToLower(b.Name),
	)
	var clicked bool
	if err := e.page.Evaluate(ctx, script, &clicked); err != nil {
		e.log.Printf("review_extractor url=%s stage=click err=%v", b.URL, err)
		return false
	}
	return clicked
}

func (e *ReviewExtractor) openReviewsTab(ctx context.Context) bool {
	strategies := make([]Strategy[bool], 0, len(reviewTabScripts))
	for i, script := range reviewTabScripts {
		script := script
		strategies = append(strategies, Strategy[bool]{
			Name: fmt.Sprintf("reviews_tab_%d", i),
			Run: func(ctx context.Context) (bool, bool, error) {
				var clicked bool
				if err := e.page.Evaluate(ctx, script, &clicked); err != nil {
					return false, false, err
				}
				return clicked, clicked, nil
			},
		})
	}
	_, ok := FirstMatch(ctx, e.log, strategies...)
	return ok
}

// extractRendered assembles Review records from the rendered panel,
// deduplicating by review identity: the provider may render the same logical
// review more than once.
func (e *ReviewExtractor) extractRendered(ctx context.Context, maxReviews int) ([]entity.Review, error) {
	var snaps []reviewSnapshot
	if err := e.page.Evaluate(ctx, reviewSnapshotScript, &snaps); err != nil {
		return nil, fmt.Errorf("review snapshot: %w", err)
	}

	seen := make(map[string]struct{}, len(snaps))
	var out []entity.Review
	for i, snap := range snaps {
		if maxReviews > 0 && len(out) >= maxReviews {
			break
		}
		r, ok := e.assembleReview(snap, i)
		if !ok {
			continue
		}
		if _, dup := seen[r.ReviewID]; dup {
			continue
		}
		seen[r.ReviewID] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// assembleReview builds one Review. A container without a parsable 1-5
// rating is discarded, and a container whose subtitle looks like business
// listing data (an adjacent card bleeding into the panel) is skipped.
func (e *ReviewExtractor) assembleReview(snap reviewSnapshot, ordinal int) (entity.Review, bool) {
	rating, ok := parseStarRating(snap.RatingLabel, snap.FullText)
	if !ok {
		return entity.Review{}, false
	}

	r := entity.Review{
		ReviewID: snap.ID,
		Rating:   rating,
	}
	if r.ReviewID == "" {
		r.ReviewID = fmt.Sprintf("review-%04d", ordinal)
	}

	if name := resolveReviewerName(snap); name != "" {
		r.ReviewerName = &name
	}
	if subtitle := resolveReviewerSubtitle(snap); subtitle != "" {
		if e.looksLikeBusinessCard(subtitle) {
			return entity.Review{}, false
		}
		r.ReviewerSubtitle = &subtitle
	}
	if d := relativeDate.FindString(snap.FullText); d != "" {
		r.ReviewDate = &d
	}
	if text := resolveReviewText(snap, r); text != "" {
		r.ReviewText = &text
	}
	if likes, found := parseLikes(snap.LikesLabel); found {
		r.LikesCount = &likes
	}
	return r, true
}

// looksLikeBusinessCard reports whether a subtitle matches business listing
// patterns rather than reviewer patterns.
func (e *ReviewExtractor) looksLikeBusinessCard(subtitle string) bool {
	return e.classifier.IsAddress(subtitle) ||
		e.classifier.IsPhone(subtitle) ||
		e.classifier.IsHoursStatus(subtitle)
}

// collectShareLinks runs the optional secondary pass: open each review's
// share dialog, read the link, close the dialog. One review's failure never
// aborts the rest.
func (e *ReviewExtractor) collectShareLinks(ctx context.Context, reviews []entity.Review) {
	for i := range reviews {
		link, err := e.shareLinkFor(ctx, reviews[i].ReviewID)
		if err != nil {
			e.log.Printf("review_extractor stage=share review_id=%s err=%v", reviews[i].ReviewID, err)
			continue
		}
		if link != "" {
			reviews[i].ShareLink = &link
		}
	}
}

func (e *ReviewExtractor) shareLinkFor(ctx context.Context, reviewID string) (string, error) {
	var opened bool
	if err := e.page.Evaluate(ctx, fmt.Sprintf(shareOpenScriptTemplate, reviewID), &opened); err != nil {
		return "", err
	}
	if !opened {
		return "", nil
	}
	defer func() {
		if err := e.page.KeyPress(ctx, "Escape"); err != nil {
			e.log.Printf("review_extractor stage=share_close err=%v", err)
		}
		e.delay()
	}()

	if err := e.page.WaitFor(ctx, `div[role="dialog"] input`, dialogWaitTimeout); err != nil {
		return "", err
	}
	var link string
	if err := e.page.Evaluate(ctx, shareLinkScript, &link); err != nil {
		return "", err
	}
	return strings.TrimSpace(link), nil
}

// closePanel dismisses the detail panel via the button-label cascade with an
// Escape fallback, then verifies the feed is navigable again.
func (e *ReviewExtractor) closePanel(ctx context.Context) {
	closed := false
	for _, script := range panelCloseScripts {
		var ok bool
		if err := e.page.Evaluate(ctx, script, &ok); err == nil && ok {
			closed = true
			break
		}
	}
	if !closed {
		if err := e.page.KeyPress(ctx, "Escape"); err != nil {
			e.log.Printf("review_extractor stage=panel_close err=%v", err)
		}
	}
	e.delay()

	var feedBack bool
	if err := e.page.Evaluate(ctx, feedVisibleScript, &feedBack); err != nil || !feedBack {
		e.log.Printf("review_extractor stage=panel_close result=feed_not_visible")
	}
}

// reviewScrollDriver adapts the review panel to the scroll controller, with
// its own probe cascades.
type reviewScrollDriver struct {
	page browser.Page
}

func (d *reviewScrollDriver) Count(ctx context.Context) (int, error) {
	var lastErr error
	for _, script := range reviewCountScripts {
		var n int
		if err := d.page.Evaluate(ctx, script, &n); err != nil {
			lastErr = err
			continue
		}
		if n > 0 {
			return n, nil
		}
	}
	return 0, lastErr
}

func (d *reviewScrollDriver) ScrollHeight(ctx context.Context) (float64, error) {
	var lastErr error
	for _, script := range reviewHeightScripts {
		var h float64
		if err := d.page.Evaluate(ctx, script, &h); err != nil {
			lastErr = err
			continue
		}
		if h > 0 {
			return h, nil
		}
	}
	return -1, lastErr
}

func (d *reviewScrollDriver) AtEnd(ctx context.Context) (bool, error) {
	// The review panel has no explicit end marker; stall convergence is the
	// only terminator besides the target count.
	return false, nil
}

func (d *reviewScrollDriver) Scroll(ctx context.Context) error {
	for _, script := range reviewScrollScripts {
		var ok bool
		if err := d.page.Evaluate(ctx, script, &ok); err == nil && ok {
			return nil
		}
	}
	// The detail panel sits in the same left pane as the feed; a wheel
	// burst reaches it when no scrollable container matched.
	return d.page.MouseWheel(ctx, feedWheelX, feedWheelY, wheelBurstDelta)
}

func parseStarRating(ratingLabel, fullText string) (int, bool) {
	for _, source := range []string{ratingLabel, fullText} {
		m := starRating.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 5 {
			continue
		}
		return n, true
	}
	return 0, false
}

// resolveReviewerName applies the photo-label, profile-link and
// short-text cascades.
func resolveReviewerName(snap reviewSnapshot) string {
	if snap.PhotoLabel != "" {
		name := strings.TrimSpace(photoPrefix.ReplaceAllString(snap.PhotoLabel, ""))
		if name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(strings.SplitN(snap.ProfileText, "\n", 2)[0]); name != "" {
		return name
	}
	for _, t := range snap.Texts {
		t = strings.TrimSpace(t)
		if t == "" || reviewMetadata.MatchString(t) || relativeDate.MatchString(t) {
			continue
		}
		if len(t) <= 40 && !strings.ContainsAny(t, ".!?") {
			return t
		}
	}
	return ""
}

// resolveReviewerSubtitle returns the "Local Guide · N reviews" style line
// under the reviewer name, when present.
func resolveReviewerSubtitle(snap reviewSnapshot) string {
	if idx := strings.Index(snap.ProfileText, "\n"); idx >= 0 {
		if sub := strings.TrimSpace(snap.ProfileText[idx+1:]); sub != "" {
			return strings.SplitN(sub, "\n", 2)[0]
		}
	}
	for _, t := range snap.Texts {
		t = strings.TrimSpace(t)
		if reviewMetadata.MatchString(t) {
			return t
		}
	}
	return ""
}

// resolveReviewText picks the longest text block that is not metadata: not a
// date, not boilerplate, not a UI action label, not the reviewer's own name.
func resolveReviewText(snap reviewSnapshot, r entity.Review) string {
	var best string
	for _, t := range snap.Texts {
		t = strings.TrimSpace(t)
		if len(t) < minReviewTextLen {
			continue
		}
		if reviewMetadata.MatchString(t) || relativeDate.MatchString(t) {
			continue
		}
		if r.ReviewerName != nil && t == *r.ReviewerName {
			continue
		}
		if r.ReviewerSubtitle != nil && t == *r.ReviewerSubtitle {
			continue
		}
		if len(t) > len(best) {
			best = t
		}
	}
	return best
}

func parseLikes(label string) (int, bool) {
	m := likesNumber.FindString(label)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// normalizedPlacePath extracts the lowercased place segment of a detail URL
// for substring matching against re-rendered anchors.
func normalizedPlacePath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := strings.ToLower(u.Path)
	if idx := strings.Index(path, "/maps/place/"); idx >= 0 {
		path = path[idx:]
	}
	return path
}
