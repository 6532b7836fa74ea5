package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/octobees/leads-generator/worker/internal/browser"
	"github.com/octobees/leads-generator/worker/internal/entity"
)

// maxCollectPasses bounds the scroll-and-extract loop for the case where
// filtering keeps removing every new candidate.
const maxCollectPasses = 20

// Viewport coordinates for the wheel fallback. The results feed occupies the
// left pane of the provider's layout.
const (
	feedWheelX      = 360
	feedWheelY      = 400
	wheelBurstDelta = 2400
)

// Enricher runs the website enrichment pass for an accepted record.
type Enricher interface {
	Enrich(ctx context.Context, websiteURL string) (entity.Enrichment, error)
}

// ScoreFunc maps a populated business to a completeness score.
type ScoreFunc func(entity.Business) float64

// CollectParams describe one collection job.
type CollectParams struct {
	MaxResults        int
	MinRating         float64
	IncludeCategories []string
	ExcludeCategories []string
	WithReviews       bool
	MaxReviews        int
	WithShareLinks    bool
	WithEnrichment    bool
}

// CollectResult is the outcome of a collection run.
type CollectResult struct {
	Businesses []entity.Business
	Scroll     ScrollResult
	// Blocked signals the provider served an explicit bot-defense response.
	// The run ends cleanly with whatever was collected before the block.
	Blocked   bool
	Exhausted bool
}

// Collector orchestrates the scroll controller and the listing extractor
// against an already-loaded search feed, then runs the optional per-record
// passes. It owns the ordering guarantee: listing discovery fully completes
// before any detail-panel navigation begins.
type Collector struct {
	page     browser.Page
	listing  *ListingExtractor
	reviews  *ReviewExtractor
	enricher Enricher
	score    ScoreFunc
	log      Logger

	scrollOpts ScrollOptions
}

// NewCollector wires a collector. Reviews and enricher may be nil when the
// corresponding passes are never requested; page, listing and log are
// required.
func NewCollector(page browser.Page, listing *ListingExtractor, reviews *ReviewExtractor, enricher Enricher, score ScoreFunc, log Logger) *Collector {
	return &Collector{
		page:       page,
		listing:    listing,
		reviews:    reviews,
		enricher:   enricher,
		score:      score,
		log:        log,
		scrollOpts: ListingScrollOptions(),
	}
}

// Collect runs the full pipeline for one job.
func (c *Collector) Collect(ctx context.Context, params CollectParams) (CollectResult, error) {
	var result CollectResult

	blocked, err := c.botDefenseTriggered(ctx)
	if err != nil {
		return result, err
	}
	if blocked {
		c.log.Printf("collector result=blocked reason=bot_defense")
		result.Blocked = true
		return result, nil
	}

	if err := c.discover(ctx, params, &result); err != nil {
		return result, err
	}

	// Discovery is complete; the dedup set is final for this pass and the
	// feed's container set will no longer be enumerated, so panel
	// navigation is safe now.
	for i := range result.Businesses {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c.detailPasses(ctx, params, &result.Businesses[i])
	}

	return result, nil
}

// discover is the incremental scroll-and-collect loop. Each pass scrolls
// toward the remaining target, snapshots the feed and filters new records;
// it stops when the target is met, the feed is exhausted, or repeated passes
// stop producing accepted records.
func (c *Collector) discover(ctx context.Context, params CollectParams, result *CollectResult) error {
	seen := make(map[string]struct{})
	ctrl := NewScrollController(&feedScrollDriver{page: c.page}, c.scrollOpts, c.log)

	for pass := 0; pass < maxCollectPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Scroll enough for the records that filtering has not yet accepted.
		remaining := params.MaxResults - len(result.Businesses)
		scrollTarget := len(seen) + remaining
		scroll, err := ctrl.Run(ctx, scrollTarget)
		if err != nil {
			return err
		}
		result.Scroll = scroll

		batch, err := c.listing.Extract(ctx, 0, seen)
		if err != nil {
			return fmt.Errorf("listing pass %d: %w", pass, err)
		}

		accepted := 0
		for _, b := range batch {
			if !c.accept(b, params) {
				continue
			}
			result.Businesses = append(result.Businesses, b)
			accepted++
			if len(result.Businesses) >= params.MaxResults {
				return nil
			}
		}
		c.log.Printf("collector pass=%d new=%d accepted=%d total=%d", pass, len(batch), accepted, len(result.Businesses))

		if scroll.ReachedEnd && len(batch) == 0 {
			result.Exhausted = true
			return nil
		}
		if scroll.ReachedEnd && accepted == 0 {
			// The feed is done and filtering removed everything new.
			result.Exhausted = true
			return nil
		}
	}
	return nil
}

// detailPasses runs the optional review and enrichment passes for one
// accepted record. Failures degrade to partial data, never abort the batch.
func (c *Collector) detailPasses(ctx context.Context, params CollectParams, b *entity.Business) {
	if params.WithReviews && c.reviews != nil {
		reviews, details, err := c.reviews.ExtractFor(ctx, *b, ReviewOptions{
			MaxReviews:     params.MaxReviews,
			WithShareLinks: params.WithShareLinks,
		})
		if err != nil {
			c.log.Printf("collector url=%s pass=reviews err=%v", b.URL, err)
		}
		b.Reviews = reviews
		// The panel renders fields the feed card truncated or omitted; the
		// merge only fills and upgrades, it never nulls resolved data.
		b.Merge(details)
	}

	if params.WithEnrichment && c.enricher != nil && b.Website != nil {
		enrichment, err := c.enricher.Enrich(ctx, *b.Website)
		if err != nil {
			c.log.Printf("collector url=%s pass=enrichment err=%v", b.URL, err)
		}
		b.Enrichment = &enrichment
		if c.score != nil {
			score := c.score(*b)
			b.QualityScore = &score
		}
	}
}

// accept applies the inclusion and exclusion filters to one record.
func (c *Collector) accept(b entity.Business, params CollectParams) bool {
	if params.MinRating > 0 {
		if b.Rating == nil || *b.Rating < params.MinRating {
			return false
		}
	}
	if len(params.IncludeCategories) > 0 {
		if b.Category == nil || !matchesAny(*b.Category, params.IncludeCategories) {
			return false
		}
	}
	if len(params.ExcludeCategories) > 0 && b.Category != nil {
		if matchesAny(*b.Category, params.ExcludeCategories) {
			return false
		}
	}
	return true
}

func (c *Collector) botDefenseTriggered(ctx context.Context) (bool, error) {
	var blocked bool
	if err := c.page.Evaluate(ctx, botDefenseScript, &blocked); err != nil {
		return false, fmt.Errorf("bot defense probe: %w", err)
	}
	return blocked, nil
}

func matchesAny(value string, patterns []string) bool {
	lowered := strings.ToLower(value)
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" && strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// feedScrollDriver adapts the search feed to the scroll controller: count
// probes, scroll strategies and the explicit end-of-results marker each sit
// behind their own cascade.
type feedScrollDriver struct {
	page browser.Page
}

func (d *feedScrollDriver) Count(ctx context.Context) (int, error) {
	var lastErr error
	for _, script := range feedCountScripts {
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

func (d *feedScrollDriver) ScrollHeight(ctx context.Context) (float64, error) {
	var lastErr error
	for _, script := range feedHeightScripts {
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

func (d *feedScrollDriver) AtEnd(ctx context.Context) (bool, error) {
	var end bool
	err := d.page.Evaluate(ctx, feedEndScript, &end)
	return end, err
}

func (d *feedScrollDriver) Scroll(ctx context.Context) error {
	for _, script := range feedScrollScripts {
		var ok bool
		if err := d.page.Evaluate(ctx, script, &ok); err == nil && ok {
			return nil
		}
	}
	// No scrollable container matched: a wheel burst over the feed region
	// still triggers the provider's lazy loading.
	return d.page.MouseWheel(ctx, feedWheelX, feedWheelY, wheelBurstDelta)
}
