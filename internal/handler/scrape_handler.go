package handler

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-generator/worker/internal/browser"
	"github.com/octobees/leads-generator/worker/internal/classify"
	"github.com/octobees/leads-generator/worker/internal/config"
	"github.com/octobees/leads-generator/worker/internal/dto"
	"github.com/octobees/leads-generator/worker/internal/enrich"
	middleware "github.com/octobees/leads-generator/worker/internal/middleware"
	"github.com/octobees/leads-generator/worker/internal/scoring"
	"github.com/octobees/leads-generator/worker/internal/scraper"
	"github.com/octobees/leads-generator/worker/internal/sink"
)

const feedReadySelector = `div[role="feed"], div[role="article"], a[href*="/maps/place/"]`

// consentSelector matches the accept button of the consent interstitial the
// provider fronts fresh browser profiles with.
const consentSelector = `button[aria-label="Accept all"], form[action*="consent"] button`

const consentWaitTimeout = 3 * time.Second

// PageFactory opens a browsing session and returns the page handle plus a
// teardown func. Injectable so handler tests never launch a browser.
type PageFactory func() (browser.Page, func(), error)

// ScrapeHandler runs collection jobs. Sessions against the provider are
// strictly serialized: its anti-automation posture makes parallel sessions
// unsafe.
type ScrapeHandler struct {
	cfg     *config.Config
	poster  sink.ResultPoster
	logger  *log.Logger
	newPage PageFactory

	mu sync.Mutex
}

// NewScrapeHandler wires a handler backed by real Chrome sessions. The
// poster may be nil when no callback base URL is configured.
func NewScrapeHandler(cfg *config.Config, poster sink.ResultPoster, logger *log.Logger) *ScrapeHandler {
	return &ScrapeHandler{
		cfg:    cfg,
		poster: poster,
		logger: logger,
		newPage: func() (browser.Page, func(), error) {
			session, err := browser.NewSession(browser.SessionConfig{
				Headless:  cfg.Headless,
				UserAgent: cfg.UserAgent,
				ProxyURL:  cfg.ProxyURL,
			})
			if err != nil {
				return nil, nil, err
			}
			return session, session.Close, nil
		},
	}
}

// NewScrapeHandlerWithFactory allows injecting a page factory (useful for tests).
func NewScrapeHandlerWithFactory(cfg *config.Config, poster sink.ResultPoster, logger *log.Logger, factory PageFactory) *ScrapeHandler {
	h := NewScrapeHandler(cfg, poster, logger)
	h.newPage = factory
	return h
}

// Run handles POST /scrape: validates the job, drives one collection run and
// returns (or posts back) the collected records.
func (h *ScrapeHandler) Run(c echo.Context) error {
	var req dto.ScrapeRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	term := req.SearchTerm()
	if term == "" {
		// Hard input errors refuse before any browsing begins.
		return Error(c, http.StatusBadRequest, "query or type_business is required")
	}
	if req.CallbackURL != "" {
		if h.poster == nil {
			return Error(c, http.StatusBadRequest, "callback_url is set but no callback base URL is configured")
		}
		// The callback is a path on the configured base, never a full URL,
		// so a worker can only ever post results to its own consumer.
		if !strings.HasPrefix(req.CallbackURL, "/") || strings.Contains(req.CallbackURL, "://") {
			return Error(c, http.StatusBadRequest, "callback_url must be a path on the configured callback base URL")
		}
	}
	if req.MaxResults <= 0 {
		req.MaxResults = h.cfg.MaxResults
	}
	if req.MaxReviews <= 0 {
		req.MaxReviews = h.cfg.MaxReviews
	}

	jobID := uuid.NewString()
	rid := middleware.RequestIDFromContext(c)
	h.logger.Printf("request_id=%s job_id=%s term=%q max_results=%d starting scrape", rid, jobID, term, req.MaxResults)

	h.mu.Lock()
	result, err := h.collect(c.Request().Context(), term, req)
	h.mu.Unlock()
	if err != nil {
		h.logger.Printf("request_id=%s job_id=%s scrape failed: %v", rid, jobID, err)
		return Error(c, http.StatusBadGateway, err.Error())
	}

	payload := map[string]any{
		"job_id":     jobID,
		"query":      term,
		"count":      len(result.Businesses),
		"blocked":    result.Blocked,
		"exhausted":  result.Exhausted,
		"businesses": result.Businesses,
	}

	if req.CallbackURL != "" && h.poster != nil {
		if err := h.poster.PostJSON(c.Request().Context(), req.CallbackURL, payload, rid); err != nil {
			h.logger.Printf("request_id=%s job_id=%s callback failed: %v", rid, jobID, err)
			return Error(c, http.StatusBadGateway, "results collected but callback delivery failed")
		}
		return Success(c, http.StatusOK, "results delivered to callback", map[string]any{
			"job_id": jobID,
			"count":  len(result.Businesses),
		})
	}

	message := "scrape completed"
	if result.Blocked {
		message = "scrape blocked by provider bot defense"
	}
	return Success(c, http.StatusOK, message, payload)
}

// collect opens a session, loads the search feed and runs the collector.
func (h *ScrapeHandler) collect(ctx context.Context, term string, req dto.ScrapeRequest) (scraper.CollectResult, error) {
	page, closeSession, err := h.newPage()
	if err != nil {
		return scraper.CollectResult{}, err
	}
	defer closeSession()

	searchURL := h.cfg.SearchBaseURL + url.QueryEscape(term)
	if err := page.Navigate(ctx, searchURL, h.cfg.NavigateTimeout); err != nil {
		return scraper.CollectResult{}, err
	}
	if err := page.WaitFor(ctx, consentSelector, consentWaitTimeout); err == nil {
		if err := page.Click(ctx, consentSelector); err != nil {
			h.logger.Printf("consent dismissal failed: %v", err)
		}
	}
	if err := page.WaitFor(ctx, feedReadySelector, h.cfg.NavigateTimeout); err != nil {
		// Degraded pages may still carry extractable anchors.
		h.logger.Printf("feed wait timed out, attempting extraction anyway: %v", err)
	}

	thinkTime := h.thinkTimeFunc()
	classifier := classify.New(h.cfg.PhoneRegion)

	listing := scraper.NewListingExtractor(page, classifier, h.logger)
	reviews := scraper.NewReviewExtractor(page, classifier, h.logger, thinkTime)
	enricher := enrich.New(page, enrich.Config{
		FollowContactPage:    h.cfg.FollowContact,
		NavigateTimeout:      h.cfg.NavigateTimeout,
		InvalidEmailPatterns: h.cfg.EmailDenylist,
	}, h.logger)

	collector := scraper.NewCollector(page, listing, reviews, enricher, scoring.Score, h.logger)
	return collector.Collect(ctx, scraper.CollectParams{
		MaxResults:        req.MaxResults,
		MinRating:         req.MinRating,
		IncludeCategories: req.IncludeCategories,
		ExcludeCategories: req.ExcludeCategories,
		WithReviews:       req.WithReviews,
		MaxReviews:        req.MaxReviews,
		WithShareLinks:    req.WithShareLinks,
		WithEnrichment:    req.WithEnrichment,
	})
}

// thinkTimeFunc returns the randomized pause inserted around interactions so
// the session avoids a uniform timing signature.
func (h *ScrapeHandler) thinkTimeFunc() func() {
	min, max := h.cfg.ThinkTimeMin, h.cfg.ThinkTimeMax
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() {
		d := min
		if max > min {
			d += time.Duration(rnd.Int63n(int64(max - min)))
		}
		time.Sleep(d)
	}
}
