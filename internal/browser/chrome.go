package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// SessionConfig controls how the Chrome session is launched.
type SessionConfig struct {
	Headless  bool
	UserAgent string
	// ProxyURL, when set, is passed to Chrome as --proxy-server.
	ProxyURL string
}

// Session is a chromedp-backed implementation of Page. One session owns one
// tab; the engine runs a single session at a time against the provider.
type Session struct {
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	ctx         context.Context
}

// NewSession launches a Chrome instance and opens a tab.
func NewSession(cfg SessionConfig) (*Session, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(ua),
	)
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Session{allocCancel: allocCancel, tabCancel: tabCancel, ctx: tabCtx}, nil
}

// Close tears down the tab and the browser process.
func (s *Session) Close() {
	s.tabCancel()
	s.allocCancel()
}

// Navigate implements Page.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	runCtx, cancel := s.bounded(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Evaluate implements Page.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	runCtx, cancel := s.bounded(ctx, 0)
	defer cancel()

	if out == nil {
		return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
	}
	return chromedp.Run(runCtx, chromedp.Evaluate(script, out))
}

// WaitFor implements Page.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := s.bounded(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("wait for %q: timeout after %s", selector, timeout)
	}
	return err
}

// Click implements Page.
func (s *Session) Click(ctx context.Context, selector string) error {
	runCtx, cancel := s.bounded(ctx, 0)
	defer cancel()

	return chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// KeyPress implements Page.
func (s *Session) KeyPress(ctx context.Context, key string) error {
	runCtx, cancel := s.bounded(ctx, 0)
	defer cancel()

	return chromedp.Run(runCtx, chromedp.KeyEvent(key))
}

// MouseWheel implements Page.
func (s *Session) MouseWheel(ctx context.Context, x, y, deltaY float64) error {
	runCtx, cancel := s.bounded(ctx, 0)
	defer cancel()

	return chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, x, y).
			WithDeltaX(0).
			WithDeltaY(deltaY).
			Do(ctx)
	}))
}

// MouseMove implements Page.
func (s *Session) MouseMove(ctx context.Context, x, y float64) error {
	runCtx, cancel := s.bounded(ctx, 0)
	defer cancel()

	return chromedp.Run(runCtx, chromedp.MouseEvent(input.MouseMoved, x, y))
}

// bounded joins the caller context with the session tab context so a
// cancelled request stops browser work, optionally applying a timeout.
func (s *Session) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx := s.ctx
	stop := func() {}
	if ctx != nil {
		var cancel context.CancelFunc
		runCtx, cancel = mergeCancel(runCtx, ctx)
		stop = cancel
	}
	if timeout <= 0 {
		return runCtx, stop
	}
	timed, cancel := context.WithTimeout(runCtx, timeout)
	return timed, func() {
		cancel()
		stop()
	}
}

// mergeCancel returns a child of parent that is also cancelled when other is.
func mergeCancel(parent, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-other.Done():
			cancel()
		case <-merged.Done():
		}
	}()
	return merged, cancel
}

var _ Page = (*Session)(nil)
