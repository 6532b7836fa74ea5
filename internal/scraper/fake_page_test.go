package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

func discardLog() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// scriptResponse binds a script fragment to the value its evaluation yields.
// The first response whose marker occurs in the evaluated script wins.
type scriptResponse struct {
	marker string
	value  any
	err    error
}

// fakePage is an in-memory Page whose Evaluate replays scripted responses.
// Values cross the same JSON boundary the real page uses.
type fakePage struct {
	responses []scriptResponse

	navigated []string
	waited    []string
	clicked   []string
	keys      []string
	evals     int
}

func (p *fakePage) respond(marker string, value any) {
	p.responses = append(p.responses, scriptResponse{marker: marker, value: value})
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string, out any) error {
	p.evals++
	for _, r := range p.responses {
		if !strings.Contains(script, r.marker) {
			continue
		}
		if r.err != nil {
			return r.err
		}
		if out == nil {
			return nil
		}
		raw, err := json.Marshal(r.value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, out)
	}
	return fmt.Errorf("no scripted response for %q", truncate(script, 60))
}

func (p *fakePage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p.waited = append(p.waited, selector)
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.clicked = append(p.clicked, selector)
	return nil
}

func (p *fakePage) KeyPress(ctx context.Context, key string) error {
	p.keys = append(p.keys, key)
	return nil
}

func (p *fakePage) MouseWheel(ctx context.Context, x, y, deltaY float64) error {
	return nil
}

func (p *fakePage) MouseMove(ctx context.Context, x, y float64) error {
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
