// Package scraper implements the DOM inference engine: listing extraction,
// lazy-load scroll control, review extraction and the collection loop that
// drives them against a rendered maps search feed.
package scraper

import "context"

// Logger is the logging capability every component in this package requires
// at construction. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Strategy is one attempt at recovering a value from an unstable document.
// It reports ok=false for expected absence; an error means the attempt itself
// broke and the cascade should log and move on.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool, error)
}

// FirstMatch runs strategies in order and returns the first successful value.
// A failing strategy never aborts the cascade: the provider changes markup
// often enough that any single selector is expected to rot.
func FirstMatch[T any](ctx context.Context, log Logger, strategies ...Strategy[T]) (T, bool) {
	var zero T
	for _, s := range strategies {
		if ctx.Err() != nil {
			return zero, false
		}
		val, ok, err := s.Run(ctx)
		if err != nil {
			log.Printf("strategy=%s result=error err=%v", s.Name, err)
			continue
		}
		if ok {
			return val, true
		}
	}
	return zero, false
}
