// Package browser provides the page handle the extraction engine drives:
// evaluate scripts against the live document, wait for selectors, simulate
// input and navigate. The engine never touches the browser process directly.
package browser

import (
	"context"
	"time"
)

// Page is the capability contract between the extraction engine and the
// browsing layer. Evaluate results must be serializable data; live element
// handles never cross this boundary.
type Page interface {
	// Navigate loads a URL. A hard navigation failure is returned as an
	// error; callers decide whether a soft timeout is tolerable.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// Evaluate runs a script against the current document and unmarshals
	// the result into out. Pass nil when no result is needed.
	Evaluate(ctx context.Context, script string, out any) error

	// WaitFor blocks until the selector is visible or the timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the first visible element matching the selector.
	Click(ctx context.Context, selector string) error

	// KeyPress sends a keyboard event to the focused element.
	KeyPress(ctx context.Context, key string) error

	// MouseWheel dispatches a wheel event at the given viewport position.
	MouseWheel(ctx context.Context, x, y, deltaY float64) error

	// MouseMove moves the pointer to the given viewport position.
	MouseMove(ctx context.Context, x, y float64) error
}
