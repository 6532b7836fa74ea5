package scraper

import (
	"context"
	"math/rand"
	"time"
)

// ScrollDriver is what the controller needs from a concrete feed: probe the
// loaded-item count, probe the scroll height, check the explicit end marker
// and issue one load-more interaction. Implementations hide their own
// selector cascades behind these four calls.
type ScrollDriver interface {
	Count(ctx context.Context) (int, error)
	ScrollHeight(ctx context.Context) (float64, error)
	AtEnd(ctx context.Context) (bool, error)
	Scroll(ctx context.Context) error
}

// ScrollResult reports how a scroll run terminated.
type ScrollResult struct {
	ScrollCount int
	ReachedEnd  bool
	ItemsLoaded int
}

// ScrollOptions bounds a scroll run. The ceiling is derived from the target
// count because the provider's page size is unknown:
// clamp(target/divisor + base, min, max).
type ScrollOptions struct {
	CeilingDivisor int
	CeilingBase    int
	CeilingMin     int
	CeilingMax     int
	StallLimit     int
	MinSettle      time.Duration
	MaxSettle      time.Duration
}

// ListingScrollOptions are the defaults for the search feed.
func ListingScrollOptions() ScrollOptions {
	return ScrollOptions{
		CeilingDivisor: 5,
		CeilingBase:    10,
		CeilingMin:     5,
		CeilingMax:     300,
		StallLimit:     4,
		MinSettle:      1200 * time.Millisecond,
		MaxSettle:      2600 * time.Millisecond,
	}
}

// ReviewScrollOptions are the defaults for a review panel, which loads in
// larger chunks and stalls faster when exhausted.
func ReviewScrollOptions() ScrollOptions {
	return ScrollOptions{
		CeilingDivisor: 3,
		CeilingBase:    10,
		CeilingMin:     5,
		CeilingMax:     250,
		StallLimit:     3,
		MinSettle:      900 * time.Millisecond,
		MaxSettle:      2000 * time.Millisecond,
	}
}

// Ceiling computes the scroll-attempt bound for a target count.
func (o ScrollOptions) Ceiling(target int) int {
	div := o.CeilingDivisor
	if div <= 0 {
		div = 5
	}
	ceiling := target/div + o.CeilingBase
	if ceiling < o.CeilingMin {
		ceiling = o.CeilingMin
	}
	if ceiling > o.CeilingMax {
		ceiling = o.CeilingMax
	}
	return ceiling
}

// ScrollController drives a feed until the target count is loaded, the
// provider signals the end, or progress converges to a stall.
type ScrollController struct {
	drv   ScrollDriver
	opts  ScrollOptions
	log   Logger
	sleep func(time.Duration)
	rnd   *rand.Rand
}

// NewScrollController wires a controller. The logger is required.
func NewScrollController(drv ScrollDriver, opts ScrollOptions, log Logger) *ScrollController {
	return &ScrollController{
		drv:   drv,
		opts:  opts,
		log:   log,
		sleep: time.Sleep,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes the scroll loop. Termination is convergence-driven: the
// target only serves as an early exit, since the provider's true item count
// is never known in advance.
func (c *ScrollController) Run(ctx context.Context, target int) (ScrollResult, error) {
	ceiling := c.opts.Ceiling(target)

	var (
		lastCount  = -1
		lastHeight = -1.0
		stalls     int
		result     ScrollResult
	)

	for i := 0; i < ceiling; i++ {
		if err := ctx.Err(); err != nil {
			result.ReachedEnd = false
			return result, err
		}

		count, err := c.drv.Count(ctx)
		if err != nil {
			c.log.Printf("scroll iteration=%d count_probe_failed err=%v", i, err)
			count = lastCount
		}
		if count > result.ItemsLoaded {
			result.ItemsLoaded = count
		}

		if count >= target && target > 0 {
			result.ReachedEnd = false
			return result, nil
		}

		if err := c.drv.Scroll(ctx); err != nil {
			c.log.Printf("scroll iteration=%d scroll_failed err=%v", i, err)
		}
		result.ScrollCount++

		c.sleep(c.settleDelay())

		if end, err := c.drv.AtEnd(ctx); err == nil && end {
			if n, err := c.drv.Count(ctx); err == nil && n > result.ItemsLoaded {
				result.ItemsLoaded = n
			}
			result.ReachedEnd = true
			return result, nil
		}

		height, err := c.drv.ScrollHeight(ctx)
		if err != nil {
			height = lastHeight
		}

		if count == lastCount && height == lastHeight {
			stalls++
			if stalls >= c.opts.StallLimit {
				result.ReachedEnd = true
				return result, nil
			}
		} else {
			stalls = 0
		}
		lastCount = count
		lastHeight = height
	}

	result.ReachedEnd = false
	return result, nil
}

func (c *ScrollController) settleDelay() time.Duration {
	if c.opts.MaxSettle <= c.opts.MinSettle {
		return c.opts.MinSettle
	}
	return c.opts.MinSettle + time.Duration(c.rnd.Int63n(int64(c.opts.MaxSettle-c.opts.MinSettle)))
}
