package harness

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/cadence/pkg/common/validation"
	"github.com/vnykmshr/cadence/pkg/locks"
)

// Counter is an integer whose increment is a separate load and store.
// Concurrent unguarded increments lose updates.
type Counter struct {
	v atomic.Int64
}

// Increment adds one without any exclusion.
func (c *Counter) Increment() {
	v := c.v.Load()
	runtime.Gosched()
	c.v.Store(v + 1)
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return c.v.Load()
}

// CounterConfig configures RunCounter.
type CounterConfig struct {
	Goroutines int
	Increments int
	// Locked wraps every increment in a locks.Mutex.
	Locked bool
}

// CounterResult reports a RunCounter outcome.
type CounterResult struct {
	Expected int64
	Got      int64
}

// Lost returns how many increments disappeared.
func (r CounterResult) Lost() int64 {
	return r.Expected - r.Got
}

// RunCounter has cfg.Goroutines goroutines increment one Counter
// cfg.Increments times each.
func RunCounter(ctx context.Context, cfg CounterConfig) (CounterResult, error) {
	if err := validation.ValidatePositive("harness", "goroutines", cfg.Goroutines); err != nil {
		return CounterResult{}, err
	}
	if err := validation.ValidatePositive("harness", "increments", cfg.Increments); err != nil {
		return CounterResult{}, err
	}

	var c Counter
	var mu locks.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Goroutines; i++ {
		owner := fmt.Sprintf("incrementer-%d", i+1)
		g.Go(func() error {
			for n := 0; n < cfg.Increments; n++ {
				if !cfg.Locked {
					c.Increment()
					continue
				}
				if err := mu.Acquire(ctx, owner); err != nil {
					return err
				}
				c.Increment()
				if err := mu.Release(owner); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return CounterResult{
		Expected: int64(cfg.Goroutines) * int64(cfg.Increments),
		Got:      c.Value(),
	}, err
}
