// Package clock provides the monotonic time source used by the schedulers.
//
// Now values carry Go's monotonic clock reading, so comparisons and
// subtractions between two readings never go backwards even if the wall
// clock is adjusted. Tests substitute a manual clock through the Clock
// interface.
package clock

import (
	"context"
	"time"
)

// Clock is a source of time and timers.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time

	// NewTimer returns a timer that fires once after d. A d <= 0 fires
	// immediately.
	NewTimer(d time.Duration) Timer
}

// Timer is a single-shot timer created by a Clock.
type Timer interface {
	// C delivers the fire time once.
	C() <-chan time.Time

	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer.
	Stop() bool
}

// Real is the Clock backed by package time.
var Real Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{time.NewTimer(d)}
}

type realTimer struct{ t *time.Timer }

func (r realTimer) C() <-chan time.Time { return r.t.C }
func (r realTimer) Stop() bool          { return r.t.Stop() }

// SleepUntil blocks until c.Now() >= t or ctx is done. It returns
// immediately, without error, when t is not in the future. The only error
// it returns is ctx.Err().
func SleepUntil(ctx context.Context, c Clock, t time.Time) error {
	d := t.Sub(c.Now())
	if d <= 0 {
		return nil
	}

	timer := c.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OrReal returns c, or Real when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real
	}
	return c
}
