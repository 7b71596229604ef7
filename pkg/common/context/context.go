// Package context holds small context helpers shared by the schedulers and
// the demo harness.
package context

import (
	"context"
	"errors"
	"time"
)

// WithOptionalTimeout bounds parent by timeout when timeout is positive.
// Otherwise it returns parent unchanged with a no-op cancel.
func WithOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}

// IsCanceled returns true if the context is done, for any reason.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// IsStop reports whether err only says that a context ended. Bounded loops
// use it to tell a normal stop from a real failure.
func IsStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
