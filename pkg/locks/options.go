package locks

import (
	cerrors "github.com/vnykmshr/cadence/pkg/common/errors"
)

var (
	// ErrLockNotHeld is returned by a release from an owner that does not
	// hold the lock.
	ErrLockNotHeld = cerrors.ErrLockNotHeld

	// ErrReentrantAcquire is returned when reentry detection is enabled and
	// the holder acquires again.
	ErrReentrantAcquire = cerrors.ErrReentrantAcquire
)

// Option configures a lock.
type Option func(*options)

type options struct {
	detectReentry bool
}

// WithReentryDetection makes a second acquire by the current holder fail
// with ErrReentrantAcquire instead of blocking.
func WithReentryDetection() Option {
	return func(o *options) {
		o.detectReentry = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
