package harness

import (
	"context"

	"github.com/vnykmshr/cadence/pkg/common/validation"
	"github.com/vnykmshr/cadence/pkg/locks"
)

// Guard selects how a demo protects its critical sections.
type Guard string

const (
	// GuardNone uses no lock at all.
	GuardNone Guard = "none"
	// GuardMutex uses the exclusive mutex on both sides.
	GuardMutex Guard = "mutex"
	// GuardRead makes writers take only a read lock. This is the misuse
	// the demos exist to show.
	GuardRead Guard = "read"
	// GuardWrite makes writers take the write lock and readers the read lock.
	GuardWrite Guard = "write"
)

// ParseGuard validates s as a Guard.
func ParseGuard(s string) (Guard, error) {
	if err := validation.ValidateOneOf("harness", "guard", s,
		string(GuardNone), string(GuardMutex), string(GuardRead), string(GuardWrite)); err != nil {
		return "", err
	}
	return Guard(s), nil
}

// section runs critical sections under a guard.
type section struct {
	guard Guard
	mu    *locks.Mutex
	rw    *locks.RWMutex
}

func newSection(g Guard) *section {
	return &section{guard: g, mu: locks.NewMutex(), rw: locks.NewRWMutex()}
}

// write runs fn as a mutation.
func (s *section) write(ctx context.Context, owner string, fn func() error) error {
	switch s.guard {
	case GuardMutex:
		return s.mu.WithLock(ctx, owner, fn)
	case GuardRead:
		return s.rw.WithRead(ctx, owner, fn)
	case GuardWrite:
		return s.rw.WithWrite(ctx, owner, fn)
	default:
		return fn()
	}
}

// read runs fn as an observation.
func (s *section) read(ctx context.Context, owner string, fn func() error) error {
	switch s.guard {
	case GuardMutex:
		return s.mu.WithLock(ctx, owner, fn)
	case GuardRead, GuardWrite:
		return s.rw.WithRead(ctx, owner, fn)
	default:
		return fn()
	}
}
