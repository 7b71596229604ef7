package locks

import (
	"context"
	"fmt"
	"sync"

	"github.com/vnykmshr/cadence/pkg/common/validation"
)

// Mutex is a non-reentrant exclusive lock with an owner. The zero value is
// an unlocked Mutex without reentry detection.
type Mutex struct {
	opts options

	initOnce sync.Once
	// ch is a size-1 channel used as the lock: a successful send acquires,
	// a receive releases.
	ch chan struct{}

	mu    sync.Mutex
	owner string
}

// NewMutex creates an unlocked Mutex.
func NewMutex(opts ...Option) *Mutex {
	return &Mutex{opts: buildOptions(opts)}
}

func (m *Mutex) init() {
	m.initOnce.Do(func() {
		m.ch = make(chan struct{}, 1)
	})
}

// Acquire blocks until owner holds the lock or ctx is done.
func (m *Mutex) Acquire(ctx context.Context, owner string) error {
	if ctx == nil {
		panic("locks: nil Context")
	}
	if err := validation.ValidateNotEmpty("locks", "owner", owner); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.init()

	if m.opts.detectReentry && m.Owner() == owner {
		return fmt.Errorf("mutex acquire by %q: %w", owner, ErrReentrantAcquire)
	}

	select {
	case m.ch <- struct{}{}:
		m.mu.Lock()
		m.owner = owner
		m.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires the lock for owner if it is free.
func (m *Mutex) TryAcquire(owner string) bool {
	if owner == "" {
		return false
	}
	m.init()

	select {
	case m.ch <- struct{}{}:
		m.mu.Lock()
		m.owner = owner
		m.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release unlocks the mutex. It fails with ErrLockNotHeld unless owner is
// the current holder.
func (m *Mutex) Release(owner string) error {
	m.init()
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner == "" || m.owner != owner {
		return fmt.Errorf("mutex release by %q: %w", owner, ErrLockNotHeld)
	}
	m.owner = ""
	<-m.ch
	return nil
}

// Owner returns the current holder, or "" when unlocked.
func (m *Mutex) Owner() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

// WithLock runs fn while owner holds the lock.
func (m *Mutex) WithLock(ctx context.Context, owner string, fn func() error) error {
	if err := m.Acquire(ctx, owner); err != nil {
		return err
	}
	defer func() { _ = m.Release(owner) }()
	return fn()
}
