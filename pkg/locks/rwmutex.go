package locks

import (
	"context"
	"fmt"
	"sync"

	"github.com/vnykmshr/cadence/pkg/common/validation"
)

// RWMutex is a writer-preferring reader/writer lock with owners. The zero
// value is unlocked.
//
// A waiting writer blocks newly arriving readers, but readers that were
// already waiting when a writer released are admitted before the next
// writer, so a writer that re-acquires in a loop cannot starve them.
type RWMutex struct {
	opts options

	mu             sync.Mutex
	readers        map[string]int
	nreaders       int
	writer         string
	waitingWriters int
	changed        chan struct{}

	// waitingReaders counts readers blocked in AcquireRead. A reader that
	// started waiting before the last write release (its generation is
	// below releases) holds one of the readerTurn admissions.
	waitingReaders int
	readerTurn     int
	releases       uint64
}

// NewRWMutex creates an unlocked RWMutex.
func NewRWMutex(opts ...Option) *RWMutex {
	return &RWMutex{opts: buildOptions(opts)}
}

// initLocked must be called with rw.mu held.
func (rw *RWMutex) initLocked() {
	if rw.changed == nil {
		rw.changed = make(chan struct{})
		rw.readers = make(map[string]int)
	}
}

func (rw *RWMutex) broadcastLocked() {
	close(rw.changed)
	rw.changed = make(chan struct{})
}

func checkAcquire(ctx context.Context, owner string) error {
	if ctx == nil {
		panic("locks: nil Context")
	}
	if err := validation.ValidateNotEmpty("locks", "owner", owner); err != nil {
		return err
	}
	return ctx.Err()
}

// AcquireRead blocks until owner holds a read lock or ctx is done. It waits
// while a writer holds the lock or is waiting for it.
func (rw *RWMutex) AcquireRead(ctx context.Context, owner string) error {
	if err := checkAcquire(ctx, owner); err != nil {
		return err
	}

	rw.mu.Lock()
	rw.initLocked()
	if rw.opts.detectReentry && rw.writer == owner {
		rw.mu.Unlock()
		return fmt.Errorf("read acquire by writer %q: %w", owner, ErrReentrantAcquire)
	}

	waiting := false
	var gen uint64
	for rw.writer != "" || (rw.waitingWriters > 0 && !rw.hasTurnLocked(waiting, gen)) {
		if !waiting {
			waiting = true
			gen = rw.releases
			rw.waitingReaders++
		}
		changed := rw.changed
		rw.mu.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			rw.mu.Lock()
			rw.waitingReaders--
			if rw.hasTurnLocked(waiting, gen) {
				rw.readerTurn--
				rw.broadcastLocked()
			}
			rw.mu.Unlock()
			return ctx.Err()
		}
		rw.mu.Lock()
	}
	if waiting {
		rw.waitingReaders--
		if rw.hasTurnLocked(waiting, gen) {
			rw.readerTurn--
			if rw.readerTurn == 0 {
				rw.broadcastLocked()
			}
		}
	}
	rw.readers[owner]++
	rw.nreaders++
	rw.mu.Unlock()
	return nil
}

// hasTurnLocked reports whether a reader that has been waiting since
// generation gen is owed an admission by a write release.
func (rw *RWMutex) hasTurnLocked(waiting bool, gen uint64) bool {
	return waiting && gen < rw.releases && rw.readerTurn > 0
}

// ReleaseRead releases one read hold of owner.
func (rw *RWMutex) ReleaseRead(owner string) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.initLocked()

	n := rw.readers[owner]
	if n == 0 {
		return fmt.Errorf("read release by %q: %w", owner, ErrLockNotHeld)
	}
	if n == 1 {
		delete(rw.readers, owner)
	} else {
		rw.readers[owner] = n - 1
	}
	rw.nreaders--
	if rw.nreaders == 0 {
		rw.broadcastLocked()
	}
	return nil
}

// AcquireWrite blocks until owner holds the lock exclusively or ctx is
// done. New readers are held back while it waits.
func (rw *RWMutex) AcquireWrite(ctx context.Context, owner string) error {
	if err := checkAcquire(ctx, owner); err != nil {
		return err
	}

	rw.mu.Lock()
	rw.initLocked()
	if rw.opts.detectReentry && (rw.writer == owner || rw.readers[owner] > 0) {
		rw.mu.Unlock()
		return fmt.Errorf("write acquire by %q: %w", owner, ErrReentrantAcquire)
	}

	rw.waitingWriters++
	for rw.writer != "" || rw.nreaders > 0 || rw.readerTurn > 0 {
		changed := rw.changed
		rw.mu.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			rw.mu.Lock()
			rw.waitingWriters--
			rw.broadcastLocked()
			rw.mu.Unlock()
			return ctx.Err()
		}
		rw.mu.Lock()
	}
	rw.waitingWriters--
	rw.writer = owner
	rw.mu.Unlock()
	return nil
}

// ReleaseWrite releases the write lock held by owner.
func (rw *RWMutex) ReleaseWrite(owner string) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.initLocked()

	if owner == "" || rw.writer != owner {
		return fmt.Errorf("write release by %q: %w", owner, ErrLockNotHeld)
	}
	rw.writer = ""
	rw.releases++
	rw.readerTurn = rw.waitingReaders
	rw.broadcastLocked()
	return nil
}

// WithRead runs fn while owner holds a read lock.
func (rw *RWMutex) WithRead(ctx context.Context, owner string, fn func() error) error {
	if err := rw.AcquireRead(ctx, owner); err != nil {
		return err
	}
	defer func() { _ = rw.ReleaseRead(owner) }()
	return fn()
}

// WithWrite runs fn while owner holds the write lock.
func (rw *RWMutex) WithWrite(ctx context.Context, owner string, fn func() error) error {
	if err := rw.AcquireWrite(ctx, owner); err != nil {
		return err
	}
	defer func() { _ = rw.ReleaseWrite(owner) }()
	return fn()
}

// RWState is a snapshot of an RWMutex.
type RWState struct {
	Readers        int
	Writer         string
	WaitingWriters int
}

// State returns the current holders and waiters.
func (rw *RWMutex) State() RWState {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return RWState{Readers: rw.nreaders, Writer: rw.writer, WaitingWriters: rw.waitingWriters}
}
