package locks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/vnykmshr/cadence/pkg/common/errors"
)

func TestMutex_AcquireRelease(t *testing.T) {
	m := NewMutex()
	ctx := context.Background()

	require.NoError(t, m.Acquire(ctx, "a"))
	assert.Equal(t, "a", m.Owner())
	require.NoError(t, m.Release("a"))
	assert.Equal(t, "", m.Owner())

	require.NoError(t, m.Acquire(ctx, "b"))
	require.NoError(t, m.Release("b"))
}

func TestMutex_ZeroValue(t *testing.T) {
	var m Mutex
	require.NoError(t, m.Acquire(context.Background(), "a"))
	assert.False(t, m.TryAcquire("b"))
	require.NoError(t, m.Release("a"))
	assert.True(t, m.TryAcquire("b"))
	require.NoError(t, m.Release("b"))
}

func TestMutex_ReleaseByNonHolder(t *testing.T) {
	m := NewMutex()

	err := m.Release("nobody")
	assert.ErrorIs(t, err, ErrLockNotHeld)
	assert.True(t, cerrors.IsLockMisuse(err))

	require.NoError(t, m.Acquire(context.Background(), "a"))
	assert.ErrorIs(t, m.Release("b"), ErrLockNotHeld)
	assert.Equal(t, "a", m.Owner(), "failed release must not unlock")

	require.NoError(t, m.Release("a"))
	assert.ErrorIs(t, m.Release("a"), ErrLockNotHeld, "double release")
}

func TestMutex_ReentrantAcquireBlocks(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Acquire(context.Background(), "a"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := m.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "a", m.Owner())
	require.NoError(t, m.Release("a"))
}

func TestMutex_ReentryDetection(t *testing.T) {
	m := NewMutex(WithReentryDetection())
	require.NoError(t, m.Acquire(context.Background(), "a"))

	err := m.Acquire(context.Background(), "a")
	assert.ErrorIs(t, err, ErrReentrantAcquire)
	assert.True(t, cerrors.IsLockMisuse(err))
	require.NoError(t, m.Release("a"))
}

func TestMutex_AcquireArguments(t *testing.T) {
	m := NewMutex()

	assert.True(t, cerrors.IsValidationError(m.Acquire(context.Background(), "")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Acquire(ctx, "a"), context.Canceled)

	assert.PanicsWithValue(t, "locks: nil Context", func() {
		_ = m.Acquire(nil, "a") //nolint:staticcheck
	})
}

func TestMutex_ExcludesConcurrentHolders(t *testing.T) {
	const (
		goroutines = 8
		increments = 500
	)
	m := NewMutex()
	counter := 0

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				err := m.WithLock(context.Background(), owner, func() error {
					counter++
					return nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}(fmt.Sprintf("worker-%d", g))
	}
	wg.Wait()

	assert.Equal(t, goroutines*increments, counter)
}

func TestMutex_WithLockReleasesOnError(t *testing.T) {
	m := NewMutex()
	boom := fmt.Errorf("boom")

	err := m.WithLock(context.Background(), "a", func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "", m.Owner())
}

func TestMutex_WaiterGetsLockAfterRelease(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Acquire(context.Background(), "first"))

	acquired := make(chan error, 1)
	go func() {
		acquired <- m.Acquire(context.Background(), "second")
	}()

	select {
	case <-acquired:
		t.Fatal("second owner acquired a held mutex")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, m.Release("first"))
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired")
	}
	assert.Equal(t, "second", m.Owner())
	require.NoError(t, m.Release("second"))
}
