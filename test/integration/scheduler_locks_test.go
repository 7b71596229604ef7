// Package integration contains integration tests that verify cross-package functionality.
// These tests ensure that the schedulers and the lock primitives work together
// in realistic scenarios.
package integration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/cadence/internal/testutil"
	"github.com/vnykmshr/cadence/pkg/locks"
	"github.com/vnykmshr/cadence/pkg/scheduling/scheduler"
)

// TestPoolWindowsSellUnderMutex runs each ticket window as a fixed-delay
// series on a pool. Every run sells at most one ticket under a shared
// Mutex, so the stock is never oversold.
func TestPoolWindowsSellUnderMutex(t *testing.T) {
	const tickets = 50

	pool, err := scheduler.NewPool(3)
	testutil.AssertNoError(t, err)

	var (
		lock      locks.Mutex
		remaining = int64(tickets)
		soldMu    sync.Mutex
		sold      = make(map[int64]string)
		dupes     int32
	)

	window := func(name string) scheduler.TaskFunc {
		return func(ctx context.Context) error {
			return lock.WithLock(ctx, name, func() error {
				if remaining <= 0 {
					return nil
				}
				ticket := remaining
				time.Sleep(100 * time.Microsecond)
				remaining = ticket - 1

				soldMu.Lock()
				if _, ok := sold[ticket]; ok {
					atomic.AddInt32(&dupes, 1)
				}
				sold[ticket] = name
				soldMu.Unlock()
				return nil
			})
		}
	}

	var series []*scheduler.Series
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("window-%d", i)
		s, err := pool.Submit(scheduler.NewTask(name, window(name)), scheduler.WithFixedDelay(0, time.Millisecond))
		testutil.AssertNoError(t, err)
		series = append(series, s)
	}

	testutil.Eventually(t, func() bool {
		soldMu.Lock()
		defer soldMu.Unlock()
		return len(sold) == tickets
	}, 5*time.Second, 5*time.Millisecond)

	for _, s := range series {
		pool.Cancel(s)
	}
	testutil.AssertNoError(t, pool.Shutdown(true))

	for _, s := range series {
		testutil.AssertEqual(t, s.State(), scheduler.Cancelled)
	}
	testutil.AssertEqual(t, atomic.LoadInt32(&dupes), int32(0))
	testutil.AssertEqual(t, lock.Owner(), "")

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, lock.WithLock(ctx, "audit", func() error {
		testutil.AssertEqual(t, remaining, int64(0))
		return nil
	}))
}

// TestSingleWorkerWriterPoolReaders alternates a shared record from a
// single-worker series while pool series read it under the same RWMutex.
// No reader may observe a half-written pair.
func TestSingleWorkerWriterPoolReaders(t *testing.T) {
	type record struct{ name, sex string }
	people := []record{{"小蓝", "男"}, {"小紅", "女"}}

	var (
		rw    locks.RWMutex
		cur   = people[0]
		torn  int32
		reads int64
	)

	writer := scheduler.NewSingleWorker()
	var turn int64
	ws, err := writer.Submit(scheduler.NewTask("writer", func(ctx context.Context) error {
		next := people[atomic.AddInt64(&turn, 1)%2]
		return rw.WithWrite(ctx, "writer", func() error {
			cur.name = next.name
			time.Sleep(50 * time.Microsecond)
			cur.sex = next.sex
			return nil
		})
	}), scheduler.AtFixedRate(0, time.Millisecond))
	testutil.AssertNoError(t, err)

	readers, err := scheduler.NewPool(2)
	testutil.AssertNoError(t, err)
	for i := 1; i <= 2; i++ {
		owner := fmt.Sprintf("reader-%d", i)
		_, err := readers.Submit(scheduler.NewTask(owner, func(ctx context.Context) error {
			return rw.WithRead(ctx, owner, func() error {
				got := cur
				if got != people[0] && got != people[1] {
					atomic.AddInt32(&torn, 1)
				}
				atomic.AddInt64(&reads, 1)
				return nil
			})
		}), scheduler.WithFixedDelay(0, time.Millisecond))
		testutil.AssertNoError(t, err)
	}

	testutil.Eventually(t, func() bool {
		return atomic.LoadInt64(&reads) >= 100 && ws.RunCount() >= 20
	}, 5*time.Second, 5*time.Millisecond)

	testutil.AssertNoError(t, writer.Shutdown(true))
	testutil.AssertNoError(t, readers.Shutdown(true))

	testutil.AssertEqual(t, atomic.LoadInt32(&torn), int32(0))
	testutil.AssertEqual(t, rw.State(), locks.RWState{})
}
