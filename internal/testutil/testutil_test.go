package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/cadence/pkg/clock"
)

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var counter int32
		go func() {
			time.Sleep(50 * time.Millisecond)
			atomic.StoreInt32(&counter, 1)
		}()

		Eventually(t, func() bool {
			return atomic.LoadInt32(&counter) == 1
		}, 200*time.Millisecond, 10*time.Millisecond)
	})
}

func TestWaitForInt32(t *testing.T) {
	var value int32

	go func() {
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt32(&value, 42)
	}()

	WaitForInt32(t, &value, 42, 200*time.Millisecond)
}

func TestWaitForInt64(t *testing.T) {
	var value int64

	go func() {
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt64(&value, 100)
	}()

	WaitForInt64(t, &value, 100, 200*time.Millisecond)
}

func TestMockClock_TimerFiresOnAdvance(t *testing.T) {
	mc := NewMockClock(time.Time{})
	timer := mc.NewTimer(time.Second)

	select {
	case <-timer.C():
		t.Fatal("timer fired before the clock moved")
	default:
	}

	mc.Advance(500 * time.Millisecond)
	AssertEqual(t, mc.PendingTimers(), 1)

	mc.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	AssertEqual(t, mc.PendingTimers(), 0)
	AssertEqual(t, timer.Stop(), false)
}

func TestMockClock_Stop(t *testing.T) {
	mc := NewMockClock(time.Unix(0, 0))
	timer := mc.NewTimer(time.Minute)

	AssertEqual(t, timer.Stop(), true)
	AssertEqual(t, mc.PendingTimers(), 0)
}

func TestMockClock_SleepUntil(t *testing.T) {
	mc := NewMockClock(time.Unix(0, 0))
	target := mc.Now().Add(time.Hour)

	done := make(chan error, 1)
	go func() { done <- clock.SleepUntil(context.Background(), mc, target) }()

	Eventually(t, func() bool { return mc.PendingTimers() == 1 }, time.Second, time.Millisecond)
	mc.Set(target)

	select {
	case err := <-done:
		AssertNoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SleepUntil did not return after the clock reached the target")
	}
}

func TestCallbackTracker(t *testing.T) {
	tracker := NewCallbackTracker()
	if tracker.Called() {
		t.Error("tracker should not be called initially")
	}

	tracker.Mark("first")
	tracker.Mark("second")
	AssertEqual(t, tracker.CallCount(), 2)
	AssertEqual(t, tracker.Value(), interface{}("second"))

	tracker.Reset()
	AssertEqual(t, tracker.Called(), false)
}
