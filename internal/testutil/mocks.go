package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/vnykmshr/cadence/pkg/clock"
)

// MockClock implements clock.Clock with controllable time.
// Timers fire only when Advance or Set moves the clock past their deadline.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTimer registers a timer that fires when the clock reaches now+d.
func (m *MockClock) NewTimer(d time.Duration) clock.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &mockTimer{clock: m, at: m.now.Add(d), ch: make(chan time.Time, 1)}
	if d <= 0 {
		t.ch <- m.now
		t.fired = true
		return t
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.fireLocked()
	m.mu.Unlock()
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.fireLocked()
	m.mu.Unlock()
}

// PendingTimers returns the number of timers that have not fired or stopped.
func (m *MockClock) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *MockClock) fireLocked() {
	sort.Slice(m.timers, func(i, j int) bool { return m.timers[i].at.Before(m.timers[j].at) })
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.at.After(m.now) {
			t.fired = true
			t.ch <- m.now
			continue
		}
		kept = append(kept, t)
	}
	m.timers = kept
}

func (m *MockClock) remove(t *mockTimer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.fired {
		return false
	}
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			t.fired = true
			return true
		}
	}
	return false
}

type mockTimer struct {
	clock *MockClock
	at    time.Time
	ch    chan time.Time
	fired bool // guarded by clock.mu
}

func (t *mockTimer) C() <-chan time.Time { return t.ch }
func (t *mockTimer) Stop() bool          { return t.clock.remove(t) }

// CallbackTracker records invocations of a callback.
type CallbackTracker struct {
	mu    sync.Mutex
	count int
	value interface{}
}

// NewCallbackTracker creates an empty tracker.
func NewCallbackTracker() *CallbackTracker {
	return &CallbackTracker{}
}

// Mark records a call, optionally with a value.
func (c *CallbackTracker) Mark(v ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if len(v) > 0 {
		c.value = v[0]
	}
}

// Called reports whether Mark was called.
func (c *CallbackTracker) Called() bool { return c.CallCount() > 0 }

// CallCount returns the number of Mark calls.
func (c *CallbackTracker) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Value returns the last recorded value.
func (c *CallbackTracker) Value() interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Reset clears all recorded calls.
func (c *CallbackTracker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = 0
	c.value = nil
}
