package scheduler

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/vnykmshr/cadence/pkg/clock"
)

// deadlineQueue is a min-heap of series ordered by deadline, then by
// submission sequence.
type deadlineQueue []*Series

func (h deadlineQueue) Len() int { return len(h) }

func (h deadlineQueue) Less(i, j int) bool {
	if h[i].next.Equal(h[j].next) {
		return h[i].seq < h[j].seq
	}
	return h[i].next.Before(h[j].next)
}

func (h deadlineQueue) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineQueue) Push(x interface{}) {
	s := x.(*Series)
	s.index = len(*h)
	*h = append(*h, s)
}

func (h *deadlineQueue) Pop() interface{} {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	s.index = -1
	*h = old[:n-1]
	return s
}

// dispatchQueue is the deadline queue shared by a scheduler's workers.
// Every Series state transition happens under mu.
type dispatchQueue struct {
	clock clock.Clock

	mu      sync.Mutex
	heap    deadlineQueue
	seq     uint64
	running map[*Series]struct{}
	changed chan struct{}
	closed  bool
}

func newDispatchQueue(c clock.Clock) *dispatchQueue {
	return &dispatchQueue{
		clock:   c,
		running: make(map[*Series]struct{}),
		changed: make(chan struct{}),
	}
}

// signalLocked wakes every goroutine blocked in take.
func (q *dispatchQueue) signalLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// add enqueues a newly submitted series.
func (q *dispatchQueue) add(s *Series, deadline time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrSchedulerTerminated
	}
	q.seq++
	s.seq = q.seq
	s.next = deadline
	s.state.Store(int32(Pending))
	heap.Push(&q.heap, s)
	q.signalLocked()
	return nil
}

// take blocks until the earliest series is due and pops it, marking it
// Running. It returns ok=false once the queue is closed.
func (q *dispatchQueue) take() (s *Series, planned time.Time, ok bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, time.Time{}, false
		}

		changed := q.changed
		if len(q.heap) == 0 {
			q.mu.Unlock()
			<-changed
			continue
		}

		head := q.heap[0]
		wait := head.next.Sub(q.clock.Now())
		if wait <= 0 {
			heap.Pop(&q.heap)
			head.state.Store(int32(Running))
			q.running[head] = struct{}{}
			planned = head.next
			q.mu.Unlock()
			return head, planned, true
		}
		q.mu.Unlock()

		timer := q.clock.NewTimer(wait)
		select {
		case <-timer.C():
		case <-changed:
		}
		timer.Stop()
	}
}

// requeueOutcome tells the caller what requeue did with a series.
type requeueOutcome int

const (
	requeued requeueOutcome = iota
	// cancelledByCaller: Cancel was called while the series ran.
	cancelledByCaller
	// cancelledByClose: the queue closed while the series ran.
	cancelledByClose
)

// requeue schedules a running series for its next deadline. A series that
// was cancelled while running, or whose queue closed, is finished instead.
func (q *dispatchQueue) requeue(s *Series, deadline time.Time) requeueOutcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.running, s)
	switch {
	case s.cancelRequested:
		s.finish(Cancelled, nil)
		return cancelledByCaller
	case q.closed:
		s.finish(Cancelled, ErrSchedulerTerminated)
		return cancelledByClose
	}

	if deadline.Before(s.next) {
		deadline = s.next
	}
	s.next = deadline
	s.state.Store(int32(Pending))
	heap.Push(&q.heap, s)
	q.signalLocked()
	return requeued
}

// retire finishes a running series in state with cause err.
func (q *dispatchQueue) retire(s *Series, state State, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.running, s)
	if state == Completed && s.cancelRequested {
		state = Cancelled
	}
	s.finish(state, err)
}

// cancel removes a queued series or flags a running one so it is not
// requeued. It reports whether this call changed anything; cancelling a
// terminal or already cancelled series is a no-op.
func (q *dispatchQueue) cancel(s *Series) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if s.State().Terminal() || s.cancelRequested {
		return false
	}
	s.cancelRequested = true
	if s.index >= 0 {
		heap.Remove(&q.heap, s.index)
		s.finish(Cancelled, nil)
		q.signalLocked()
	}
	return true
}

// close stops dispatching. Queued series are finished as Cancelled with
// cause; running series are finished when their body returns. close
// returns the number of series it cancelled, or -1 if already closed.
func (q *dispatchQueue) close(cause error) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return -1
	}
	q.closed = true
	n := len(q.heap)
	for _, s := range q.heap {
		s.index = -1
		s.finish(Cancelled, cause)
	}
	q.heap = nil
	q.signalLocked()
	return n
}

// Len returns the number of queued series.
func (q *dispatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// snapshot lists queued series in dispatch order.
func (q *dispatchQueue) snapshot() []PendingSeries {
	q.mu.Lock()
	out := make([]PendingSeries, 0, len(q.heap))
	seqs := make(map[string]uint64, len(q.heap))
	for _, s := range q.heap {
		out = append(out, PendingSeries{
			ID:           s.id,
			TaskID:       s.task.ID,
			Mode:         s.spec.Mode,
			NextDeadline: s.next,
			RunCount:     s.runs.Load(),
		})
		seqs[s.id] = s.seq
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].NextDeadline.Equal(out[j].NextDeadline) {
			return seqs[out[i].ID] < seqs[out[j].ID]
		}
		return out[i].NextDeadline.Before(out[j].NextDeadline)
	})
	return out
}
