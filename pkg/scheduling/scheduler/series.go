package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Series.
type State int32

const (
	Pending State = iota
	Running
	Cancelled
	Failed
	Completed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further runs can happen in this state.
func (s State) Terminal() bool {
	return s == Cancelled || s == Failed || s == Completed
}

// Series is the handle for a task submitted with a Spec.
//
// All methods are safe for concurrent use. State and RunCount are
// snapshots; Done is closed once the series reaches a terminal state.
type Series struct {
	id   string
	task Task
	spec Spec
	q    *dispatchQueue

	state atomic.Int32
	runs  atomic.Int64

	// guarded by q.mu
	next            time.Time
	seq             uint64
	index           int
	cancelRequested bool

	errMu sync.Mutex
	err   error

	once sync.Once
	done chan struct{}
}

func newSeries(task Task, spec Spec, q *dispatchQueue) *Series {
	return &Series{
		id:    uuid.NewString(),
		task:  task,
		spec:  spec,
		q:     q,
		index: -1,
		done:  make(chan struct{}),
	}
}

// ID returns the series identifier.
func (s *Series) ID() string { return s.id }

// Task returns the submitted task.
func (s *Series) Task() Task { return s.task }

// Spec returns the submitted schedule.
func (s *Series) Spec() Spec { return s.spec }

// State returns the current state.
func (s *Series) State() State { return State(s.state.Load()) }

// RunCount returns the number of successful runs.
func (s *Series) RunCount() int64 { return s.runs.Load() }

// Done is closed when the series reaches a terminal state.
func (s *Series) Done() <-chan struct{} { return s.done }

// Err returns why the series stopped: a *errors.TaskError for Failed,
// errors.ErrSchedulerTerminated when the scheduler took it down, and nil
// otherwise.
func (s *Series) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// finish moves the series to a terminal state once. Later calls are no-ops.
func (s *Series) finish(state State, err error) bool {
	finished := false
	s.once.Do(func() {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
		s.state.Store(int32(state))
		close(s.done)
		finished = true
	})
	return finished
}
