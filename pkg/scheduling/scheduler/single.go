package scheduler

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SingleWorker runs every series on one goroutine, strictly in deadline
// order.
//
// A failed run is fatal to the whole scheduler: the failing series ends in
// Failed, the worker exits, every other queued series ends in Cancelled
// with ErrSchedulerTerminated, and Submit returns ErrSchedulerTerminated
// from then on. Shutdown reports the failure.
type SingleWorker struct {
	*engine
	name string

	ctx  context.Context
	stop context.CancelFunc

	mu           sync.Mutex
	cause        error
	shutdownOnce sync.Once
	done         chan struct{}
}

var _ Scheduler = (*SingleWorker)(nil)

// NewSingleWorker creates and starts a SingleWorker with default settings.
func NewSingleWorker() *SingleWorker {
	s, _ := NewSingleWorkerWithConfig(Config{})
	return s
}

// NewSingleWorkerWithConfig creates and starts a SingleWorker. cfg.Workers
// is ignored.
func NewSingleWorkerWithConfig(cfg Config) (*SingleWorker, error) {
	cfg.Workers = 1
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &SingleWorker{
		engine: newEngine(cfg, "scheduler.single"),
		name:   cfg.NamePrefix + "-1-1",
		ctx:    ctx,
		stop:   cancel,
		done:   make(chan struct{}),
	}
	w.rec.WorkersAlive(1)
	go w.run()
	return w, nil
}

// Submit schedules task. The first run is due at now + spec.InitialDelay.
func (w *SingleWorker) Submit(task Task, spec Spec) (*Series, error) {
	return w.submit(task, spec)
}

// Cancel removes s from the queue. If s is running, it finishes the current
// run and is not rescheduled.
func (w *SingleWorker) Cancel(s *Series) {
	w.cancel(s)
}

// Shutdown stops dispatching, waits for the running body to return and for
// the worker to exit. Queued series end in Cancelled. With drain false the
// context passed to the running body is cancelled as well.
//
// The returned error is the *errors.TaskError that killed the worker, if
// any.
func (w *SingleWorker) Shutdown(drain bool) error {
	w.shutdownOnce.Do(func() {
		w.closeQueue()
		if !drain {
			w.stop()
		}
		w.log.Info("shutdown requested", zap.Bool("drain", drain))
	})
	<-w.done
	w.stop()
	return w.Err()
}

// Terminated is closed once the worker goroutine has exited.
func (w *SingleWorker) Terminated() <-chan struct{} {
	return w.done
}

// Err returns the failure that terminated the worker, or nil.
func (w *SingleWorker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cause
}

// Stats returns a snapshot of the scheduler.
func (w *SingleWorker) Stats() Stats {
	st := w.stats()
	select {
	case <-w.done:
		st.Terminated = true
	default:
		st.Workers = 1
	}
	return st
}

// Pending lists queued series in dispatch order.
func (w *SingleWorker) Pending() []PendingSeries {
	return w.q.snapshot()
}

func (w *SingleWorker) run() {
	defer close(w.done)
	defer w.rec.WorkersAlive(0)

	for {
		s, planned, ok := w.q.take()
		if !ok {
			return
		}

		err := w.dispatch(w.ctx, s, planned, w.name)
		if err == nil {
			continue
		}

		w.mu.Lock()
		w.cause = err
		w.mu.Unlock()

		n := w.closeQueue()
		w.rec.WorkerTerminated()
		w.log.Error("worker terminated by task failure",
			zap.String("worker", w.name),
			zap.String("series", s.id),
			zap.String("task", s.task.ID),
			zap.Int("cancelled_series", n),
			zap.Error(err),
		)
		return
	}
}
