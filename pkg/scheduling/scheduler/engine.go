package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cctx "github.com/vnykmshr/cadence/pkg/common/context"
	cerrors "github.com/vnykmshr/cadence/pkg/common/errors"
	"github.com/vnykmshr/cadence/pkg/metrics"
)

// engine holds the bookkeeping shared by SingleWorker and Pool.
type engine struct {
	cfg Config
	q   *dispatchQueue
	log *zap.Logger
	rec *metrics.Recorder

	active    atomic.Int32
	submitted atomic.Int64
	runs      atomic.Int64
	failures  atomic.Int64
	cancelled atomic.Int64
}

func newEngine(cfg Config, kind string) *engine {
	return &engine{
		cfg: cfg,
		q:   newDispatchQueue(cfg.Clock),
		log: cfg.Logger.Named(kind).With(zap.String("scheduler", cfg.NamePrefix)),
		rec: cfg.Metrics.For(cfg.NamePrefix),
	}
}

func (e *engine) submit(task Task, spec Spec) (*Series, error) {
	if err := task.validate(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	s := newSeries(task, spec, e.q)
	deadline := e.cfg.Clock.Now().Add(spec.InitialDelay)
	if err := e.q.add(s, deadline); err != nil {
		return nil, err
	}

	e.submitted.Add(1)
	e.rec.Submitted()
	e.rec.Queued(e.q.Len())
	e.log.Debug("series submitted",
		zap.String("series", s.id),
		zap.String("task", task.ID),
		zap.Stringer("mode", spec.Mode),
		zap.Duration("initial_delay", spec.InitialDelay),
		zap.Duration("period", spec.Period),
	)
	return s, nil
}

func (e *engine) cancel(s *Series) {
	if s == nil || s.q != e.q {
		return
	}
	if !e.q.cancel(s) {
		return
	}
	e.countCancelled(1)
	e.rec.Queued(e.q.Len())
	e.log.Debug("series cancelled", zap.String("series", s.id), zap.String("task", s.task.ID))
}

// dispatch runs one popped series and records the outcome. It returns the
// *errors.TaskError when the body failed.
func (e *engine) dispatch(ctx context.Context, s *Series, planned time.Time, worker string) error {
	e.rec.Queued(e.q.Len())
	e.rec.Active(int(e.active.Add(1)))
	started := e.cfg.Clock.Now()

	err := e.execute(ctx, s)

	completed := e.cfg.Clock.Now()
	duration := completed.Sub(started)
	e.rec.Active(int(e.active.Add(-1)))
	e.rec.RunFinished(duration, err)

	runNumber := s.runs.Load() + 1
	if err != nil {
		err = &cerrors.TaskError{SeriesID: s.id, TaskID: s.task.ID, Run: runNumber, Err: err}
		e.failures.Add(1)
		e.q.retire(s, Failed, err)
	} else {
		s.runs.Add(1)
		e.runs.Add(1)
		if next, ok := s.spec.next(planned, completed); ok {
			if e.q.requeue(s, next) == cancelledByClose {
				e.countCancelled(1)
			}
		} else {
			e.q.retire(s, Completed, nil)
		}
	}
	e.rec.Queued(e.q.Len())

	if e.cfg.OnRunComplete != nil {
		e.runHook(Run{
			SeriesID: s.id,
			TaskID:   s.task.ID,
			Run:      runNumber,
			Planned:  planned,
			Started:  started,
			Duration: duration,
			Err:      err,
			Worker:   worker,
		})
	}
	return err
}

// runHook calls OnRunComplete. A panicking hook is logged and does not
// take the worker down.
func (e *engine) runHook(r Run) {
	defer func() {
		if p := recover(); p != nil {
			e.log.Error("run hook panicked",
				zap.String("series", r.SeriesID),
				zap.String("task", r.TaskID),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	e.cfg.OnRunComplete(r)
}

// execute calls the task body, converting a panic into an error.
func (e *engine) execute(ctx context.Context, s *Series) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}
	}()

	ctx, cancel := cctx.WithOptionalTimeout(ctx, e.cfg.TaskTimeout)
	defer cancel()
	return s.task.Fn(ctx)
}

// closeQueue stops dispatching and counts the queued series it cancelled.
func (e *engine) closeQueue() int {
	n := e.q.close(ErrSchedulerTerminated)
	e.countCancelled(n)
	e.rec.Queued(e.q.Len())
	return n
}

func (e *engine) countCancelled(n int) {
	if n <= 0 {
		return
	}
	e.cancelled.Add(int64(n))
	e.rec.CancelledN(n)
}

func (e *engine) stats() Stats {
	return Stats{
		ActiveWorkers: int(e.active.Load()),
		QueuedSeries:  e.q.Len(),
		Submitted:     e.submitted.Load(),
		Runs:          e.runs.Load(),
		Failures:      e.failures.Load(),
		Cancelled:     e.cancelled.Load(),
	}
}
