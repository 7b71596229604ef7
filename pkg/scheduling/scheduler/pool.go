package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vnykmshr/cadence/pkg/common/validation"
)

// Pool runs series on a fixed set of workers sharing one deadline queue.
//
// Workers pop the earliest due series under the queue lock and run its body
// outside it. A failed run ends only that series, in Failed; other series
// and workers carry on. When more series are due than there are workers,
// the later ones wait; equal deadlines are served in submission order.
type Pool struct {
	*engine

	ctx  context.Context
	stop context.CancelFunc

	workers  []*worker
	workerWg sync.WaitGroup

	shutdownOnce sync.Once
	done         chan struct{}
}

var _ Scheduler = (*Pool)(nil)

type worker struct {
	id   int
	name string
	pool *Pool

	mu     sync.Mutex
	series string
}

// NewPool creates and starts a pool with the given number of workers.
func NewPool(workers int) (*Pool, error) {
	if err := validation.ValidatePositive("scheduler", "workers", workers); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Workers = workers
	return NewPoolWithConfig(cfg)
}

// NewPoolWithConfig creates and starts a pool. A zero cfg.Workers means 2.
func NewPoolWithConfig(cfg Config) (*Pool, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		engine:  newEngine(cfg, "scheduler.pool"),
		ctx:     ctx,
		stop:    cancel,
		workers: make([]*worker, cfg.Workers),
		done:    make(chan struct{}),
	}

	for i := range p.workers {
		p.workers[i] = &worker{
			id:   i + 1,
			name: fmt.Sprintf("%s-%d-%d", cfg.NamePrefix, cfg.Workers, i+1),
			pool: p,
		}
	}

	p.workerWg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.run()
	}
	p.rec.WorkersAlive(len(p.workers))

	go func() {
		p.workerWg.Wait()
		p.rec.WorkersAlive(0)
		p.stop()
		close(p.done)
	}()

	return p, nil
}

// Submit schedules task. The first run is due at now + spec.InitialDelay.
func (p *Pool) Submit(task Task, spec Spec) (*Series, error) {
	return p.submit(task, spec)
}

// Cancel removes s from the queue. If s is running, it finishes the current
// run and is not rescheduled.
func (p *Pool) Cancel(s *Series) {
	p.cancel(s)
}

// Shutdown stops dispatching and ends queued series in Cancelled. With
// drain true it blocks until every running body has returned; with drain
// false it cancels the context passed to running bodies and returns
// immediately. Use Done to wait for the workers afterwards.
//
// A pool survives task failures, so Shutdown always returns nil.
func (p *Pool) Shutdown(drain bool) error {
	p.shutdownOnce.Do(func() {
		p.closeQueue()
		if !drain {
			p.stop()
		}
		p.log.Info("shutdown requested", zap.Bool("drain", drain), zap.Int("workers", len(p.workers)))
	})
	if drain {
		<-p.done
	}
	return nil
}

// Done is closed once every worker has exited.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stats returns a snapshot of the pool.
func (p *Pool) Stats() Stats {
	st := p.stats()
	select {
	case <-p.done:
		st.Terminated = true
	default:
		st.Workers = len(p.workers)
	}
	return st
}

// Pending lists queued series in dispatch order.
func (p *Pool) Pending() []PendingSeries {
	return p.q.snapshot()
}

// Workers lists each worker and the series it is running.
func (p *Pool) Workers() []WorkerInfo {
	out := make([]WorkerInfo, len(p.workers))
	for i, w := range p.workers {
		w.mu.Lock()
		out[i] = WorkerInfo{Name: w.name, SeriesID: w.series}
		w.mu.Unlock()
	}
	return out
}

func (w *worker) setSeries(id string) {
	w.mu.Lock()
	w.series = id
	w.mu.Unlock()
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	for {
		s, planned, ok := w.pool.q.take()
		if !ok {
			return
		}

		w.setSeries(s.id)
		err := w.pool.dispatch(w.pool.ctx, s, planned, w.name)
		w.setSeries("")

		if err != nil {
			w.pool.log.Warn("run failed, series stopped",
				zap.String("worker", w.name),
				zap.String("series", s.id),
				zap.String("task", s.task.ID),
				zap.Error(err),
			)
		}
	}
}
