package scheduler

import (
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/cadence/pkg/clock"
	cerrors "github.com/vnykmshr/cadence/pkg/common/errors"
	"github.com/vnykmshr/cadence/pkg/common/validation"
	"github.com/vnykmshr/cadence/pkg/metrics"
)

// ErrSchedulerTerminated is returned by Submit after Shutdown, or after a
// SingleWorker died from a task failure.
var ErrSchedulerTerminated = cerrors.ErrSchedulerTerminated

// DefaultNamePrefix names workers and labels metrics when Config.NamePrefix
// is empty.
const DefaultNamePrefix = "sched"

// Config holds scheduler configuration.
type Config struct {
	// Workers is the pool size. Ignored by SingleWorker. Default: 2.
	Workers int

	// NamePrefix names the scheduler's workers as <prefix>-<size>-<n> and
	// labels its metrics.
	NamePrefix string

	// TaskTimeout bounds the context passed to each run. Zero means no
	// timeout.
	TaskTimeout time.Duration

	// Clock defaults to clock.Real.
	Clock clock.Clock

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Registry

	// OnRunComplete is called after every run, on the worker goroutine,
	// once the series' next state has been recorded. A panic in the hook is
	// recovered and logged.
	OnRunComplete func(Run)
}

// DefaultConfig returns the configuration used by NewPool.
func DefaultConfig() Config {
	return Config{
		Workers:    2,
		NamePrefix: DefaultNamePrefix,
	}
}

func (c Config) withDefaults() Config {
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.NamePrefix == "" {
		c.NamePrefix = DefaultNamePrefix
	}
	c.Clock = clock.OrReal(c.Clock)
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

func (c Config) validate() error {
	if err := validation.ValidatePositive("scheduler", "workers", c.Workers); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("scheduler", "task timeout", c.TaskTimeout)
}

// Run describes one finished execution of a task body.
type Run struct {
	SeriesID string
	TaskID   string
	Run      int64 // 1-based run number within the series
	Planned  time.Time
	Started  time.Time
	Duration time.Duration
	Err      error // *errors.TaskError on failure
	Worker   string
}

// Stats is a point-in-time view of a scheduler.
type Stats struct {
	Workers       int
	ActiveWorkers int
	QueuedSeries  int
	Submitted     int64
	Runs          int64
	Failures      int64
	Cancelled     int64
	Terminated    bool
}

// PendingSeries describes a queued series.
type PendingSeries struct {
	ID           string
	TaskID       string
	Mode         Mode
	NextDeadline time.Time
	RunCount     int64
}

// WorkerInfo describes one pool worker. SeriesID is empty while idle.
type WorkerInfo struct {
	Name     string
	SeriesID string
}

// Scheduler is implemented by SingleWorker and Pool.
type Scheduler interface {
	// Submit schedules task according to spec and returns immediately.
	Submit(task Task, spec Spec) (*Series, error)

	// Cancel stops s before its next run. It is idempotent.
	Cancel(s *Series)

	// Shutdown stops accepting work; see the implementations for blocking
	// behavior.
	Shutdown(drain bool) error

	Stats() Stats
	Pending() []PendingSeries
}
