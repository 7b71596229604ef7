package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/vnykmshr/cadence/pkg/common/validation"
)

// TaskFunc is the body of a scheduled task. A non-nil error or a panic
// marks the run as failed.
type TaskFunc func(ctx context.Context) error

// Task is a named unit of work. It is a plain value; submitting the same
// Task twice creates two independent series.
type Task struct {
	ID string
	Fn TaskFunc
}

// NewTask creates a Task.
func NewTask(id string, fn TaskFunc) Task {
	return Task{ID: id, Fn: fn}
}

func (t Task) validate() error {
	if err := validation.ValidateNotEmpty("scheduler", "task id", t.ID); err != nil {
		return err
	}
	if t.Fn == nil {
		return validation.ValidateNotNil("scheduler", "task fn", nil)
	}
	return nil
}

// Mode selects how a series computes its next deadline.
type Mode int

const (
	// OneShot runs the task once after the initial delay.
	OneShot Mode = iota
	// FixedRate plans run k at start + InitialDelay + k*Period. Overruns are
	// caught up with back-to-back runs; no deadline is ever skipped.
	FixedRate
	// FixedDelay starts each run Period after the previous run completed.
	FixedDelay
)

func (m Mode) String() string {
	switch m {
	case OneShot:
		return "one-shot"
	case FixedRate:
		return "fixed-rate"
	case FixedDelay:
		return "fixed-delay"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Spec describes when a series runs.
type Spec struct {
	Mode         Mode
	InitialDelay time.Duration
	Period       time.Duration // ignored for OneShot
}

// Once returns a Spec that runs a single time after delay.
func Once(delay time.Duration) Spec {
	return Spec{Mode: OneShot, InitialDelay: delay}
}

// AtFixedRate returns a fixed-rate Spec.
func AtFixedRate(initialDelay, period time.Duration) Spec {
	return Spec{Mode: FixedRate, InitialDelay: initialDelay, Period: period}
}

// WithFixedDelay returns a fixed-delay Spec.
func WithFixedDelay(initialDelay, period time.Duration) Spec {
	return Spec{Mode: FixedDelay, InitialDelay: initialDelay, Period: period}
}

// Validate checks the delay and period for the spec's mode.
func (s Spec) Validate() error {
	if err := validation.ValidateNonNegativeDuration("scheduler", "initial delay", s.InitialDelay); err != nil {
		return err
	}
	switch s.Mode {
	case OneShot:
		return nil
	case FixedRate, FixedDelay:
		return validation.ValidatePositiveDuration("scheduler", "period", s.Period)
	default:
		return validation.ValidateOneOf("scheduler", "mode", s.Mode.String(),
			OneShot.String(), FixedRate.String(), FixedDelay.String())
	}
}

// next returns the deadline following a successful run that was planned
// for planned and finished at completed. ok is false for OneShot.
func (s Spec) next(planned, completed time.Time) (deadline time.Time, ok bool) {
	switch s.Mode {
	case FixedRate:
		return planned.Add(s.Period), true
	case FixedDelay:
		return completed.Add(s.Period), true
	default:
		return time.Time{}, false
	}
}
