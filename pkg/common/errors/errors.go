package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the cadence library

var (
	// ErrSchedulerTerminated indicates that work was submitted to a scheduler
	// that has been shut down or whose worker died from a task failure.
	ErrSchedulerTerminated = errors.New("scheduler terminated")

	// ErrTaskFailed is matched by every *TaskError.
	ErrTaskFailed = errors.New("task failed")

	// ErrLockMisuse indicates a locking protocol violation by the caller.
	ErrLockMisuse = errors.New("lock misuse")

	// ErrLockNotHeld indicates a release by a caller that does not hold the lock.
	ErrLockNotHeld = fmt.Errorf("%w: lock not held by caller", ErrLockMisuse)

	// ErrReentrantAcquire indicates a second acquire by the current holder of a
	// non-reentrant lock.
	ErrReentrantAcquire = fmt.Errorf("%w: reentrant acquire", ErrLockMisuse)

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ValidationError describes a rejected parameter.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for module.field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// TaskError reports a failed run of a scheduled task.
type TaskError struct {
	SeriesID string
	TaskID   string
	Run      int64 // 1-based number of the failed run
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q (series %s) failed on run %d: %v", e.TaskID, e.SeriesID, e.Run, e.Err)
}

// Unwrap returns the error produced by the task body.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTaskFailed) true for any TaskError.
func (e *TaskError) Is(target error) bool {
	return target == ErrTaskFailed
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsTaskFailure reports whether err is or wraps a *TaskError.
func IsTaskFailure(err error) bool {
	return errors.Is(err, ErrTaskFailed)
}

// IsLockMisuse reports whether err signals a locking protocol violation.
func IsLockMisuse(err error) bool {
	return errors.Is(err, ErrLockMisuse)
}
