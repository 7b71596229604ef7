// Package validation provides common validation utilities for configuration
// parameters across the cadence library.
//
// Every helper returns a *errors.ValidationError so callers can match the
// failure with errors.IsValidationError or errors.Is(err, ErrInvalidConfiguration).
package validation
