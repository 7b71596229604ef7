package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/cadence/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("pool", "workers", tt.value)
			checkResult(t, err, tt.wantError)
		})
	}
}

func TestValidateDurations(t *testing.T) {
	tests := []struct {
		name      string
		fn        func(string, string, time.Duration) error
		value     time.Duration
		wantError bool
	}{
		{"positive period", ValidatePositiveDuration, time.Second, false},
		{"zero period", ValidatePositiveDuration, 0, true},
		{"negative period", ValidatePositiveDuration, -time.Millisecond, true},
		{"zero delay", ValidateNonNegativeDuration, 0, false},
		{"positive delay", ValidateNonNegativeDuration, time.Minute, false},
		{"negative delay", ValidateNonNegativeDuration, -time.Nanosecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResult(t, tt.fn("scheduler", "duration", tt.value), tt.wantError)
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	checkResult(t, ValidateNotNil("scheduler", "task", nil), true)
	checkResult(t, ValidateNotNil("scheduler", "task", struct{}{}), false)
}

func TestValidateNotEmpty(t *testing.T) {
	checkResult(t, ValidateNotEmpty("locks", "owner", ""), true)
	checkResult(t, ValidateNotEmpty("locks", "owner", "window-1"), false)
}

func TestValidateOneOf(t *testing.T) {
	checkResult(t, ValidateOneOf("harness", "guard", "write", "none", "mutex", "read", "write"), false)

	err := ValidateOneOf("harness", "guard", "spin", "none", "mutex")
	checkResult(t, err, true)
	if !strings.Contains(err.Error(), `expected one of "none", "mutex"`) {
		t.Errorf("hint missing allowed values: %v", err)
	}
}

func checkResult(t *testing.T, err error, wantError bool) {
	t.Helper()
	if wantError {
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.IsValidationError(err) {
			t.Fatalf("expected ValidationError, got %T", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
