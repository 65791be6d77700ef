package flake

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestClockErrorMessage(t *testing.T) {
	err := &ClockError{Now: 95, Last: 100, Drift: 5, MachineID: 42}

	msg := err.Error()
	if !strings.Contains(msg, "clock rolled back") {
		t.Errorf("message should name the condition, got: %s", msg)
	}
	if !strings.Contains(msg, "drift=5ms") {
		t.Errorf("message should contain the drift, got: %s", msg)
	}
	if !strings.Contains(msg, "machine=42") {
		t.Errorf("message should contain the machine ID, got: %s", msg)
	}
}

func TestClockErrorUnwrap(t *testing.T) {
	err := &ClockError{Now: 95, Last: 100, Drift: 5, MachineID: 42}

	if !errors.Is(err, ErrClockRolledBack) {
		t.Error("ClockError should unwrap to ErrClockRolledBack")
	}

	wrapped := fmt.Errorf("generating order ID: %w", err)
	if !errors.Is(wrapped, ErrClockRolledBack) {
		t.Error("wrapped ClockError should still match ErrClockRolledBack")
	}
	if _, ok := AsClockError(wrapped); !ok {
		t.Error("AsClockError should find a wrapped ClockError")
	}
}

func TestClockErrorDriftDuration(t *testing.T) {
	err := &ClockError{Now: 95, Last: 100, Drift: 5, MachineID: 42}

	if got, want := err.DriftDuration(), 5*time.Millisecond; got != want {
		t.Errorf("DriftDuration() = %v, want %v", got, want)
	}
}

func TestConfigError(t *testing.T) {
	err := newConfigError("MachineID", "1024", "out of range", "must be between 0 and 1023")

	msg := err.Error()
	for _, part := range []string{"MachineID", "1024", "out of range", "0 and 1023"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message should contain %q, got: %s", part, msg)
		}
	}

	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("ConfigError should unwrap to ErrInvalidConfig")
	}
	if _, ok := AsConfigError(err); !ok {
		t.Error("AsConfigError should match a ConfigError")
	}
}

func TestRangeError(t *testing.T) {
	err := &RangeError{Timestamp: MaxTimestamp + 1, MachineID: 9}

	msg := err.Error()
	if !strings.Contains(msg, "time range exceeded") {
		t.Errorf("message should name the condition, got: %s", msg)
	}
	if !strings.Contains(msg, "machine=9") {
		t.Errorf("message should contain the machine ID, got: %s", msg)
	}

	if !errors.Is(err, ErrTimeRangeExceeded) {
		t.Error("RangeError should unwrap to ErrTimeRangeExceeded")
	}
	if _, ok := AsRangeError(err); !ok {
		t.Error("AsRangeError should match a RangeError")
	}
}

func TestErrorAccessorMismatches(t *testing.T) {
	plain := errors.New("unrelated")

	if _, ok := AsClockError(plain); ok {
		t.Error("AsClockError should not match an unrelated error")
	}
	if _, ok := AsConfigError(plain); ok {
		t.Error("AsConfigError should not match an unrelated error")
	}
	if _, ok := AsRangeError(plain); ok {
		t.Error("AsRangeError should not match an unrelated error")
	}
	if _, ok := AsClockError(nil); ok {
		t.Error("AsClockError(nil) should not match")
	}
}
