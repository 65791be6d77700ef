// Package flake - errors.go provides the error surface of the generator.
//
// Every failure mode has a sentinel for errors.Is checks and a structured
// type for errors.As, carrying the context (drift, field, timestamp) a
// caller needs to decide between waiting, alarming, and failing the
// surrounding operation. The generator itself never logs or retries.

package flake

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned (possibly wrapped) by the generator.
var (
	// ErrInvalidConfig is returned at construction when the machine ID is
	// out of range or the epoch is unusable. Not retryable; fix the
	// configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClockRolledBack is returned when the wall clock regresses below
	// the last observed reading. The generator never retries this
	// internally: an automatic retry would mask a misbehaving clock
	// source. The caller chooses to wait, alarm, or fail.
	ErrClockRolledBack = errors.New("clock rolled back")

	// ErrTimeRangeExceeded is returned when elapsed time since the epoch
	// no longer fits in the 41-bit timestamp field. Fatal for this
	// generator at this epoch; reconstruct with a later epoch.
	ErrTimeRangeExceeded = errors.New("epoch time range exceeded")
)

// ClockError reports a wall-clock regression with the readings involved.
//
// Example:
//
//	if clockErr, ok := flake.AsClockError(err); ok {
//	    log.Printf("clock rolled back %dms on machine %d",
//	        clockErr.Drift, clockErr.MachineID)
//	}
type ClockError struct {
	// Now is the reading taken on the failing call, in milliseconds
	// since the epoch.
	Now int64

	// Last is the highest reading previously observed.
	Last int64

	// Drift is Last - Now, the size of the regression in milliseconds.
	// Always positive.
	Drift int64

	// MachineID identifies the generator that observed the rollback.
	MachineID int64
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("clock rolled back: drift=%dms now=%d last=%d machine=%d",
		e.Drift, e.Now, e.Last, e.MachineID)
}

// Unwrap makes errors.Is(err, ErrClockRolledBack) work.
func (e *ClockError) Unwrap() error {
	return ErrClockRolledBack
}

// DriftDuration returns the regression as a time.Duration.
func (e *ClockError) DriftDuration() time.Duration {
	return time.Duration(e.Drift) * time.Millisecond
}

// ConfigError reports which configuration field failed validation and why.
type ConfigError struct {
	// Field is the name of the offending configuration field.
	Field string

	// Value is the rejected value, formatted for logging.
	Value string

	// Reason is a short explanation of the failure.
	Reason string

	// Constraint describes the valid range, e.g. "must be between 0 and 1023".
	Constraint string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s (%s) - %s",
		e.Field, e.Value, e.Reason, e.Constraint)
}

// Unwrap makes errors.Is(err, ErrInvalidConfig) work.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// RangeError reports that the epoch's usable horizon has been exhausted.
type RangeError struct {
	// Timestamp is the elapsed-millisecond value that no longer fits in
	// the timestamp field.
	Timestamp int64

	// MachineID identifies the exhausted generator.
	MachineID int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("epoch time range exceeded: timestamp=%d max=%d machine=%d",
		e.Timestamp, MaxTimestamp, e.MachineID)
}

// Unwrap makes errors.Is(err, ErrTimeRangeExceeded) work.
func (e *RangeError) Unwrap() error {
	return ErrTimeRangeExceeded
}

// AsClockError extracts a ClockError from an error chain.
func AsClockError(err error) (*ClockError, bool) {
	var clockErr *ClockError
	if errors.As(err, &clockErr) {
		return clockErr, true
	}
	return nil, false
}

// AsConfigError extracts a ConfigError from an error chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// AsRangeError extracts a RangeError from an error chain.
func AsRangeError(err error) (*RangeError, bool) {
	var rangeErr *RangeError
	if errors.As(err, &rangeErr) {
		return rangeErr, true
	}
	return nil, false
}

func newConfigError(field, value, reason, constraint string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Reason:     reason,
		Constraint: constraint,
	}
}
