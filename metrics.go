package flake

import (
	"sync/atomic"
)

// Metrics is a consistent snapshot of a generator's counters.
//
// All counters increase monotonically (until ResetMetrics) and are
// maintained with atomic operations, so reading them never contends with
// ID generation.
type Metrics struct {
	// Generated is the total number of IDs successfully generated.
	Generated int64

	// ClockRollbacks is the number of calls that failed with a
	// ClockError. No ID was generated on those calls.
	ClockRollbacks int64

	// SequenceWaits is the number of times a millisecond's sequence
	// capacity was exhausted and the generator waited for the next one.
	SequenceWaits int64

	// WaitMicros is the cumulative time spent in those waits, in
	// microseconds.
	WaitMicros int64
}

// counters holds the generator's atomic counters. They are grouped in
// their own struct so Snapshot can read them without taking the
// generator's mutex.
type counters struct {
	generated      atomic.Int64
	clockRollbacks atomic.Int64
	sequenceWaits  atomic.Int64
	waitMicros     atomic.Int64
}

// Snapshot returns the current metrics. Lock-free; safe to call from a
// monitoring goroutine while IDs are being generated.
func (g *Generator) Snapshot() Metrics {
	return Metrics{
		Generated:      g.counters.generated.Load(),
		ClockRollbacks: g.counters.clockRollbacks.Load(),
		SequenceWaits:  g.counters.sequenceWaits.Load(),
		WaitMicros:     g.counters.waitMicros.Load(),
	}
}

// ResetMetrics zeroes all counters. Primarily for tests; production
// monitoring expects monotonic counters for rate calculations.
func (g *Generator) ResetMetrics() {
	g.counters.generated.Store(0)
	g.counters.clockRollbacks.Store(0)
	g.counters.sequenceWaits.Store(0)
	g.counters.waitMicros.Store(0)
}
