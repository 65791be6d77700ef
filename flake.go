// Package flake provides a distributed unique ID generator based on
// Twitter's Snowflake algorithm.
//
// # Overview
//
// flake generates 64-bit unique IDs that are:
//   - Sortable by time (IDs generated later are numerically larger)
//   - Globally unique across distributed systems (with unique machine IDs)
//   - Generated without coordination between nodes
//
// # ID Structure (64 bits)
//
//	┌─────────────────────────────────────────────┬──────────────┬──────────────┐
//	│       41 bits: Timestamp (milliseconds)     │  10 bits:    │  12 bits:    │
//	│       Allows ~69 years from the epoch       │  Machine ID  │  Sequence    │
//	│                                             │  (0-1023)    │  (0-4095)    │
//	└─────────────────────────────────────────────┴──────────────┴──────────────┘
//
// # Clock Handling
//
// Each Next call reads the wall clock once, under the generator's mutex. A
// reading below the last observed one fails immediately with a ClockError
// carrying the drift; the generator never waits out a rollback on its own,
// because silently absorbing one would hide a misbehaving clock source from
// the operator. Once the clock catches up, generation resumes.
//
// When one millisecond's 4096 sequence values are exhausted, Next waits for
// the next millisecond with a busy-loop that yields to the scheduler. The
// wait is bounded by slightly more than one millisecond and is never
// surfaced as an error. The spin (versus a sleep-and-recheck loop) trades a
// little CPU during exhaustion for no added latency floor; sustained
// exhaustion means the caller is over this generator's 4.096M IDs/sec
// capacity and needs more machine IDs, not a different wait strategy.
//
// # Usage
//
//	// Simple usage with the default generator
//	id, err := flake.Next()
//
//	// Custom epoch and machine ID for distributed systems
//	gen, err := flake.New(flake.DefaultEpoch, machineID)
//	id, err := gen.Next()
package flake

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// DefaultEpoch (January 1, 2024 00:00:00 UTC) is the epoch used by the
// default generator and the CLI. A recent epoch maximizes the usable
// lifetime; systems with their own epoch pass it to New instead.
var DefaultEpoch = time.UnixMilli(1704067200000).UTC()

// Config holds the immutable configuration of a Generator.
type Config struct {
	// MachineID uniquely identifies this generator instance within a
	// fleet. Valid range 0-1023. Uniqueness across concurrently running
	// instances is the deployment's responsibility (configuration or a
	// coordination service); the generator does not enforce it.
	MachineID int64

	// Epoch is the absolute instant that timestamp-field zero refers to.
	// Must not be in the future at construction time. IDs can be
	// generated until Horizon(Epoch), about 69 years later.
	Epoch time.Time

	// Clock overrides the time source. Nil selects the wall clock;
	// tests substitute a manual clock to simulate jumps and rollbacks.
	Clock Clock
}

// Validate checks the configuration, returning a ConfigError describing
// the first offending field.
func (c *Config) Validate() error {
	if c.MachineID < 0 || c.MachineID > MaxMachineID {
		return newConfigError(
			"MachineID",
			fmt.Sprintf("%d", c.MachineID),
			"out of range",
			fmt.Sprintf("must be between 0 and %d", MaxMachineID),
		)
	}
	if c.Epoch.IsZero() {
		return newConfigError(
			"Epoch",
			"0",
			"not set",
			"an absolute origin instant is required",
		)
	}
	if c.Epoch.After(time.Now()) {
		return newConfigError(
			"Epoch",
			c.Epoch.Format(time.RFC3339),
			"in the future",
			"must not be after the construction time",
		)
	}
	return nil
}

// Generator produces flake IDs for one machine ID.
//
// All state lives behind a single mutex: each Next call is one critical
// section covering the clock read, the state transition, and the bit
// packing, so no caller ever observes a partially updated generator. The
// lock is held sub-millisecond except while waiting out sequence
// exhaustion.
//
// A Generator must not be copied after first use.
type Generator struct {
	mu            sync.Mutex
	clock         Clock
	epoch         time.Time
	machineID     int64
	sequence      int64
	lastTimestamp int64

	// Atomic counters, separated from the hot fields; see metrics.go.
	counters counters
}

// New creates a Generator with the given epoch and machine ID.
//
// Returns an error wrapping ErrInvalidConfig when machineID is outside
// [0, 1023] or epoch is in the future.
func New(epoch time.Time, machineID int64) (*Generator, error) {
	return NewWithConfig(Config{MachineID: machineID, Epoch: epoch})
}

// NewWithConfig creates a Generator from a full Config, including an
// optional replacement Clock.
//
// The sequence counter starts at its maximum value and lastTimestamp at -1,
// so the first generated ID naturally begins at sequence 0 in whichever
// millisecond the first call lands.
func NewWithConfig(cfg Config) (*Generator, error) {
	if err := (&cfg).Validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = newWallClock(cfg.Epoch)
	}
	return &Generator{
		clock:         clock,
		epoch:         cfg.Epoch,
		machineID:     cfg.MachineID,
		sequence:      MaxSequence,
		lastTimestamp: -1,
	}, nil
}

// Next generates a new ID.
//
// Errors:
//   - ClockError (wraps ErrClockRolledBack) when the clock reads below the
//     last observed millisecond. State is unchanged; the same call made
//     after the clock catches up succeeds.
//   - RangeError (wraps ErrTimeRangeExceeded) when elapsed time no longer
//     fits in the 41-bit timestamp field. State is unchanged; the
//     generator is permanently exhausted at this epoch.
//
// Safe for concurrent use; calls are totally ordered by lock acquisition
// and the returned IDs are numerically non-decreasing in that order.
func (g *Generator) Next() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next()
}

// MustNext generates an ID and panics on error. Only for callers that
// treat generation failure as unrecoverable.
func (g *Generator) MustNext() ID {
	id, err := g.Next()
	if err != nil {
		panic(err)
	}
	return id
}

// NextBatch generates count IDs under a single lock acquisition.
//
// Faster than calling Next in a loop for large counts because the mutex is
// taken once. If generation fails partway (clock rollback, range
// exhaustion), NextBatch returns the IDs produced so far together with the
// error; the partial batch is still valid and unique.
func (g *Generator) NextBatch(count int) ([]ID, error) {
	if count <= 0 {
		return []ID{}, nil
	}

	ids := make([]ID, 0, count)

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < count; i++ {
		id, err := g.next()
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// next runs one generation step. Caller holds g.mu.
//
// State is committed only on the success path, so a failing call leaves
// lastTimestamp and sequence exactly as they were.
func (g *Generator) next() (ID, error) {
	now := g.clock.ElapsedMillis()

	if now < g.lastTimestamp {
		g.counters.clockRollbacks.Add(1)
		return 0, &ClockError{
			Now:       now,
			Last:      g.lastTimestamp,
			Drift:     g.lastTimestamp - now,
			MachineID: g.machineID,
		}
	}

	sequence := int64(0)
	if now == g.lastTimestamp {
		sequence = (g.sequence + 1) & MaxSequence
		if sequence == 0 {
			// All 4096 IDs of this millisecond issued; wait for the
			// clock to reach the next one.
			g.counters.sequenceWaits.Add(1)
			now = g.waitForMilli(g.lastTimestamp + 1)
		}
	}

	if now > MaxTimestamp {
		return 0, &RangeError{Timestamp: now, MachineID: g.machineID}
	}

	g.lastTimestamp = now
	g.sequence = sequence
	g.counters.generated.Add(1)

	return pack(now, g.machineID, sequence), nil
}

// waitForMilli busy-waits until the clock reads at least target, yielding
// to the scheduler between reads so other goroutines keep running while
// the lock is held. Returns the first reading >= target, which may be
// later than target if the clock jumped.
func (g *Generator) waitForMilli(target int64) int64 {
	start := time.Now()
	for {
		now := g.clock.ElapsedMillis()
		if now >= target {
			g.counters.waitMicros.Add(time.Since(start).Microseconds())
			return now
		}
		runtime.Gosched()
	}
}

// MachineID returns the generator's machine ID. Immutable after creation.
func (g *Generator) MachineID() int64 {
	return g.machineID
}

// Epoch returns the generator's epoch. Immutable after creation.
func (g *Generator) Epoch() time.Time {
	return g.epoch
}

// Default generator (DefaultEpoch, machine ID 0) backing the package-level
// functions. Initialized lazily so importing the package cannot panic and
// construction errors surface to the caller.
var (
	defaultGenerator     *Generator
	defaultGeneratorOnce sync.Once
	defaultGeneratorErr  error
)

func initDefaultGenerator() {
	defaultGenerator, defaultGeneratorErr = New(DefaultEpoch, 0)
}

// Next generates an ID from the default generator (machine ID 0). Suitable
// for single-node deployments; distributed systems should construct their
// own Generator with a unique machine ID.
func Next() (ID, error) {
	defaultGeneratorOnce.Do(initDefaultGenerator)
	if defaultGeneratorErr != nil {
		return 0, defaultGeneratorErr
	}
	return defaultGenerator.Next()
}

// MustNext generates an ID from the default generator and panics on error.
func MustNext() ID {
	id, err := Next()
	if err != nil {
		panic(err)
	}
	return id
}
