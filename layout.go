// Package flake - layout.go defines the fixed bit layout of a flake ID.
//
// The layout is part of the ID contract: every ID this package produces or
// parses uses the same 1+41+10+12 split. Changing it would make IDs from
// different deployments incompatible, so unlike the machine ID or epoch it
// is not configurable.

package flake

import (
	"time"
)

// Bit allocation within the 64-bit ID, most significant bit first:
//
//	┌──────┬───────────────────────────────┬──────────────┬──────────────┐
//	│ sign │  41 bits: timestamp           │  10 bits:    │  12 bits:    │
//	│ (0)  │  (ms since the custom epoch)  │  machine ID  │  sequence    │
//	└──────┴───────────────────────────────┴──────────────┴──────────────┘
const (
	// TimestampBits is the width of the timestamp field. 41 bits of
	// milliseconds bound the generator's usable lifetime to roughly 69
	// years from its epoch.
	TimestampBits = 41

	// MachineIDBits is the width of the machine ID field (1024 machines).
	MachineIDBits = 10

	// SequenceBits is the width of the per-millisecond sequence counter
	// (4096 IDs per machine per millisecond).
	SequenceBits = 12

	// MaxTimestamp is the largest elapsed-millisecond value that fits in
	// the timestamp field.
	MaxTimestamp int64 = 1<<TimestampBits - 1

	// MaxMachineID is the largest valid machine ID (1023).
	MaxMachineID int64 = 1<<MachineIDBits - 1

	// MaxSequence is the largest sequence value within one millisecond (4095).
	MaxSequence int64 = 1<<SequenceBits - 1

	// TimestampShift positions the timestamp above the machine ID and
	// sequence fields.
	TimestampShift = MachineIDBits + SequenceBits // 22

	// MachineIDShift positions the machine ID above the sequence field.
	MachineIDShift = SequenceBits // 12
)

// Lifespan is the usable time range of any epoch: the duration until the
// timestamp field overflows.
const Lifespan = time.Duration(MaxTimestamp) * time.Millisecond

// Horizon returns the last instant at which a generator with the given
// epoch can still produce IDs. A call after this instant fails with
// ErrTimeRangeExceeded.
func Horizon(epoch time.Time) time.Time {
	return epoch.Add(Lifespan)
}

// pack composes an ID from its three fields. The caller guarantees the
// fields are within their bit widths; with timestamp <= MaxTimestamp the
// sign bit is always zero.
func pack(timestamp, machineID, sequence int64) ID {
	return ID(uint64(timestamp)<<TimestampShift |
		uint64(machineID)<<MachineIDShift |
		uint64(sequence))
}

// unpack splits an ID into its timestamp, machine ID, and sequence fields.
func unpack(id ID) (timestamp, machineID, sequence int64) {
	timestamp = int64(uint64(id) >> TimestampShift)
	machineID = int64(uint64(id)>>MachineIDShift) & MaxMachineID
	sequence = int64(id) & MaxSequence
	return
}
