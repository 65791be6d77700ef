package flake

import (
	"time"
)

// Clock supplies the generator's time readings as whole milliseconds
// elapsed since the generator's epoch.
//
// The production implementation reads the system wall clock. Tests inject
// their own Clock to drive millisecond boundaries, forward jumps, and
// rollbacks deterministically instead of depending on real elapsed time.
//
// A reading lower than a previous one is how the generator observes a
// clock rollback; implementations must not paper over regressions, because
// reporting them is part of the Next contract.
type Clock interface {
	// ElapsedMillis returns milliseconds elapsed since the epoch the
	// clock was created for. Readings at or before the epoch return <= 0.
	ElapsedMillis() int64
}

// wallClock reads the system wall clock relative to a fixed epoch.
//
// It deliberately uses the wall reading rather than Go's monotonic clock:
// an NTP step or manual time change must surface as a rollback error
// rather than be silently absorbed, so callers learn their clock source is
// misbehaving.
type wallClock struct {
	epochMillis int64
}

func newWallClock(epoch time.Time) wallClock {
	return wallClock{epochMillis: epoch.UnixMilli()}
}

func (c wallClock) ElapsedMillis() int64 {
	return time.Now().UnixMilli() - c.epochMillis
}
