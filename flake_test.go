package flake

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// manualClock is a deterministic Clock for tests. It only moves when the
// test moves it, which makes millisecond boundaries, forward jumps, and
// rollbacks reproducible.
type manualClock struct {
	now atomic.Int64
}

func (c *manualClock) ElapsedMillis() int64 {
	return c.now.Load()
}

func (c *manualClock) Set(ms int64) {
	c.now.Store(ms)
}

func (c *manualClock) Advance(ms int64) {
	c.now.Add(ms)
}

func newManualGenerator(t *testing.T, machineID, startMillis int64) (*Generator, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	clock.Set(startMillis)
	gen, err := NewWithConfig(Config{
		MachineID: machineID,
		Epoch:     DefaultEpoch,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}
	return gen, clock
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		machineID int64
		wantErr   bool
	}{
		{"Valid machine ID 0", 0, false},
		{"Valid machine ID 512", 512, false},
		{"Valid machine ID 1023", 1023, false},
		{"Invalid machine ID -1", -1, true},
		{"Invalid machine ID 1024", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := New(DefaultEpoch, tt.machineID)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("New() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if gen == nil {
				t.Fatal("New() returned nil generator without error")
			}
			if gen.MachineID() != tt.machineID {
				t.Errorf("MachineID() = %v, want %v", gen.MachineID(), tt.machineID)
			}
		})
	}
}

func TestNewFutureEpoch(t *testing.T) {
	_, err := New(time.Now().Add(time.Hour), 1)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() with future epoch error = %v, want ErrInvalidConfig", err)
	}

	configErr, ok := AsConfigError(err)
	if !ok {
		t.Fatal("New() with future epoch should return a ConfigError")
	}
	if configErr.Field != "Epoch" {
		t.Errorf("ConfigError.Field = %q, want %q", configErr.Field, "Epoch")
	}
}

func TestNewZeroEpoch(t *testing.T) {
	_, err := New(time.Time{}, 1)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() with zero epoch error = %v, want ErrInvalidConfig", err)
	}
}

func TestFirstSequenceIsZero(t *testing.T) {
	gen, _ := newManualGenerator(t, 7, 5)

	id, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	ts, machine, seq := id.Components()
	if ts != 5 {
		t.Errorf("first ID timestamp = %d, want 5", ts)
	}
	if machine != 7 {
		t.Errorf("first ID machine = %d, want 7", machine)
	}
	if seq != 0 {
		t.Errorf("first ID sequence = %d, want 0", seq)
	}
}

func TestNext(t *testing.T) {
	gen, err := New(DefaultEpoch, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	id, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	ts, machine, seq := id.Components()
	if machine != 1 {
		t.Errorf("Components() machine = %d, want 1", machine)
	}
	if ts <= 0 || ts > MaxTimestamp {
		t.Errorf("Components() timestamp = %d, out of range (0, %d]", ts, MaxTimestamp)
	}
	if seq < 0 || seq > MaxSequence {
		t.Errorf("Components() sequence = %d, want 0-%d", seq, MaxSequence)
	}
}

func TestUniqueness(t *testing.T) {
	gen, err := New(DefaultEpoch, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	count := 100000
	ids := make(map[ID]bool, count)

	for i := 0; i < count; i++ {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("Next() error = %v at iteration %d", err, i)
		}
		if ids[id] {
			t.Fatalf("duplicate ID %d at iteration %d", id, i)
		}
		ids[id] = true
	}
}

func TestMonotonic(t *testing.T) {
	gen, err := New(DefaultEpoch, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var prev ID
	for i := 0; i < 10000; i++ {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if id <= prev {
			t.Fatalf("IDs not monotonic: prev=%d, current=%d at iteration %d", prev, id, i)
		}
		prev = id
	}
}

func TestConcurrency(t *testing.T) {
	gen, err := New(DefaultEpoch, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	goroutines := 100
	idsPerGoroutine := 1000
	totalIDs := goroutines * idsPerGoroutine

	ids := sync.Map{}
	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				id, err := gen.Next()
				if err != nil {
					errCh <- err
					return
				}
				if _, exists := ids.LoadOrStore(id, true); exists {
					errCh <- errors.New("duplicate ID")
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("concurrent generation error: %v", err)
	}

	count := 0
	ids.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	if count != totalIDs {
		t.Errorf("generated %d unique IDs, want %d", count, totalIDs)
	}
}

func TestSequenceExhaustion(t *testing.T) {
	gen, clock := newManualGenerator(t, 1, 7)

	// The frozen millisecond yields exactly 4096 sequence values, 0..4095.
	for i := int64(0); i <= MaxSequence; i++ {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("Next() error = %v at sequence %d", err, i)
		}
		ts, _, seq := id.Components()
		if ts != 7 {
			t.Fatalf("timestamp = %d at sequence %d, want 7", ts, i)
		}
		if seq != i {
			t.Fatalf("sequence = %d, want %d", seq, i)
		}
	}

	// The 4097th ID carries the next millisecond with sequence reset to 0.
	clock.Advance(1)
	id, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() error = %v after advancing clock", err)
	}
	ts, _, seq := id.Components()
	if ts != 8 {
		t.Errorf("timestamp after exhaustion = %d, want 8", ts)
	}
	if seq != 0 {
		t.Errorf("sequence after exhaustion = %d, want 0", seq)
	}
}

func TestSequenceExhaustionWaits(t *testing.T) {
	gen, clock := newManualGenerator(t, 1, 7)

	for i := int64(0); i <= MaxSequence; i++ {
		if _, err := gen.Next(); err != nil {
			t.Fatalf("Next() error = %v at sequence %d", err, i)
		}
	}

	// The next call must block until the clock moves.
	done := make(chan ID, 1)
	go func() {
		id, err := gen.Next()
		if err != nil {
			t.Errorf("Next() error = %v during exhaustion wait", err)
		}
		done <- id
	}()

	select {
	case <-done:
		t.Fatal("Next() returned before the clock advanced")
	case <-time.After(10 * time.Millisecond):
	}

	clock.Advance(1)

	select {
	case id := <-done:
		ts, _, seq := id.Components()
		if ts != 8 {
			t.Errorf("timestamp after wait = %d, want 8", ts)
		}
		if seq != 0 {
			t.Errorf("sequence after wait = %d, want 0", seq)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() did not return after the clock advanced")
	}

	metrics := gen.Snapshot()
	if metrics.SequenceWaits != 1 {
		t.Errorf("Metrics.SequenceWaits = %d, want 1", metrics.SequenceWaits)
	}
}

func TestClockRollback(t *testing.T) {
	gen, clock := newManualGenerator(t, 3, 100)

	first, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	clock.Set(95)
	_, err = gen.Next()
	if !errors.Is(err, ErrClockRolledBack) {
		t.Fatalf("Next() after rollback error = %v, want ErrClockRolledBack", err)
	}

	clockErr, ok := AsClockError(err)
	if !ok {
		t.Fatal("Next() after rollback should return a ClockError")
	}
	if clockErr.Drift != 5 {
		t.Errorf("ClockError.Drift = %d, want 5", clockErr.Drift)
	}
	if clockErr.Now != 95 || clockErr.Last != 100 {
		t.Errorf("ClockError readings = (%d, %d), want (95, 100)", clockErr.Now, clockErr.Last)
	}
	if clockErr.MachineID != 3 {
		t.Errorf("ClockError.MachineID = %d, want 3", clockErr.MachineID)
	}

	// State is unchanged: once the clock is back at the last observed
	// millisecond, the sequence continues where it left off.
	clock.Set(100)
	id, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() after recovery error = %v", err)
	}
	ts, _, seq := id.Components()
	if ts != 100 {
		t.Errorf("timestamp after recovery = %d, want 100", ts)
	}
	if seq != first.Sequence()+1 {
		t.Errorf("sequence after recovery = %d, want %d", seq, first.Sequence()+1)
	}

	metrics := gen.Snapshot()
	if metrics.ClockRollbacks != 1 {
		t.Errorf("Metrics.ClockRollbacks = %d, want 1", metrics.ClockRollbacks)
	}
}

func TestTimeRangeExceeded(t *testing.T) {
	gen, clock := newManualGenerator(t, 9, MaxTimestamp)

	// The final representable millisecond still works.
	id, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() at MaxTimestamp error = %v", err)
	}
	if id.Timestamp() != MaxTimestamp {
		t.Errorf("timestamp = %d, want %d", id.Timestamp(), MaxTimestamp)
	}

	clock.Set(MaxTimestamp + 1)
	_, err = gen.Next()
	if !errors.Is(err, ErrTimeRangeExceeded) {
		t.Fatalf("Next() past horizon error = %v, want ErrTimeRangeExceeded", err)
	}

	rangeErr, ok := AsRangeError(err)
	if !ok {
		t.Fatal("Next() past horizon should return a RangeError")
	}
	if rangeErr.Timestamp != MaxTimestamp+1 {
		t.Errorf("RangeError.Timestamp = %d, want %d", rangeErr.Timestamp, MaxTimestamp+1)
	}
	if rangeErr.MachineID != 9 {
		t.Errorf("RangeError.MachineID = %d, want 9", rangeErr.MachineID)
	}

	// State is unchanged: the last representable millisecond can still
	// issue the rest of its sequence.
	clock.Set(MaxTimestamp)
	id2, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() back at MaxTimestamp error = %v", err)
	}
	if id2.Sequence() != id.Sequence()+1 {
		t.Errorf("sequence = %d, want %d", id2.Sequence(), id.Sequence()+1)
	}
}

func TestBitLayoutRoundTrip(t *testing.T) {
	gen, _ := newManualGenerator(t, 42, 123456)

	id, err := gen.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	ts, machine, seq := id.Components()
	if ts != 123456 {
		t.Errorf("timestamp = %d, want 123456", ts)
	}
	if machine != 42 {
		t.Errorf("machine = %d, want 42", machine)
	}
	if seq != 0 {
		t.Errorf("sequence = %d, want 0", seq)
	}

	if got := pack(ts, machine, seq); got != id {
		t.Errorf("pack(unpack(id)) = %d, want %d", got, id)
	}
}

func TestMetrics(t *testing.T) {
	gen, err := New(DefaultEpoch, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	count := 1000
	for i := 0; i < count; i++ {
		if _, err := gen.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}

	metrics := gen.Snapshot()
	if metrics.Generated != int64(count) {
		t.Errorf("Metrics.Generated = %d, want %d", metrics.Generated, count)
	}

	gen.ResetMetrics()
	metrics = gen.Snapshot()
	if metrics.Generated != 0 {
		t.Errorf("after reset, Metrics.Generated = %d, want 0", metrics.Generated)
	}
}

func TestMultipleMachines(t *testing.T) {
	machines := 10
	idsPerMachine := 1000

	var wg sync.WaitGroup
	ids := sync.Map{}
	errCh := make(chan error, machines)

	for m := 0; m < machines; m++ {
		wg.Add(1)
		go func(machineID int64) {
			defer wg.Done()

			gen, err := New(DefaultEpoch, machineID)
			if err != nil {
				errCh <- err
				return
			}
			for i := 0; i < idsPerMachine; i++ {
				id, err := gen.Next()
				if err != nil {
					errCh <- err
					return
				}
				if _, exists := ids.LoadOrStore(id, machineID); exists {
					errCh <- errors.New("duplicate ID across machines")
					return
				}
			}
		}(int64(m))
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("multi-machine generation error: %v", err)
	}

	count := 0
	ids.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	if want := machines * idsPerMachine; count != want {
		t.Errorf("generated %d unique IDs across %d machines, want %d", count, machines, want)
	}
}

func TestDefaultGenerator(t *testing.T) {
	id, err := Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if id == 0 {
		t.Error("Next() returned zero ID")
	}

	id2 := MustNext()
	if id2 <= id {
		t.Errorf("MustNext() = %d, should be > %d", id2, id)
	}
}

func TestHorizon(t *testing.T) {
	h := Horizon(DefaultEpoch)
	want := DefaultEpoch.Add(time.Duration(MaxTimestamp) * time.Millisecond)
	if !h.Equal(want) {
		t.Errorf("Horizon() = %v, want %v", h, want)
	}
}

func BenchmarkNext(b *testing.B) {
	gen, err := New(DefaultEpoch, 1)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gen.Next(); err != nil {
			b.Fatalf("Next() error = %v", err)
		}
	}
}

func BenchmarkNextConcurrent(b *testing.B) {
	gen, err := New(DefaultEpoch, 1)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := gen.Next(); err != nil {
				b.Fatalf("Next() error = %v", err)
			}
		}
	})
}
