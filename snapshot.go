package leakbench

import (
	"context"
	"sync"
	"time"
)

// SlotBoard is the shared state of the snapshot-diff variant. Instead of a
// FIFO of unread items, it holds one slot per secret, written in place by
// the processor and re-read in full every tick by the snapshot shaper.
// Nothing is ever consumed; "new information" means the board differs from
// the previous tick's copy.
type SlotBoard struct {
	slots []Output
	prev  []Output
}

// NewSlotBoard creates a board with n zero-valued slots. A target whose
// output for some secret is zero writes a value the diff cannot see; that
// blindness is inherited from the design, where the board starts zeroed
// and only changes are printed.
func NewSlotBoard(n int) *SlotBoard {
	return &SlotBoard{
		slots: make([]Output, n),
		prev:  make([]Output, n),
	}
}

// Accept writes an output into its slot. Caller holds the run lock.
func (b *SlotBoard) Accept(index int, out Output) {
	b.slots[index] = out
}

// Changed reports whether any slot differs from the previous snapshot.
// Caller holds the run lock.
func (b *SlotBoard) Changed() bool {
	for i, v := range b.slots {
		if v != b.prev[i] {
			return true
		}
	}
	return false
}

// Snapshot copies the current slots over the previous copy.
// Caller holds the run lock.
func (b *SlotBoard) Snapshot() {
	copy(b.prev, b.slots)
}

// Values returns a copy of the current slots. Caller holds the run lock.
func (b *SlotBoard) Values() []Output {
	out := make([]Output, len(b.slots))
	copy(out, b.slots)
	return out
}

// SnapshotShaper is the tick loop of the snapshot-diff variant. Each tick
// it compares the board against the previous tick's snapshot: on a change
// it prints the whole board and resets the interval to the policy floor;
// otherwise it doubles the interval up to the policy ceiling.
//
// The variant has no emission counter to terminate on, so this
// implementation stops on the first tick that finds the board unchanged
// after the processor has finished. By then the final board state has
// already been printed and no further change can occur. Cancel ctx to stop
// earlier, or keep the processor running forever to reproduce unbounded
// operation.
type SnapshotShaper struct {
	mu       *sync.Mutex
	board    *SlotBoard
	policy   Policy
	clock    Clock
	emitter  Emitter
	finished func() bool

	interval time.Duration
	prints   int
	lastEmit time.Time
}

// NewSnapshotShaper wires the shaper to the shared lock and board.
// finished reports producer completion and must be safe to call without
// the lock.
func NewSnapshotShaper(mu *sync.Mutex, board *SlotBoard, policy Policy, clock Clock, emitter Emitter, interval time.Duration, finished func() bool) *SnapshotShaper {
	if interval <= 0 {
		interval = DefaultBackoffFloor
	}
	return &SnapshotShaper{
		mu:       mu,
		board:    board,
		policy:   policy,
		clock:    clock,
		emitter:  emitter,
		finished: finished,
		interval: interval,
	}
}

// Run executes ticks until the board goes quiet after producer completion
// or ctx is canceled.
func (s *SnapshotShaper) Run(ctx context.Context) {
	s.lastEmit = s.clock.Now()
	for {
		if ctx.Err() != nil {
			return
		}
		if stop := s.tick(); stop {
			s.emitter.Done(s.prints)
			return
		}
		s.clock.Sleep(s.interval)
	}
}

// tick performs one compare-and-print cycle. It returns true when the run
// has nothing left to say.
func (s *SnapshotShaper) tick() (stop bool) {
	producerDone := s.finished()

	s.mu.Lock()
	changed := s.board.Changed()
	var values []Output
	if changed {
		values = s.board.Values()
	}
	s.board.Snapshot()
	adj := s.policy.Next(s.interval, Feedback{Emitted: changed})
	if adj.Interval < MinInterval {
		adj.Interval = MinInterval
	}
	s.interval = adj.Interval
	s.mu.Unlock()

	if changed {
		now := s.clock.Now()
		elapsed := now.Sub(s.lastEmit)
		s.lastEmit = now
		s.prints++
		s.emitter.EmitBoard(BoardEmission{
			Values:  values,
			Elapsed: elapsed,
			At:      now,
		})
	}
	if adj.Kind != AdjustNone {
		s.emitter.IntervalChanged(adj)
	}

	// producerDone was read before inspecting the board, so a write that
	// landed between the two is still caught by the next tick's diff.
	return producerDone && !changed
}

// Interval returns the interval currently in force.
func (s *SnapshotShaper) Interval() time.Duration { return s.interval }

// Prints returns the number of board emissions so far.
func (s *SnapshotShaper) Prints() int { return s.prints }
