package leakbench

import (
	"context"
	"sync"
	"time"
)

// ShaperState is the shaper's position in its tick cycle.
type ShaperState int

const (
	// StateWaiting means the shaper is between ticks, sleeping for the
	// current interval.
	StateWaiting ShaperState = iota
	// StateDraining means the shaper holds the lock and is inspecting
	// the queue.
	StateDraining
	// StateDone is terminal: every expected output has been emitted and
	// the loop has exited.
	StateDone
)

// Shaper is the rate-shaping loop. Each tick it pops at most one output
// from the pending queue, emits it together with the time elapsed since
// the previous emission, asks the policy for the next interval, and sleeps.
//
// The shaper decouples when an output becomes available (which depends on
// the secret) from when it becomes observable (which depends only on the
// interval sequence). Its pacing feedback is queue occupancy alone.
//
// Termination is driven solely by the emission counter reaching the
// expected count. An empty queue is a normal state, not a stop signal; the
// shaper routinely starts ticking before the processor has produced
// anything.
type Shaper struct {
	mu      *sync.Mutex // the run's lock, shared with the processor
	queue   *PendingQueue
	policy  Policy
	clock   Clock
	emitter Emitter

	// Mutated only by the shaper goroutine. interval is additionally
	// read under mu by nobody else; it stays here rather than in the
	// queue because the policy owns its evolution.
	interval time.Duration
	emitted  int
	want     int
	lastEmit time.Time
	state    ShaperState
}

// NewShaper wires a shaper to the shared lock and queue. want is the
// number of emissions after which the shaper stops.
func NewShaper(mu *sync.Mutex, queue *PendingQueue, policy Policy, clock Clock, emitter Emitter, interval time.Duration, want int) *Shaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Shaper{
		mu:       mu,
		queue:    queue,
		policy:   policy,
		clock:    clock,
		emitter:  emitter,
		interval: interval,
		want:     want,
		state:    StateWaiting,
	}
}

// Run executes ticks until the emission counter reaches the expected count
// or ctx is canceled. The sleep itself is never interrupted; cancellation
// is observed between ticks, so shutdown is cooperative and the pacing of
// ticks already in flight is unaffected.
func (s *Shaper) Run(ctx context.Context) {
	s.lastEmit = s.clock.Now()
	for s.state != StateDone {
		if ctx.Err() != nil {
			return
		}
		s.tick()
		if s.state == StateDone {
			return
		}
		s.clock.Sleep(s.interval)
	}
}

// tick performs one WAITING -> DRAINING -> WAITING|DONE transition.
func (s *Shaper) tick() {
	s.state = StateDraining

	s.mu.Lock()
	out, ok := s.queue.PopFront()
	if ok {
		now := s.clock.Now()
		elapsed := now.Sub(s.lastEmit)
		s.lastEmit = now
		s.emitted++

		e := Emission{
			Seq:      s.emitted,
			Value:    out,
			Elapsed:  elapsed,
			Interval: s.interval,
			At:       now,
		}
		adj := s.policy.Next(s.interval, Feedback{
			Emitted:   true,
			Occupancy: s.queue.Len(),
		})
		adj = s.applyInterval(adj)
		s.mu.Unlock()

		s.emitter.Emit(e)
		if adj.Kind != AdjustNone {
			s.emitter.IntervalChanged(adj)
		}
		if s.emitted >= s.want {
			s.state = StateDone
			s.emitter.Done(s.emitted)
			return
		}
	} else {
		adj := s.policy.Next(s.interval, Feedback{
			Emitted:   false,
			Occupancy: 0,
		})
		adj = s.applyInterval(adj)
		s.mu.Unlock()

		if adj.Kind != AdjustNone {
			s.emitter.IntervalChanged(adj)
		}
	}

	s.state = StateWaiting
}

// applyInterval installs the policy's verdict, clamped away from zero.
// The returned adjustment carries the interval actually in force, so the
// notice an emitter receives always matches the sleep that follows.
func (s *Shaper) applyInterval(adj Adjustment) Adjustment {
	if adj.Interval < MinInterval {
		adj.Interval = MinInterval
	}
	s.interval = adj.Interval
	return adj
}

// State returns the shaper's current state.
func (s *Shaper) State() ShaperState { return s.state }

// Emitted returns the emission counter.
func (s *Shaper) Emitted() int { return s.emitted }

// Interval returns the interval currently in force.
func (s *Shaper) Interval() time.Duration { return s.interval }
