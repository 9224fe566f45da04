package leakbench

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestShaper(capacity, want int, policy Policy) (*Shaper, *PendingQueue, *Trace, *ManualClock) {
	var mu sync.Mutex
	q := NewPendingQueue(capacity)
	trace := NewTrace()
	clock := NewManualClock(time.Unix(0, 0))
	s := NewShaper(&mu, q, policy, clock, trace, 100*time.Millisecond, want)
	s.lastEmit = clock.Now()
	return s, q, trace, clock
}

func TestShaper_EmptyTickIsNotTermination(t *testing.T) {
	s, _, trace, _ := newTestShaper(3, 3, NewOneShotDoubling())

	// The shaper may start before anything was produced.
	for i := 0; i < 4; i++ {
		s.tick()
	}

	if s.State() == StateDone {
		t.Fatal("Empty ticks drove the shaper to DONE")
	}
	if s.Emitted() != 0 {
		t.Errorf("Counter = %d after empty ticks, want 0", s.Emitted())
	}
	if len(trace.Emissions()) != 0 {
		t.Errorf("Empty ticks emitted %d outputs", len(trace.Emissions()))
	}
	// One-shot policy: exactly one doubling across all dry ticks.
	if adjs := trace.Adjustments(); len(adjs) != 1 || adjs[0].Kind != AdjustDoubled {
		t.Errorf("Adjustments = %v, want a single doubling", adjs)
	}
}

func TestShaper_CounterDrivesDone(t *testing.T) {
	s, q, trace, _ := newTestShaper(3, 3, NewOneShotDoubling())

	for _, v := range []Output{1, 2, 3} {
		q.Push(v)
	}
	for i := 0; i < 3; i++ {
		if s.State() == StateDone {
			t.Fatalf("DONE after %d emissions, want 3", i)
		}
		s.tick()
	}

	if s.State() != StateDone {
		t.Fatalf("State = %v after emitting the whole batch, want DONE", s.State())
	}
	if s.Emitted() != 3 {
		t.Errorf("Counter = %d, want 3", s.Emitted())
	}
	done, total := trace.Completed()
	if !done || total != 3 {
		t.Errorf("Completion notice: done=%v total=%d, want true 3", done, total)
	}
	AssertMonotonicSeq(t, trace)
	AssertEmissionOrder(t, []Output{1, 2, 3}, trace)
}

func TestShaper_EmissionCarriesElapsed(t *testing.T) {
	s, q, trace, clock := newTestShaper(2, 2, NewOneShotDoubling())

	q.Push(7)
	clock.Advance(250 * time.Millisecond)
	s.tick()

	q.Push(8)
	clock.Advance(40 * time.Millisecond)
	s.tick()

	emissions := trace.Emissions()
	if len(emissions) != 2 {
		t.Fatalf("Emissions = %d, want 2", len(emissions))
	}
	if emissions[0].Elapsed != 250*time.Millisecond {
		t.Errorf("First elapsed = %v, want 250ms", emissions[0].Elapsed)
	}
	if emissions[1].Elapsed != 40*time.Millisecond {
		t.Errorf("Second elapsed = %v, want 40ms (since previous emission, not since start)", emissions[1].Elapsed)
	}
}

func TestShaper_PingPongReactsToBacklog(t *testing.T) {
	s, q, trace, _ := newTestShaper(4, 4, NewPingPong())

	for _, v := range []Output{1, 2, 3} {
		q.Push(v)
	}
	s.tick() // pops 1, backlog of 2 remains

	adjs := trace.Adjustments()
	if len(adjs) != 1 || adjs[0].Kind != AdjustHalved {
		t.Fatalf("Backlogged emission produced %v, want one halving", adjs)
	}
	if s.Interval() != 50*time.Millisecond {
		t.Errorf("Interval = %v, want 50ms", s.Interval())
	}
}

func TestShaper_IntervalNeverBelowFloor(t *testing.T) {
	s, q, _, _ := newTestShaper(8, 8, &PingPong{Floor: time.Nanosecond})

	for i := 0; i < 8; i++ {
		q.Push(Output(i))
	}
	for i := 0; i < 7; i++ {
		s.tick()
	}

	if s.Interval() < MinInterval {
		t.Errorf("Shaper accepted interval %v below MinInterval %v", s.Interval(), MinInterval)
	}
}

// subFloorPolicy always asks for an interval below the clamp floor, the
// worst case a randomized policy can produce.
type subFloorPolicy struct{}

func (subFloorPolicy) Name() string { return "subfloor" }
func (subFloorPolicy) Next(time.Duration, Feedback) Adjustment {
	return Adjustment{Kind: AdjustRandomized, Interval: 200 * time.Microsecond}
}

func TestShaper_NoticeMatchesIntervalInForce(t *testing.T) {
	s, q, trace, _ := newTestShaper(2, 2, subFloorPolicy{})

	q.Push(1)
	s.tick()

	adjs := trace.Adjustments()
	if len(adjs) != 1 {
		t.Fatalf("Adjustments = %d, want 1", len(adjs))
	}
	if adjs[0].Interval != s.Interval() {
		t.Errorf("Recorded interval %v differs from the %v in force", adjs[0].Interval, s.Interval())
	}
	if adjs[0].Interval != MinInterval {
		t.Errorf("Recorded interval = %v, want the %v floor", adjs[0].Interval, MinInterval)
	}
}

func TestShaper_RunStopsOnCancel(t *testing.T) {
	s, _, _, _ := newTestShaper(2, 2, NewOneShotDoubling())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx) // queue stays empty; only cancellation can end this
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shaper ignored context cancellation")
	}
}
