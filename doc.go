// Package leakbench mitigates and measures timing side channels in
// black-box functions.
//
// # Overview
//
// A function can keep its return value clean and still leak its input: if
// the wall-clock time it takes correlates with a secret, an observer who
// can timestamp the results learns the secret without ever reading it.
// leakbench puts an adaptive rate-shaping layer between such a function
// and its observer. The layer decouples the moment an output becomes
// available from the moment it becomes visible, and tunes its emission
// cadence from a single feedback signal: the occupancy of its own internal
// queue.
//
// # Architecture
//
// The package components:
//
//   - queue.go     - Bounded pending queue with drop-oldest eviction
//   - processor.go - Drives secrets through the target function, in order
//   - shaper.go    - Tick loop emitting one output per interval
//   - policy.go    - Interchangeable interval-adaptation strategies
//   - snapshot.go  - Diff-and-print variant over a slot board
//   - run.go       - Per-run context wiring the two concurrent roles
//   - trace.go     - Emission trace capture and structured-log emitter
//   - assertions.go - Test helpers for trace properties
//
// # Quick Start
//
// Shape the output of a leaky function:
//
//	trace, err := leakbench.Run(ctx, leakbench.Config{
//	    Secrets: []uint64{1 << 17, 1 << 18, 1 << 19},
//	    Target:  leakbench.LeakyConstantOutput,
//	    Policy:  leakbench.NewPingPong(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, e := range trace.Emissions() {
//	    fmt.Printf("value=%d elapsed=%v\n", e.Value, e.Elapsed)
//	}
//
// # The Shaper
//
// The processor and the shaper run as independently scheduled goroutines
// sharing one lock. The processor computes and pushes; the shaper wakes
// every interval q, pops at most one output, emits it, and asks its policy
// for the next q. The run ends when as many outputs have been emitted as
// there were secrets. An empty queue is a normal tick outcome, never a
// stop signal; the shaper routinely starts before anything is computed.
//
// The shaper never learns how long a computation took. Occupancy is its
// whole world, and that is the point: an interval sequence derived only
// from occupancy history carries far less information than one derived
// from completion times.
//
// # Policies
//
// Four strategies, one interface, identical harness:
//
//   - OneShotDoubling - double q once per dry spell, never shrink
//   - PingPong        - double when starved, halve when backlogged
//   - Randomized      - resample q uniformly from [0, 8s) on every emission
//   - CappedBackoff   - double to a 16s ceiling, reset to 100ms on change
//
// Randomized is kept as a negative control. It is implemented faithfully
// because its failure is the experimental result: occupancy-blind
// randomization gives no bound on the timing information that escapes.
//
// CappedBackoff belongs to the snapshot variant, which abandons the FIFO
// entirely. The processor writes each output into a fixed slot on a board,
// and the snapshot shaper re-reads the whole board every tick, printing it
// only when it differs from the previous tick's copy.
//
// # Eviction
//
// The pending queue is bounded at the batch size and drops its oldest
// entry when full. A producer that outruns the shaper therefore loses
// data instead of blocking, because blocking would transfer the
// computation's timing straight back to the producer's visible behavior.
// Dropped outputs are never emitted. With the default capacity the
// eviction path cannot fire unless the shaper falls a full batch behind.
//
// # Testing
//
// Policies and shapers are deterministic under a manual clock:
//
//	func TestShaping(t *testing.T) {
//	    clock := leakbench.NewManualClock(time.Unix(0, 0))
//	    trace, _ := leakbench.Run(ctx, leakbench.Config{
//	        Secrets: secrets,
//	        Target:  target,
//	        Policy:  leakbench.NewPingPong(),
//	        Clock:   clock,
//	    })
//
//	    leakbench.AssertMonotonicSeq(t, trace)
//	    leakbench.AssertEmissionOrder(t, pushed, trace)
//	}
//
// # Philosophy
//
// Traditional constant-time engineering rewrites the function. leakbench
// treats the function as a black box and shapes what leaves it instead.
// The package does not prove a leakage bound; it reproduces each
// mitigation policy exactly, including the ones that fail, so their
// emission traces can be measured and compared.
package leakbench
