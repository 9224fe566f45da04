package leakbench

import (
	"sync"
	"sync/atomic"
)

// Target is a pluggable secret-dependent computation. Its wall-clock
// duration is the side channel under study: the processor must neither
// hide nor alter it, only hand the result to the shaping layer.
type Target func(secret uint64) Output

// Sink receives one computed output while the run lock is held. The queue
// variants append to the pending queue; the snapshot variant writes the
// output into its slot on the board.
type Sink interface {
	Accept(index int, out Output)
}

// Processor drives the secret batch through the target function, strictly
// in order, exactly once. The target runs outside the lock (its duration
// must stay observable to the shaping layer's queue, that is the whole
// experiment); only the hand-off to the sink is locked.
type Processor struct {
	mu      *sync.Mutex
	sink    Sink
	target  Target
	secrets []uint64

	finished atomic.Bool
}

// NewProcessor wires a processor to the shared lock and sink.
func NewProcessor(mu *sync.Mutex, sink Sink, target Target, secrets []uint64) *Processor {
	return &Processor{
		mu:      mu,
		sink:    sink,
		target:  target,
		secrets: secrets,
	}
}

// Run processes the batch to completion. It does not loop and has no
// failure path: a missing target or empty batch is rejected at run
// construction, before any goroutine starts.
func (p *Processor) Run() {
	for i, secret := range p.secrets {
		out := p.target(secret)

		p.mu.Lock()
		p.sink.Accept(i, out)
		p.mu.Unlock()
	}
	p.finished.Store(true)
}

// Finished reports whether the whole batch has been processed.
func (p *Processor) Finished() bool { return p.finished.Load() }

// queueSink adapts PendingQueue to the Sink interface, ignoring the slot
// index. Eviction accounting lives in the queue itself.
type queueSink struct {
	queue *PendingQueue
}

func (s queueSink) Accept(_ int, out Output) {
	s.queue.Push(out)
}
