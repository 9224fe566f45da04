package leakbench

import (
	"sync"
	"testing"
)

type recordingSink struct {
	indices []int
	outputs []Output
}

func (s *recordingSink) Accept(index int, out Output) {
	s.indices = append(s.indices, index)
	s.outputs = append(s.outputs, out)
}

func TestProcessor_StrictBatchOrder(t *testing.T) {
	var mu sync.Mutex
	sink := &recordingSink{}
	secrets := []uint64{5, 1, 9, 3}

	var calls []uint64
	target := func(secret uint64) Output {
		calls = append(calls, secret)
		return Output(secret * 10)
	}

	p := NewProcessor(&mu, sink, target, secrets)
	if p.Finished() {
		t.Fatal("Processor reports finished before running")
	}
	p.Run()

	if !p.Finished() {
		t.Fatal("Processor did not report completion")
	}
	for i, want := range secrets {
		if calls[i] != want {
			t.Errorf("Target call %d with secret %d, want %d (batch order must hold)", i, calls[i], want)
		}
		if sink.indices[i] != i {
			t.Errorf("Sink index %d = %d, want %d", i, sink.indices[i], i)
		}
		if sink.outputs[i] != Output(want*10) {
			t.Errorf("Sink output %d = %d, want %d", i, sink.outputs[i], want*10)
		}
	}
}

func TestProcessor_FeedsQueueThroughSink(t *testing.T) {
	var mu sync.Mutex
	q := NewPendingQueue(2)

	// Batch of 3 into capacity 2 with no consumer: oldest must drop.
	p := NewProcessor(&mu, queueSink{q}, func(s uint64) Output { return Output(s) }, []uint64{10, 20, 30})
	p.Run()

	if q.Len() != 2 {
		t.Fatalf("Occupancy = %d, want 2", q.Len())
	}
	if q.Evictions() != 1 {
		t.Errorf("Evictions = %d, want 1", q.Evictions())
	}
	first, _ := q.PopFront()
	if first != 20 {
		t.Errorf("Head = %d after eviction, want 20 (10 was dropped)", first)
	}
}
