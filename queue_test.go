package leakbench

import (
	"testing"
)

func TestPendingQueue_FIFO(t *testing.T) {
	q := NewPendingQueue(4)

	for _, v := range []Output{10, 20, 30} {
		if _, dropped := q.Push(v); dropped {
			t.Fatalf("Unexpected eviction pushing %d into non-full queue", v)
		}
	}

	for _, want := range []Output{10, 20, 30} {
		got, ok := q.PopFront()
		if !ok {
			t.Fatalf("Queue empty, want %d", want)
		}
		if got != want {
			t.Errorf("Pop order wrong: got %d, want %d", got, want)
		}
	}

	if _, ok := q.PopFront(); ok {
		t.Error("Pop from drained queue reported data")
	}
}

func TestPendingQueue_DropOldest(t *testing.T) {
	q := NewPendingQueue(2)

	q.Push(1)
	q.Push(2)
	evicted, dropped := q.Push(3)

	if !dropped {
		t.Fatal("Push into full queue did not evict")
	}
	if evicted != 1 {
		t.Errorf("Evicted %d, want oldest entry 1", evicted)
	}
	if q.Evictions() != 1 {
		t.Errorf("Eviction counter = %d, want 1", q.Evictions())
	}

	// The newest output is always retained and order is preserved.
	first, _ := q.PopFront()
	second, _ := q.PopFront()
	if first != 2 || second != 3 {
		t.Errorf("Survivors popped as %d,%d, want 2,3", first, second)
	}
}

func TestPendingQueue_CapacityInvariant(t *testing.T) {
	q := NewPendingQueue(3)

	// Interleave pushes and pops and check bounds at every step.
	for i := 0; i < 50; i++ {
		q.Push(Output(i))
		if q.Len() < 0 || q.Len() > q.Cap() {
			t.Fatalf("Occupancy %d outside [0, %d] after push %d", q.Len(), q.Cap(), i)
		}
		if i%3 == 0 {
			q.PopFront()
			if q.Len() < 0 || q.Len() > q.Cap() {
				t.Fatalf("Occupancy %d outside [0, %d] after pop", q.Len(), q.Cap())
			}
		}
	}
}

func TestPendingQueue_WrapAround(t *testing.T) {
	q := NewPendingQueue(2)

	// Exercise head wrapping through repeated fill and drain.
	for round := 0; round < 5; round++ {
		q.Push(Output(round * 2))
		q.Push(Output(round*2 + 1))
		a, _ := q.PopFront()
		b, _ := q.PopFront()
		if a != Output(round*2) || b != Output(round*2+1) {
			t.Fatalf("Round %d popped %d,%d, want %d,%d", round, a, b, round*2, round*2+1)
		}
	}
}

func TestPendingQueue_MinimumCapacity(t *testing.T) {
	q := NewPendingQueue(0)
	if q.Cap() != 1 {
		t.Errorf("Capacity clamped to %d, want 1", q.Cap())
	}
}
