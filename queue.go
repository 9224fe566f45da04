package leakbench

// Output is a single value produced by a target function for one secret.
// An Output carries no reference to the secret that produced it; whatever
// the target returns is all an observer may learn from the value itself.
type Output int64

// PendingQueue is a bounded FIFO of outputs waiting to be emitted.
//
// The queue is the only feedback channel between the processor (producer)
// and the shaper (consumer): the shaper never sees how long a computation
// took, only how many results have piled up.
//
// Overflow uses drop-oldest eviction: when the queue is full, Push discards
// the head entry to admit the new one. An evicted output is never emitted.
// This keeps the newest results flowing at the cost of silently losing the
// oldest, which is a deliberate tradeoff. A blocking queue would stall the
// producer and re-expose the computation time it exists to hide.
//
// PendingQueue is not internally synchronized. Both roles access it under
// the run's single lock, held only around Push and PopFront, never across
// a sleep or a target call.
type PendingQueue struct {
	buf       []Output
	head      int // index of oldest entry
	length    int
	evictions int64
}

// NewPendingQueue creates a queue with a fixed capacity.
// Capacity must be at least 1.
func NewPendingQueue(capacity int) *PendingQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &PendingQueue{
		buf: make([]Output, capacity),
	}
}

// Push appends out at the tail. If the queue is full, the oldest entry is
// evicted to make room; the evicted value is returned with dropped=true so
// the caller can account for the loss.
func (q *PendingQueue) Push(out Output) (evicted Output, dropped bool) {
	if q.length == len(q.buf) {
		evicted = q.buf[q.head]
		q.head = (q.head + 1) % len(q.buf)
		q.length--
		q.evictions++
		dropped = true
	}

	tail := (q.head + q.length) % len(q.buf)
	q.buf[tail] = out
	q.length++
	return evicted, dropped
}

// PopFront removes and returns the oldest entry.
// ok is false when the queue is empty; emptiness is advisory, not an error.
func (q *PendingQueue) PopFront() (out Output, ok bool) {
	if q.length == 0 {
		return 0, false
	}
	out = q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.length--
	return out, true
}

// Len returns the current occupancy.
func (q *PendingQueue) Len() int { return q.length }

// Cap returns the fixed capacity.
func (q *PendingQueue) Cap() int { return len(q.buf) }

// Evictions returns how many entries have been dropped since construction.
func (q *PendingQueue) Evictions() int64 { return q.evictions }
