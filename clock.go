package leakbench

import (
	"sync"
	"time"
)

// Clock abstracts the shaper's relationship with time so tests can drive
// ticks without real sleeping. Sleep-based pacing is intrinsic to the
// defense, not an implementation accident, so the abstraction keeps the
// sleep explicit rather than hiding it behind a scheduler.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall-clock implementation used outside tests.
var SystemClock Clock = systemClock{}

// ManualClock is a virtual clock for deterministic tests. Sleep returns
// immediately after advancing the virtual time by the requested amount, and
// every sleep is recorded so tests can inspect the interval sequence the
// shaper actually asked for.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
}

// Advance moves the virtual time forward without recording a sleep.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Slept returns a copy of every duration passed to Sleep, in order.
func (c *ManualClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}
