package leakbench

import (
	"math/rand"
	"time"
)

// Default interval constants, shared by the shaper and the policies.
const (
	// DefaultInterval is the starting emission interval for every policy.
	DefaultInterval = 100 * time.Millisecond

	// MinInterval is the hard lower bound the shaper enforces on any
	// interval a policy produces. An interval of zero would collapse the
	// tick loop into a busy spin and emit at computation speed, which is
	// exactly the signal the shaper exists to suppress.
	MinInterval = time.Millisecond

	// DefaultHalvingFloor bounds the ping-pong policy's halving.
	DefaultHalvingFloor = time.Millisecond

	// DefaultRandomMax is the exclusive upper bound of the randomized
	// policy's resampling range.
	DefaultRandomMax = 8 * time.Second

	// DefaultBackoffCeiling caps the snapshot variant's doubling.
	DefaultBackoffCeiling = 16 * time.Second

	// DefaultBackoffFloor is the interval the snapshot variant resets to
	// whenever it observes a change.
	DefaultBackoffFloor = 100 * time.Millisecond
)

// AdjustKind classifies an interval change for the emission stream.
type AdjustKind int

const (
	AdjustNone AdjustKind = iota
	AdjustDoubled
	AdjustHalved
	AdjustRandomized
	AdjustReset
)

// String returns the notice verb used in the emission stream.
func (k AdjustKind) String() string {
	switch k {
	case AdjustDoubled:
		return "doubled"
	case AdjustHalved:
		return "halved"
	case AdjustRandomized:
		return "randomized"
	case AdjustReset:
		return "reset"
	default:
		return "unchanged"
	}
}

// Adjustment is a policy's verdict for one tick: the interval to use next
// and how it was reached. Kind is AdjustNone when the interval is carried
// over unchanged.
type Adjustment struct {
	Kind     AdjustKind
	Interval time.Duration
}

// Feedback describes one shaper tick from the policy's point of view.
// Occupancy is the queue length after the pop on an emitting tick, and the
// current length (zero) on an empty tick. Queue occupancy is the only
// signal a policy may consult; wall-clock computation time is off limits.
type Feedback struct {
	Emitted   bool
	Occupancy int
}

// Policy decides the next emission interval from occupancy feedback.
//
// A policy may keep private memory between ticks (an armed flag, a random
// source). It must not block, sleep, or touch the queue: the shaper calls
// Next while holding the run lock.
type Policy interface {
	Name() string
	Next(current time.Duration, fb Feedback) Adjustment
}

func unchanged(current time.Duration) Adjustment {
	return Adjustment{Kind: AdjustNone, Interval: current}
}

// OneShotDoubling doubles the interval on the first empty tick and then
// holds until something is emitted again. Consecutive empty ticks never
// double twice in a row; emission disarms the policy but leaves the
// interval where it is.
//
// This is the conservative backoff: the interval ratchets up once per dry
// spell and never comes back down.
type OneShotDoubling struct {
	armed bool
}

// NewOneShotDoubling creates the policy in the disarmed state.
func NewOneShotDoubling() *OneShotDoubling {
	return &OneShotDoubling{}
}

func (p *OneShotDoubling) Name() string { return "oneshot" }

func (p *OneShotDoubling) Next(current time.Duration, fb Feedback) Adjustment {
	if fb.Emitted {
		p.armed = false
		return unchanged(current)
	}
	if p.armed {
		return unchanged(current)
	}
	p.armed = true
	return Adjustment{Kind: AdjustDoubled, Interval: current * 2}
}

// PingPong doubles the interval on every empty tick and halves it on every
// emitting tick that leaves a backlog behind. The interval chases the
// producer's burstiness from both sides, which makes it reactive but also
// prone to oscillation under steady load.
//
// Halving is bounded below by Floor so a long backlog cannot drive the
// interval to zero.
type PingPong struct {
	// Floor bounds the halving. Zero means DefaultHalvingFloor.
	Floor time.Duration
}

// NewPingPong creates the policy with the default floor.
func NewPingPong() *PingPong {
	return &PingPong{Floor: DefaultHalvingFloor}
}

func (p *PingPong) Name() string { return "pingpong" }

func (p *PingPong) Next(current time.Duration, fb Feedback) Adjustment {
	if !fb.Emitted {
		return Adjustment{Kind: AdjustDoubled, Interval: current * 2}
	}
	if fb.Occupancy >= 1 {
		floor := p.Floor
		if floor <= 0 {
			floor = DefaultHalvingFloor
		}
		next := current / 2
		if next < floor {
			next = floor
		}
		return Adjustment{Kind: AdjustHalved, Interval: next}
	}
	return unchanged(current)
}

// Randomized resamples the interval uniformly from [0, Max) on every
// emitting tick and ignores occupancy entirely.
//
// This policy is the negative control of the set. Uniform resampling feels
// like it should hide timing, but it carries no memory of how far behind
// the queue is and therefore gives no bound at all on the information an
// observer can extract from emission times. Its failure is the expected
// result, not a defect in the implementation.
type Randomized struct {
	// Max is the exclusive upper bound of the resampling range.
	// Zero means DefaultRandomMax.
	Max time.Duration

	rng *rand.Rand
}

// NewRandomized creates the policy. A nil rng falls back to a time-seeded
// source; tests pass a seeded one for reproducible traces.
func NewRandomized(rng *rand.Rand) *Randomized {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Randomized{Max: DefaultRandomMax, rng: rng}
}

func (p *Randomized) Name() string { return "random" }

func (p *Randomized) Next(current time.Duration, fb Feedback) Adjustment {
	if !fb.Emitted {
		return unchanged(current)
	}
	max := p.Max
	if max <= 0 {
		max = DefaultRandomMax
	}
	next := time.Duration(p.rng.Float64() * float64(max))
	return Adjustment{Kind: AdjustRandomized, Interval: next}
}

// CappedBackoff doubles the interval up to a fixed ceiling while nothing
// changes and snaps back to a fixed floor the moment something does. It is
// the decision half of the snapshot-diff variant: the snapshot shaper turns
// "board changed since last tick" into Feedback.Emitted and this policy
// does the rest.
type CappedBackoff struct {
	// Floor is the reset interval. Zero means DefaultBackoffFloor.
	Floor time.Duration
	// Ceiling caps the doubling. Zero means DefaultBackoffCeiling.
	Ceiling time.Duration
}

// NewCappedBackoff creates the policy with the default floor and ceiling.
func NewCappedBackoff() *CappedBackoff {
	return &CappedBackoff{
		Floor:   DefaultBackoffFloor,
		Ceiling: DefaultBackoffCeiling,
	}
}

func (p *CappedBackoff) Name() string { return "snapshot" }

func (p *CappedBackoff) Next(current time.Duration, fb Feedback) Adjustment {
	floor := p.Floor
	if floor <= 0 {
		floor = DefaultBackoffFloor
	}
	ceiling := p.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultBackoffCeiling
	}

	if fb.Emitted {
		return Adjustment{Kind: AdjustReset, Interval: floor}
	}

	next := current * 2
	if next > ceiling {
		next = ceiling
	}
	if next == current {
		// Already pinned at the ceiling.
		return unchanged(current)
	}
	return Adjustment{Kind: AdjustDoubled, Interval: next}
}
