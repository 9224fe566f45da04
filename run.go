package leakbench

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config controls a single run. Zero values fall back to the documented
// defaults; only Secrets, Target and Policy are mandatory.
type Config struct {
	// Secrets is the ordered batch to process, exactly once each.
	Secrets []uint64

	// Target is the secret-dependent computation under test.
	Target Target

	// Policy adapts the emission interval. Nil defaults to the one-shot
	// doubling policy for queue runs and capped backoff for snapshot
	// runs.
	Policy Policy

	// Capacity bounds the pending queue. Zero means len(Secrets), the
	// configuration under which drop-oldest eviction never fires as long
	// as the shaper keeps up.
	Capacity int

	// Interval is the starting emission interval. Zero means
	// DefaultInterval.
	Interval time.Duration

	// Clock drives sleeps and timestamps. Nil means SystemClock.
	Clock Clock

	// Emitter additionally observes the emission stream. The run always
	// records a Trace regardless.
	Emitter Emitter

	// Logger receives run lifecycle events (not the emission stream).
	// Nil means slog.Default().
	Logger *slog.Logger

	// Warmup flushes CPU caches before the first target call so the
	// first measurement is not polluted by whatever ran before.
	Warmup bool
}

func (cfg *Config) validate() error {
	if cfg.Target == nil {
		return fmt.Errorf("leakbench: target function is required")
	}
	if len(cfg.Secrets) == 0 {
		return fmt.Errorf("leakbench: secret batch is empty")
	}
	return nil
}

func (cfg *Config) clock() Clock {
	if cfg.Clock != nil {
		return cfg.Clock
	}
	return SystemClock
}

func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.Default()
}

func (cfg *Config) emitters(trace *Trace) Emitter {
	if cfg.Emitter != nil {
		return fanout{trace, cfg.Emitter}
	}
	return trace
}

// RunContext owns everything two concurrent roles of one run share: the
// single lock, the pending queue, and the shaper state. It is created per
// run and discarded with it, so independent runs never touch each other's
// state and tests can run them side by side.
type RunContext struct {
	// ID labels log lines so concurrent runs can be told apart.
	ID string

	cfg       Config
	mu        sync.Mutex
	queue     *PendingQueue
	processor *Processor
	shaper    *Shaper
	trace     *Trace
	logger    *slog.Logger
}

// NewRun validates the configuration and builds the run. Configuration
// errors are the only failures this system defines; anything that goes
// wrong after the goroutines start is an invariant violation, not an
// error to handle.
func NewRun(cfg Config) (*RunContext, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = len(cfg.Secrets)
	}
	policy := cfg.Policy
	if policy == nil {
		policy = NewOneShotDoubling()
	}

	rc := &RunContext{
		ID:    uuid.NewString(),
		cfg:   cfg,
		queue: NewPendingQueue(capacity),
		trace: NewTrace(),
	}
	rc.logger = cfg.logger().With("run", rc.ID, "policy", policy.Name())

	emitter := cfg.emitters(rc.trace)
	clock := cfg.clock()
	rc.processor = NewProcessor(&rc.mu, queueSink{rc.queue}, cfg.Target, cfg.Secrets)
	rc.shaper = NewShaper(&rc.mu, rc.queue, policy, clock, emitter, cfg.Interval, len(cfg.Secrets))
	return rc, nil
}

// Run starts the processor and the shaper concurrently and joins both.
// It returns the recorded trace once the shaper reaches its terminal
// state or ctx is canceled between ticks.
func (rc *RunContext) Run(ctx context.Context) (*Trace, error) {
	if rc.cfg.Warmup {
		FlushCache()
	}

	rc.logger.Debug("run starting", "secrets", len(rc.cfg.Secrets), "capacity", rc.queue.Cap())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rc.processor.Run()
	}()

	rc.shaper.Run(ctx)
	wg.Wait()

	rc.logger.Debug("run finished",
		"emitted", rc.shaper.Emitted(),
		"evicted", rc.queue.Evictions(),
	)
	return rc.trace, ctx.Err()
}

// Trace returns the run's event record.
func (rc *RunContext) Trace() *Trace { return rc.trace }

// Run is the convenience entry point: validate, build, execute.
func Run(ctx context.Context, cfg Config) (*Trace, error) {
	rc, err := NewRun(cfg)
	if err != nil {
		return nil, err
	}
	return rc.Run(ctx)
}

// SnapshotRun is the run context of the snapshot-diff variant: same
// processor and lock discipline, but outputs land on a slot board instead
// of a queue and the shaper prints diffs of the whole board.
type SnapshotRun struct {
	ID string

	cfg       Config
	mu        sync.Mutex
	board     *SlotBoard
	processor *Processor
	shaper    *SnapshotShaper
	trace     *Trace
	logger    *slog.Logger
}

// NewSnapshotRun validates the configuration and builds the run.
func NewSnapshotRun(cfg Config) (*SnapshotRun, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	policy := cfg.Policy
	if policy == nil {
		policy = NewCappedBackoff()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultBackoffFloor
	}

	sr := &SnapshotRun{
		ID:    uuid.NewString(),
		cfg:   cfg,
		board: NewSlotBoard(len(cfg.Secrets)),
		trace: NewTrace(),
	}
	sr.logger = cfg.logger().With("run", sr.ID, "policy", policy.Name())

	emitter := cfg.emitters(sr.trace)
	clock := cfg.clock()
	sr.processor = NewProcessor(&sr.mu, sr.board, cfg.Target, cfg.Secrets)
	sr.shaper = NewSnapshotShaper(&sr.mu, sr.board, policy, clock, emitter, interval, sr.processor.Finished)
	return sr, nil
}

// Run starts the processor and the snapshot shaper concurrently and joins
// both.
func (sr *SnapshotRun) Run(ctx context.Context) (*Trace, error) {
	if sr.cfg.Warmup {
		FlushCache()
	}

	sr.logger.Debug("snapshot run starting", "secrets", len(sr.cfg.Secrets))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sr.processor.Run()
	}()

	sr.shaper.Run(ctx)
	wg.Wait()

	sr.logger.Debug("snapshot run finished", "prints", sr.shaper.Prints())
	return sr.trace, ctx.Err()
}

// RunSnapshot is the convenience entry point for the snapshot variant.
func RunSnapshot(ctx context.Context, cfg Config) (*Trace, error) {
	sr, err := NewSnapshotRun(cfg)
	if err != nil {
		return nil, err
	}
	return sr.Run(ctx)
}
