package leakbench

import (
	"log/slog"
	"sync"
	"time"
)

// Emission is one externally observable output event. Elapsed is the time
// since the previous emission (or since the shaper started, for the first
// one) as measured by the run's clock. Interval is the value that was in
// force when the tick fired, before any adjustment made on the same tick.
type Emission struct {
	Seq      int
	Value    Output
	Elapsed  time.Duration
	Interval time.Duration
	At       time.Time
}

// BoardEmission is the snapshot variant's observable event: the entire
// slot board printed at once, rather than one value per tick.
type BoardEmission struct {
	Values  []Output
	Elapsed time.Duration
	At      time.Time
}

// Emitter receives the observable side effects of a run. The emission
// stream is the entire externally visible contract of the shaper, so
// anything an observer could time or read arrives through this interface.
type Emitter interface {
	Emit(e Emission)
	EmitBoard(e BoardEmission)
	IntervalChanged(adj Adjustment)
	Done(total int)
}

// Trace records every observable event of a run in memory. It is always
// attached by the run context so tests and offline analysis can replay the
// exact sequence an observer would have seen.
type Trace struct {
	mu          sync.Mutex
	emissions   []Emission
	boards      []BoardEmission
	adjustments []Adjustment
	done        bool
	total       int
}

// NewTrace creates an empty trace.
func NewTrace() *Trace { return &Trace{} }

func (tr *Trace) Emit(e Emission) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.emissions = append(tr.emissions, e)
}

func (tr *Trace) EmitBoard(e BoardEmission) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.boards = append(tr.boards, e)
}

func (tr *Trace) IntervalChanged(adj Adjustment) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.adjustments = append(tr.adjustments, adj)
}

func (tr *Trace) Done(total int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.done = true
	tr.total = total
}

// Emissions returns a copy of the recorded emissions in order.
func (tr *Trace) Emissions() []Emission {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]Emission, len(tr.emissions))
	copy(out, tr.emissions)
	return out
}

// Boards returns a copy of the recorded board emissions in order.
func (tr *Trace) Boards() []BoardEmission {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]BoardEmission, len(tr.boards))
	copy(out, tr.boards)
	return out
}

// Adjustments returns a copy of every interval change, in order.
func (tr *Trace) Adjustments() []Adjustment {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]Adjustment, len(tr.adjustments))
	copy(out, tr.adjustments)
	return out
}

// Completed reports whether the run signaled completion, and with how many
// emissions.
func (tr *Trace) Completed() (bool, int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.done, tr.total
}

// LogEmitter writes the emission stream through a structured logger, one
// line per event. This is the production observer: what it prints is what
// an attacker gets to time.
type LogEmitter struct {
	Logger *slog.Logger
}

func (l *LogEmitter) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l *LogEmitter) Emit(e Emission) {
	l.logger().Info("output",
		"value", int64(e.Value),
		"elapsed", e.Elapsed,
	)
}

func (l *LogEmitter) EmitBoard(e BoardEmission) {
	vals := make([]int64, len(e.Values))
	for i, v := range e.Values {
		vals[i] = int64(v)
	}
	l.logger().Info("board",
		"values", vals,
		"elapsed", e.Elapsed,
	)
}

func (l *LogEmitter) IntervalChanged(adj Adjustment) {
	l.logger().Info("q "+adj.Kind.String(), "to", adj.Interval)
}

func (l *LogEmitter) Done(total int) {
	l.logger().Info("all outputs printed", "count", total)
}

// fanout forwards each event to every attached emitter, trace first.
type fanout []Emitter

func (f fanout) Emit(e Emission) {
	for _, em := range f {
		em.Emit(e)
	}
}

func (f fanout) EmitBoard(e BoardEmission) {
	for _, em := range f {
		em.EmitBoard(e)
	}
}

func (f fanout) IntervalChanged(adj Adjustment) {
	for _, em := range f {
		em.IntervalChanged(adj)
	}
}

func (f fanout) Done(total int) {
	for _, em := range f {
		em.Done(total)
	}
}
