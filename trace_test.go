package leakbench

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAdjustKind_String(t *testing.T) {
	for kind, want := range map[AdjustKind]string{
		AdjustNone:       "unchanged",
		AdjustDoubled:    "doubled",
		AdjustHalved:     "halved",
		AdjustRandomized: "randomized",
		AdjustReset:      "reset",
	} {
		if got := kind.String(); got != want {
			t.Errorf("String(%d) = %q, want %q", kind, got, want)
		}
	}
}

func TestTrace_CopiesAreIndependent(t *testing.T) {
	tr := NewTrace()
	tr.Emit(Emission{Seq: 1, Value: 9})

	got := tr.Emissions()
	got[0].Value = 0

	if tr.Emissions()[0].Value != 9 {
		t.Error("Mutating a returned slice changed the trace")
	}
}

func TestLogEmitter_StreamFormat(t *testing.T) {
	var buf bytes.Buffer
	em := &LogEmitter{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	em.Emit(Emission{Seq: 1, Value: 42, Elapsed: 100 * time.Millisecond})
	em.IntervalChanged(Adjustment{Kind: AdjustDoubled, Interval: 200 * time.Millisecond})
	em.IntervalChanged(Adjustment{Kind: AdjustHalved, Interval: 100 * time.Millisecond})
	em.EmitBoard(BoardEmission{Values: []Output{1, 2}, Elapsed: time.Second})
	em.Done(5)

	out := buf.String()
	for _, want := range []string{
		"output", "value=42",
		"q doubled", "q halved",
		"board",
		"all outputs printed", "count=5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Emission stream missing %q:\n%s", want, out)
		}
	}
}
