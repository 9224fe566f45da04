package leakbench

import (
	"testing"
	"time"
)

// AssertionConfig contains thresholds for emission-trace properties.
type AssertionConfig struct {
	// ChiSquareBins is the histogram resolution for uniformity checks.
	ChiSquareBins int

	// ChiSquareCritical is the rejection threshold for the chi-square
	// statistic. Must match ChiSquareBins-1 degrees of freedom.
	ChiSquareCritical float64

	// MinSamples guards statistical assertions against underpowered
	// inputs.
	MinSamples int
}

// DefaultAssertionConfig returns thresholds for 8 bins at the 1% level
// (7 degrees of freedom, critical value 18.475).
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		ChiSquareBins:     8,
		ChiSquareCritical: 18.475,
		MinSamples:        400,
	}
}

// AssertEmissionOrder verifies the FIFO property: every emitted value
// appears in the order it was pushed, with evicted entries skipped but
// never reordered. pushed is the enqueue order; the trace supplies what an
// observer actually saw.
func AssertEmissionOrder(t *testing.T, pushed []Output, trace *Trace) {
	t.Helper()

	emissions := trace.Emissions()
	i := 0
	for _, e := range emissions {
		found := false
		for i < len(pushed) {
			if pushed[i] == e.Value {
				found = true
				i++
				break
			}
			i++
		}
		if !found {
			t.Errorf("Emission order violated: value %d (seq %d) does not follow push order %v",
				e.Value, e.Seq, pushed)
			return
		}
	}

	t.Logf("✓ FIFO order: %d emissions consistent with %d pushes", len(emissions), len(pushed))
}

// AssertMonotonicSeq verifies the termination counter increased by exactly
// one per emission.
func AssertMonotonicSeq(t *testing.T, trace *Trace) {
	t.Helper()

	for i, e := range trace.Emissions() {
		if e.Seq != i+1 {
			t.Errorf("Counter not monotonic: emission %d carries seq %d", i, e.Seq)
			return
		}
	}

	t.Logf("✓ Monotonic counter: seq 1..%d", len(trace.Emissions()))
}

// AssertIntervalRange verifies every sampled interval lies in [min, max).
func AssertIntervalRange(t *testing.T, samples []time.Duration, min, max time.Duration) {
	t.Helper()

	for i, s := range samples {
		if s < min || s >= max {
			t.Errorf("Interval out of range: sample %d = %v, want [%v, %v)", i, s, min, max)
			return
		}
	}

	t.Logf("✓ Interval range: %d samples in [%v, %v)", len(samples), min, max)
}

// AssertUniformIntervals runs a chi-square goodness-of-fit test of the
// samples against a uniform distribution on [0, max).
//
// Pairwise correlation would miss higher-order structure; binning the
// whole sample and comparing against expected counts catches any policy
// that only pretends to resample independently.
func AssertUniformIntervals(t *testing.T, samples []time.Duration, max time.Duration, cfg AssertionConfig) {
	t.Helper()

	if len(samples) < cfg.MinSamples {
		t.Fatalf("Underpowered uniformity test: %d samples (min: %d)", len(samples), cfg.MinSamples)
	}

	bins := make([]int, cfg.ChiSquareBins)
	width := float64(max) / float64(cfg.ChiSquareBins)
	for _, s := range samples {
		idx := int(float64(s) / width)
		if idx < 0 || idx >= cfg.ChiSquareBins {
			t.Errorf("Sample outside distribution support: %v (max: %v)", s, max)
			return
		}
		bins[idx]++
	}

	expected := float64(len(samples)) / float64(cfg.ChiSquareBins)
	var chi2 float64
	for _, observed := range bins {
		diff := float64(observed) - expected
		chi2 += diff * diff / expected
	}

	if chi2 > cfg.ChiSquareCritical {
		t.Errorf("Distribution not uniform: chi-square = %.3f (critical: %.3f)\n"+
			"Bins: %v (expected %.1f each)",
			chi2, cfg.ChiSquareCritical, bins, expected)
		return
	}

	t.Logf("✓ Uniform intervals: chi-square = %.3f (critical: %.3f, %d samples)",
		chi2, cfg.ChiSquareCritical, len(samples))
}
