package ranging

import (
	"math"
	"testing"

	"github.com/banshee-data/range.report/internal/testutil"
)

func planForFilterTests(t *testing.T) *SubsweepPlan {
	t.Helper()
	plan, err := PlanSubsweeps(DetectorConfig{StartM: 0.3, EndM: 2.0, FixedAmplitudeValue: 100})
	testutil.AssertNoError(t, err)
	return plan
}

func TestDistanceFilterPreservesLength(t *testing.T) {
	plan := planForFilterTests(t)
	f := newDistanceFilter(plan)
	raw := make([]float64, plan.RawPoints())
	out := f.Apply(plan, raw)
	if len(out) != len(raw) {
		t.Fatalf("filtered length %d, want %d", len(out), len(raw))
	}
}

func TestDistanceFilterPreservesDC(t *testing.T) {
	plan := planForFilterTests(t)
	f := newDistanceFilter(plan)

	raw := make([]float64, plan.RawPoints())
	for i := range raw {
		raw[i] = 500.0
	}
	out := f.Apply(plan, raw)
	testutil.AssertSlicesInDelta(t, out, raw, 1.0)
}

func TestDistanceFilterPreservesPeakLocation(t *testing.T) {
	plan := planForFilterTests(t)
	f := newDistanceFilter(plan)

	// A pulse-shaped bump in the middle of the first segment.
	seg := plan.Segments[0]
	centerM := seg.StartM + float64(seg.NumPoints/2)*seg.StepM
	width := seg.Profile.EnvelopeWidthM()

	raw := make([]float64, plan.RawPoints())
	for i := 0; i < seg.NumPoints; i++ {
		d := seg.DistanceAt(i)
		delta := (d - centerM) / width
		raw[seg.StartIdx+i] = 1000 * math.Exp(-delta*delta)
	}

	out := f.Apply(plan, raw)

	argmax := func(v []float64) int {
		best := 0
		for i := range v {
			if v[i] > v[best] {
				best = i
			}
		}
		return best
	}
	inIdx := argmax(raw[seg.StartIdx : seg.StartIdx+seg.NumPoints])
	outIdx := argmax(out[seg.StartIdx : seg.StartIdx+seg.NumPoints])

	// Zero-phase filtering must not shift the response.
	if abs := inIdx - outIdx; abs < -1 || abs > 1 {
		t.Errorf("peak moved from sample %d to %d", inIdx, outIdx)
	}
	// The matched filter passes the pulse shape mostly intact.
	if out[seg.StartIdx+outIdx] < 0.5*raw[seg.StartIdx+inIdx] {
		t.Errorf("peak amplitude %f collapsed from %f", out[seg.StartIdx+outIdx], raw[seg.StartIdx+inIdx])
	}
}

func TestDistanceFilterSuppressesAlternatingNoise(t *testing.T) {
	plan := planForFilterTests(t)
	f := newDistanceFilter(plan)

	// Highest representable spatial frequency: alternating +/-.
	raw := make([]float64, plan.RawPoints())
	for i := range raw {
		raw[i] = 100.0
		if i%2 == 1 {
			raw[i] = -100.0
		}
	}
	out := f.Apply(plan, raw)

	var inPower, outPower float64
	for i := range raw {
		inPower += raw[i] * raw[i]
		outPower += out[i] * out[i]
	}
	if outPower > 0.25*inPower {
		t.Errorf("alternating noise power only reduced from %.0f to %.0f", inPower, outPower)
	}
}

func TestCutoffScalesInverselyWithProfile(t *testing.T) {
	// Longer profiles have wider envelopes, hence lower cutoff for the
	// same step spacing.
	step := 0.01
	c1 := step / Profile1.EnvelopeWidthM()
	c5 := step / Profile5.EnvelopeWidthM()
	if c5 >= c1 {
		t.Errorf("profile 5 cutoff %f should be below profile 1 cutoff %f", c5, c1)
	}
}
