package ranging

import (
	"math"
	"testing"
)

func TestStrengthRoundTrip(t *testing.T) {
	// amplitudeForStrength must invert strengthDB at any distance/shape.
	for _, shape := range []ReflectorShape{ShapeGeneric, ShapePlanar} {
		for _, d := range []float64{0.2, 1.0, 4.5} {
			const noise = 12.0
			s := strengthDB(300.0, d, noise, shape)
			back := amplitudeForStrength(s, d, noise, shape)
			if math.Abs(back-300.0) > 1e-9 {
				t.Errorf("shape=%v d=%.1f: round trip amplitude %f, want 300", shape, d, back)
			}
		}
	}
}

func TestShapeCorrectionDistinguishesModels(t *testing.T) {
	// At 2m the generic (1/d^2) correction adds twice the dB of the
	// planar (1/d) one.
	g := shapeCorrectionDB(2.0, ShapeGeneric)
	p := shapeCorrectionDB(2.0, ShapePlanar)
	if math.Abs(g-2*p) > 1e-9 {
		t.Errorf("generic correction %f, want double the planar %f", g, p)
	}
	// At the 1m reference both corrections vanish.
	if c := shapeCorrectionDB(1.0, ShapeGeneric); math.Abs(c) > 1e-9 {
		t.Errorf("generic correction at 1m = %f, want 0", c)
	}
}

func TestStrengthCorrectionBeatsRawAmplitudeRanking(t *testing.T) {
	// A strong close reflection (0.3m, amplitude 200) versus a weaker far
	// one (1.0m, amplitude 50), generic shape. Raw amplitude ranks the
	// close peak first; the 1/d^2-corrected strength must rank the far
	// peak first, proving the correction is applied.
	const noise = 10.0
	near := Peak{DistanceM: 0.3, Amplitude: 200}
	far := Peak{DistanceM: 1.0, Amplitude: 50}
	near.StrengthDB = strengthDB(near.Amplitude, near.DistanceM, noise, ShapeGeneric)
	far.StrengthDB = strengthDB(far.Amplitude, far.DistanceM, noise, ShapeGeneric)

	if far.StrengthDB <= near.StrengthDB {
		t.Fatalf("far strength %.2f should exceed near strength %.2f under 1/d^2 correction",
			far.StrengthDB, near.StrengthDB)
	}

	peaks := []Peak{near, far}
	sortPeaks(peaks, SortStrongest)
	if peaks[0].DistanceM != 1.0 {
		t.Errorf("strongest-first ordering starts at %.1fm, want the corrected 1.0m peak", peaks[0].DistanceM)
	}

	sortPeaks(peaks, SortClosest)
	if peaks[0].DistanceM != 0.3 {
		t.Errorf("closest-first ordering starts at %.1fm, want 0.3m", peaks[0].DistanceM)
	}
}

func TestSpecTwoPeakScenario(t *testing.T) {
	// Peaks at 0.3m (amplitude 50) and 1.0m (amplitude 200), generic
	// shape: the 1.0m peak leads under strongest sorting exactly because
	// its shape-corrected strength is higher.
	const noise = 10.0
	a := Peak{DistanceM: 0.3, Amplitude: 50}
	b := Peak{DistanceM: 1.0, Amplitude: 200}
	a.StrengthDB = strengthDB(a.Amplitude, a.DistanceM, noise, ShapeGeneric)
	b.StrengthDB = strengthDB(b.Amplitude, b.DistanceM, noise, ShapeGeneric)

	peaks := []Peak{a, b}
	sortPeaks(peaks, SortStrongest)
	if b.StrengthDB > a.StrengthDB && peaks[0].DistanceM != 1.0 {
		t.Errorf("1.0m peak has higher corrected strength but was not ranked first")
	}
}

func TestSortPeaksKeepsAllPeaks(t *testing.T) {
	peaks := []Peak{
		{DistanceM: 0.5, StrengthDB: 3},
		{DistanceM: 0.2, StrengthDB: 9},
		{DistanceM: 1.7, StrengthDB: 6},
	}
	sortPeaks(peaks, SortStrongest)
	if len(peaks) != 3 {
		t.Fatalf("sorting dropped peaks: %d left", len(peaks))
	}
	for i := 1; i < len(peaks); i++ {
		if peaks[i].StrengthDB > peaks[i-1].StrengthDB {
			t.Errorf("strength order violated at %d", i)
		}
	}
}
