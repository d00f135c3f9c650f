package ranging

import (
	"math"
	"sort"

	"github.com/banshee-data/range.report/internal/units"
)

// baseRLGdB is the sensor's base radar loop gain: the constant relating
// received amplitude to target reflectivity at the 1 m reference distance.
const baseRLGdB = 10.0

// shapeCorrectionDB compensates the distance falloff of received amplitude
// so strengths are comparable across distance: amplitude falls ~1/d^2 for
// generic reflectors (40 dB/decade) and ~1/d for planar ones (20 dB/decade),
// referenced to 1 m.
func shapeCorrectionDB(distanceM float64, shape ReflectorShape) float64 {
	d := math.Max(distanceM, MinMeasurableM)
	if shape == ShapePlanar {
		return 20.0 * math.Log10(d)
	}
	return 40.0 * math.Log10(d)
}

// strengthDB converts a peak amplitude into the reflectivity strength metric
// via the radar-loop-gain model.
func strengthDB(amplitude, distanceM, noiseFloor float64, shape ReflectorShape) float64 {
	noiseOffset := units.AmplitudeToDB(math.Max(noiseFloor, 1e-9))
	return units.AmplitudeToDB(amplitude) - baseRLGdB - noiseOffset + shapeCorrectionDB(distanceM, shape)
}

// amplitudeForStrength inverts the strength model: the amplitude a target of
// the given strength would produce at the given distance over the given
// noise floor. Used by the fixed-strength threshold.
func amplitudeForStrength(strength, distanceM, noiseFloor float64, shape ReflectorShape) float64 {
	noise := math.Max(noiseFloor, 1e-9)
	return noise * units.DBToAmplitude(strength+baseRLGdB-shapeCorrectionDB(distanceM, shape))
}

// sortPeaks orders peaks in place per the configured policy. All peaks stay
// in the result; only the ordering changes.
func sortPeaks(peaks []Peak, sorting PeakSorting) {
	switch sorting {
	case SortStrongest:
		sort.SliceStable(peaks, func(i, j int) bool {
			return peaks[i].StrengthDB > peaks[j].StrengthDB
		})
	default:
		sort.SliceStable(peaks, func(i, j int) bool {
			return peaks[i].DistanceM < peaks[j].DistanceM
		})
	}
}
