package ranging

import "math"

// noiseTempDoublingDegC models the sensor noise amplitude doubling per this
// many degrees of temperature increase. Recorded thresholds captured at one
// temperature are rescaled by 2^(dT/noiseTempDoublingDegC) at process time.
const noiseTempDoublingDegC = 57.0

// thresholdEngine produces the per-distance threshold curve for the active
// method. The method set is closed, so dispatch is an exhaustive switch
// rather than open-ended polymorphism.
type thresholdEngine struct {
	cfg       DetectorConfig
	distances []float64
}

func newThresholdEngine(cfg DetectorConfig, distances []float64) *thresholdEngine {
	return &thresholdEngine{cfg: cfg, distances: distances}
}

// curve computes the threshold for one frame. filtered is the assembled
// filtered sweep (used only by CFAR), cal supplies calibration artifacts for
// the methods that need them, and temperatureC drives the recorded-threshold
// temperature compensation.
//
// Artifact presence is owned by Detector.precheck: cal carries every vector
// the active method needs by the time curve runs, so curve is total for any
// checked state.
func (e *thresholdEngine) curve(filtered []float64, cal *CalibrationState, temperatureC float64) ([]float64, error) {
	n := len(e.distances)
	out := make([]float64, n)

	switch e.cfg.Threshold {
	case ThresholdFixedAmplitude:
		for i := range out {
			out[i] = e.cfg.FixedAmplitudeValue
		}

	case ThresholdFixedStrength:
		for i := range out {
			out[i] = amplitudeForStrength(e.cfg.FixedStrengthValue, e.distances[i], cal.NoiseFloor[i], e.cfg.Shape)
		}

	case ThresholdRecorded:
		comp := math.Pow(2, (temperatureC-cal.RecordedTemperatureC)/noiseTempDoublingDegC)
		term := 1.0/e.cfg.Sensitivity - 1.0
		for i := range out {
			out[i] = (cal.RecordedMean[i] + term*cal.RecordedStd[i]) * comp
		}

	case ThresholdCFAR:
		e.cfarCurve(filtered, out)

	default:
		return nil, configErrorf("unknown threshold method %d", e.cfg.Threshold)
	}
	return out, nil
}

// cfarCurve averages the live sweep over a window offset from each point by
// the guard gap on both sides where available, narrowing to one side at the
// range edges. Validation guarantees every point keeps at least one window
// sample, so the division is total.
func (e *thresholdEngine) cfarCurve(filtered, out []float64) {
	n := len(filtered)
	window := e.cfg.CFARWindowPoints
	guard := e.cfg.CFARGuardPoints

	for i := 0; i < n; i++ {
		sum := 0.0
		count := 0

		lo := i - guard - window
		hi := i - guard - 1
		if lo < 0 {
			lo = 0
		}
		for j := lo; j <= hi; j++ {
			sum += filtered[j]
			count++
		}

		lo = i + guard + 1
		hi = i + guard + window
		if hi > n-1 {
			hi = n - 1
		}
		for j := lo; j <= hi; j++ {
			sum += filtered[j]
			count++
		}

		out[i] = sum / float64(count) / e.cfg.Sensitivity
	}
}

// validateCFARReach checks that every point of the assembled axis keeps at
// least one usable CFAR window sample after edge narrowing.
func validateCFARReach(cfg DetectorConfig, points int) error {
	if cfg.Threshold != ThresholdCFAR {
		return nil
	}
	if cfg.CFARWindowPoints < 1 {
		return configErrorf("cfar window must be at least one point")
	}
	for i := 0; i < points; i++ {
		left := i - cfg.CFARGuardPoints - 1
		right := i + cfg.CFARGuardPoints + 1
		if left < 0 && right > points-1 {
			return configErrorf("cfar guard %d leaves no window samples for %d measured points", cfg.CFARGuardPoints, points)
		}
	}
	return nil
}
