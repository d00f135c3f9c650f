package ranging

// DetectorResult is the per-frame output: candidate object distances sorted
// per the configured policy, strengths aligned index-for-index with the
// distances, and status flags for edge effects and calibration staleness.
type DetectorResult struct {
	// DistancesM are offset-compensated object distances in meters.
	DistancesM []float64

	// StrengthsDB are reflectivity strengths aligned with DistancesM.
	StrengthsDB []float64

	// NearEdge is set when the sweep's amplitude at the first distance
	// point suggests a peak just outside the measured interval.
	NearEdge bool

	// CalibrationNeeded is set when the live temperature has drifted
	// outside the close-range calibration's validity window. The detector
	// keeps operating with degraded accuracy.
	CalibrationNeeded bool

	// TemperatureC echoes the temperature the frame was processed with.
	TemperatureC float64
}

// FrameDebug carries the intermediate vectors of one processed frame for
// plotting and diagnostics.
type FrameDebug struct {
	DistancesM []float64
	Filtered   []float64
	Threshold  []float64
	Peaks      []Peak
}
