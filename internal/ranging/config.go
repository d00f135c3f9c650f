package ranging

// ThresholdMethod selects how the per-distance threshold curve is produced.
// The set is closed; ThresholdEngine dispatches over it exhaustively.
type ThresholdMethod int

const (
	// ThresholdFixedAmplitude uses a single configured amplitude for every
	// distance point. No calibration dependency.
	ThresholdFixedAmplitude ThresholdMethod = iota
	// ThresholdFixedStrength converts a target reflectivity into an
	// amplitude per distance via the radar-loop-gain model. Requires the
	// noise-floor calibration.
	ThresholdFixedStrength
	// ThresholdRecorded uses per-distance mean/std vectors captured with no
	// target present. Requires the recorded-threshold calibration.
	ThresholdRecorded
	// ThresholdCFAR derives the threshold from neighbouring distances of
	// the live sweep each frame. No stored calibration dependency.
	ThresholdCFAR
)

func (m ThresholdMethod) String() string {
	switch m {
	case ThresholdFixedAmplitude:
		return "fixed_amplitude"
	case ThresholdFixedStrength:
		return "fixed_strength"
	case ThresholdRecorded:
		return "recorded"
	case ThresholdCFAR:
		return "cfar"
	default:
		return "unknown"
	}
}

// ReflectorShape is the hypothesis for how received amplitude falls with
// distance: ~1/d for large planar reflectors, ~1/d^2 for generic objects.
type ReflectorShape int

const (
	ShapeGeneric ReflectorShape = iota
	ShapePlanar
)

func (s ReflectorShape) String() string {
	if s == ShapePlanar {
		return "planar"
	}
	return "generic"
}

// PeakSorting selects the ordering of reported distances.
type PeakSorting int

const (
	// SortClosest orders peaks ascending by interpolated distance.
	SortClosest PeakSorting = iota
	// SortStrongest orders peaks descending by shape-corrected strength.
	SortStrongest
)

func (s PeakSorting) String() string {
	if s == SortStrongest {
		return "strongest"
	}
	return "closest"
}

// DetectorConfig describes one detector session. It is immutable once a
// Detector is created from it; changing geometry-affecting fields requires a
// new Detector (which re-plans subsweeps and drops calibration artifacts).
type DetectorConfig struct {
	// StartM and EndM bound the measured interval in meters.
	StartM float64
	EndM   float64

	// MaxProfile caps the pulse-length class used by the planner.
	// Zero means no cap (ProfileMax).
	MaxProfile Profile

	// MaxStepM caps the step spacing in meters. Zero means no cap.
	MaxStepM float64

	// SignalQuality is the target signal-quality level driving the
	// per-segment averaging count. Higher values cost measurement time.
	// Zero selects the default.
	SignalQuality float64

	// Shape is the reflector-shape hypothesis used for averaging counts and
	// strength corrections.
	Shape ReflectorShape

	// Threshold selects the thresholding strategy; the fields below carry
	// its method-specific parameters.
	Threshold ThresholdMethod

	// FixedAmplitudeValue is the threshold for ThresholdFixedAmplitude.
	FixedAmplitudeValue float64

	// FixedStrengthValue is the target strength (dB) for
	// ThresholdFixedStrength.
	FixedStrengthValue float64

	// Sensitivity in (0,1] steers Recorded and CFAR thresholds; lower
	// sensitivity raises the threshold. Zero selects the default.
	Sensitivity float64

	// Sorting selects the peak ordering policy.
	Sorting PeakSorting

	// CloseRangeCancellation enables direct-leakage characterization and
	// per-frame leakage subtraction for ranges starting near the sensor.
	CloseRangeCancellation bool

	// CFARWindowPoints and CFARGuardPoints size the CFAR averaging window
	// and the guard gap, in distance points. Zero selects defaults.
	CFARWindowPoints int
	CFARGuardPoints  int

	// CalibrationSweeps is the number of sweeps collected for the
	// noise-floor and recorded-threshold calibration steps. Zero selects
	// the default.
	CalibrationSweeps int

	// PeakMergeM merges peak candidates closer than this distance, keeping
	// the stronger. Zero selects the default.
	PeakMergeM float64
}

// Defaults applied by withDefaults for zero-valued optional fields.
const (
	DefaultSignalQuality     = 15.0
	DefaultSensitivity       = 0.5
	DefaultCFARWindowPoints  = 5
	DefaultCFARGuardPoints   = 2
	DefaultCalibrationSweeps = 20
	DefaultPeakMergeM        = 0.005
)

// withDefaults returns a copy of the config with zero-valued optional
// fields replaced by their defaults.
func (c DetectorConfig) withDefaults() DetectorConfig {
	if c.MaxProfile == 0 {
		c.MaxProfile = ProfileMax
	}
	if c.SignalQuality == 0 {
		c.SignalQuality = DefaultSignalQuality
	}
	if c.Sensitivity == 0 {
		c.Sensitivity = DefaultSensitivity
	}
	if c.CFARWindowPoints == 0 {
		c.CFARWindowPoints = DefaultCFARWindowPoints
	}
	if c.CFARGuardPoints == 0 && c.Threshold == ThresholdCFAR {
		c.CFARGuardPoints = DefaultCFARGuardPoints
	}
	if c.CalibrationSweeps == 0 {
		c.CalibrationSweeps = DefaultCalibrationSweeps
	}
	if c.PeakMergeM == 0 {
		c.PeakMergeM = DefaultPeakMergeM
	}
	return c
}

// Validate checks the configuration fields that do not depend on the derived
// subsweep plan. Plan-dependent checks (CFAR window vs available points)
// happen in NewDetector after planning.
func (c DetectorConfig) Validate() error {
	if c.StartM >= c.EndM {
		return configErrorf("start %.3fm must be below end %.3fm", c.StartM, c.EndM)
	}
	if c.StartM < MinMeasurableM {
		return configErrorf("start %.3fm is below the minimum measurable distance %.3fm", c.StartM, MinMeasurableM)
	}
	if c.EndM > MaxMeasurableM {
		return configErrorf("end %.3fm exceeds the maximum measurable distance %.1fm", c.EndM, MaxMeasurableM)
	}
	if c.MaxProfile < 0 || c.MaxProfile > ProfileMax {
		return configErrorf("max profile %d out of range 1..%d", c.MaxProfile, ProfileMax)
	}
	if c.MaxStepM < 0 {
		return configErrorf("max step %.4fm must be non-negative", c.MaxStepM)
	}
	if c.SignalQuality < 0 {
		return configErrorf("signal quality %.1f must be non-negative", c.SignalQuality)
	}
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		return configErrorf("sensitivity %.3f must be in (0,1]", c.Sensitivity)
	}
	if c.CalibrationSweeps < 0 || (c.CalibrationSweeps > 0 && c.CalibrationSweeps < 2) {
		return configErrorf("calibration sweeps %d must be at least 2", c.CalibrationSweeps)
	}
	if c.PeakMergeM < 0 {
		return configErrorf("peak merge distance %.4fm must be non-negative", c.PeakMergeM)
	}
	switch c.Threshold {
	case ThresholdFixedAmplitude:
		if c.FixedAmplitudeValue <= 0 {
			return configErrorf("fixed amplitude threshold requires a positive value, got %.3f", c.FixedAmplitudeValue)
		}
	case ThresholdFixedStrength, ThresholdRecorded:
		// FixedStrengthValue may legitimately be zero or negative dB.
	case ThresholdCFAR:
		if c.CFARWindowPoints < 0 || c.CFARGuardPoints < 0 {
			return configErrorf("cfar window and guard must be non-negative")
		}
	default:
		return configErrorf("unknown threshold method %d", c.Threshold)
	}
	return nil
}
