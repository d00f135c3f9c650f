// Package ranging implements the distance-estimation engine for a
// pulsed-coherent ranging sensor: per-range matched filtering of raw
// amplitude sweeps, interchangeable statistical thresholding, sub-sample
// peak interpolation with reflectivity strengths, and an ordered
// multi-step calibration state machine.
package ranging

import (
	"context"

	"github.com/banshee-data/range.report/internal/monitoring"
)

// Detector composes the subsweep plan, distance filter, threshold engine,
// peak detection, and calibration state into the two top-level operations:
// calibration and per-frame processing.
//
// A Detector is not safe for concurrent use: exactly one Calibrate,
// UpdateCalibration, or Process call may be in flight per instance.
// Independent instances are fully isolated and may run in parallel.
type Detector struct {
	cfg       DetectorConfig
	plan      *SubsweepPlan
	filter    *distanceFilter
	threshold *thresholdEngine
	distances []float64
	sensor    Sensor

	calmgr *CalibrationManager
	cal    *CalibrationState

	stale bool // edge-triggered staleness logging
}

// NewDetector validates the config, derives the subsweep plan, and returns a
// detector bound to the given acquisition layer. Geometry or threshold
// problems surface as ConfigError.
func NewDetector(sensor Sensor, cfg DetectorConfig) (*Detector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	plan, err := PlanSubsweeps(cfg)
	if err != nil {
		return nil, err
	}
	if err := validateCFARReach(cfg, plan.AssembledPoints()); err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:       cfg,
		plan:      plan,
		filter:    newDistanceFilter(plan),
		distances: plan.AssembledDistances(),
		sensor:    sensor,
	}
	d.threshold = newThresholdEngine(cfg, d.distances)
	d.calmgr = newCalibrationManager(cfg, plan, d.filter, sensor)
	return d, nil
}

// Config returns the effective configuration with defaults applied.
func (d *Detector) Config() DetectorConfig { return d.cfg }

// Plan returns the derived subsweep plan the acquisition layer must follow.
func (d *Detector) Plan() *SubsweepPlan { return d.plan }

// Distances returns the assembled distance axis in meters.
func (d *Detector) Distances() []float64 { return d.distances }

// Calibration returns the current calibration state, or nil before any
// calibration has run.
func (d *Detector) Calibration() *CalibrationState { return d.cal }

// SetCalibration installs a previously captured calibration state, e.g. one
// loaded from persistent storage. The artifact vectors must match the
// current plan geometry.
func (d *Detector) SetCalibration(st *CalibrationState) error {
	if st == nil {
		return &StateError{Reason: "nil calibration state"}
	}
	if len(st.NoiseFloor) != d.plan.AssembledPoints() {
		return configErrorf("calibration noise floor has %d points, plan has %d", len(st.NoiseFloor), d.plan.AssembledPoints())
	}
	if st.hasCloseRange() && len(st.LeakageIQ) != d.plan.RawPoints() {
		return configErrorf("calibration leakage has %d points, plan has %d", len(st.LeakageIQ), d.plan.RawPoints())
	}
	if st.hasRecorded() && (len(st.RecordedMean) != d.plan.AssembledPoints() || len(st.RecordedStd) != d.plan.AssembledPoints()) {
		return configErrorf("recorded threshold has %d/%d points, plan has %d", len(st.RecordedMean), len(st.RecordedStd), d.plan.AssembledPoints())
	}
	d.cal = st
	return nil
}

// Calibrate runs the full ordered calibration sequence and installs the
// resulting state. Hard acquisition failures surface as CalibrationError;
// an undetectable object present during a no-object step does not fail.
func (d *Detector) Calibrate(ctx context.Context) (*CalibrationState, error) {
	st, err := d.calmgr.Calibrate(ctx)
	if err != nil {
		return nil, err
	}
	d.cal = st
	d.stale = false
	return st, nil
}

// UpdateCalibration re-runs only the temperature-robust calibration subset
// (noise floor and offset). Safe to call at any time between frames.
func (d *Detector) UpdateCalibration(ctx context.Context) error {
	return d.calmgr.Update(ctx, d.cal)
}

// Process applies the full per-frame pipeline to one sweep: close-range
// leakage subtraction (when active), matched filtering, thresholding, peak
// detection and ranking, and offset compensation of the reported distances.
// It fails with StateError when the active configuration's calibration
// prerequisites are not met.
func (d *Detector) Process(sweep *Sweep, temperatureC float64) (*DetectorResult, error) {
	res, _, err := d.process(sweep, temperatureC, false)
	return res, err
}

// ProcessWithDebug is Process plus the intermediate frame vectors, for
// plotting and diagnostics.
func (d *Detector) ProcessWithDebug(sweep *Sweep, temperatureC float64) (*DetectorResult, *FrameDebug, error) {
	return d.process(sweep, temperatureC, true)
}

func (d *Detector) process(sweep *Sweep, temperatureC float64, debug bool) (*DetectorResult, *FrameDebug, error) {
	if err := d.precheck(); err != nil {
		return nil, nil, err
	}

	closeRange := d.calmgr.closeRangeActive()
	raw, err := correctedAmplitudes(d.plan, sweep, d.cal, closeRange)
	if err != nil {
		return nil, nil, err
	}

	filtered := d.plan.Assemble(d.filter.Apply(d.plan, raw))
	threshold, err := d.threshold.curve(filtered, d.cal, temperatureC)
	if err != nil {
		return nil, nil, err
	}

	peaks := findPeaks(filtered, threshold, d.distances, d.cfg.PeakMergeM)
	for i := range peaks {
		peaks[i].StrengthDB = strengthDB(peaks[i].Amplitude, peaks[i].DistanceM, d.cal.NoiseFloor[peaks[i].index], d.cfg.Shape)
	}

	res := &DetectorResult{
		NearEdge:     nearEdge(filtered, threshold, peaks),
		TemperatureC: temperatureC,
	}

	sortPeaks(peaks, d.cfg.Sorting)
	res.DistancesM = make([]float64, len(peaks))
	res.StrengthsDB = make([]float64, len(peaks))
	for i, p := range peaks {
		res.DistancesM[i] = p.DistanceM - d.cal.OffsetM
		res.StrengthsDB[i] = p.StrengthDB
	}

	if d.cal.StaleAt(temperatureC) {
		res.CalibrationNeeded = true
		if !d.stale {
			d.stale = true
			monitoring.Logf("ranging: temperature %.1f°C drifted beyond ±%.0f°C of close-range calibration at %.1f°C",
				temperatureC, TempDriftToleranceC, d.cal.CloseRangeTemperatureC)
		}
	} else {
		d.stale = false
	}

	var dbg *FrameDebug
	if debug {
		dbg = &FrameDebug{
			DistancesM: d.distances,
			Filtered:   filtered,
			Threshold:  threshold,
			Peaks:      peaks,
		}
	}
	return res, dbg, nil
}

// precheck verifies that every calibration artifact required by the active
// configuration exists before any frame work starts. Calibration state is
// never partially applied.
func (d *Detector) precheck() error {
	if d.cal == nil {
		return &StateError{Reason: "process called before calibration"}
	}
	if !d.cal.hasNoise() || !d.cal.hasOffset() {
		return &StateError{Reason: "noise-floor and offset calibration required"}
	}
	if d.calmgr.closeRangeActive() && !d.cal.hasCloseRange() {
		return &StateError{Reason: "close-range characterization required by configuration"}
	}
	if d.cfg.Threshold == ThresholdRecorded && !d.cal.hasRecorded() {
		return &StateError{Reason: "recorded threshold calibration required by configuration"}
	}
	return nil
}
