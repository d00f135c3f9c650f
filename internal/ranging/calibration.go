package ranging

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/range.report/internal/monitoring"
)

// CalibrationStage tags how far the ordered calibration sequence has run.
// Later stages imply the artifacts of earlier ones, which prevents invalid
// partial states from being constructed.
type CalibrationStage int

const (
	StageUncalibrated CalibrationStage = iota
	StageNoiseEstimated
	StageOffsetCompensated
	StageCloseRangeCharacterized
	StageThresholdRecorded
	StageReady
)

func (s CalibrationStage) String() string {
	switch s {
	case StageUncalibrated:
		return "uncalibrated"
	case StageNoiseEstimated:
		return "noise_estimated"
	case StageOffsetCompensated:
		return "offset_compensated"
	case StageCloseRangeCharacterized:
		return "close_range_characterized"
	case StageThresholdRecorded:
		return "threshold_recorded"
	case StageReady:
		return "ready"
	default:
		return "unknown"
	}
}

// TempDriftToleranceC is the temperature window within which close-range
// calibration artifacts remain valid. Beyond it the detector keeps running
// with degraded accuracy and raises the calibration-needed flag.
const TempDriftToleranceC = 15.0

// loopbackWavelengthM is the carrier wavelength used to convert the loopback
// phase into a per-unit timing offset in meters.
const loopbackWavelengthM = 0.005

// CalibrationState holds every calibration artifact together with the
// temperature at which each step ran. It is created by Calibrate, read-only
// during frame processing, and invalidated (never deleted) by temperature
// drift.
type CalibrationState struct {
	Stage CalibrationStage

	// Noise-floor estimation (step 1): per-point receive-only amplitude on
	// the assembled distance axis.
	NoiseFloor        []float64
	NoiseTemperatureC float64

	// Offset compensation (step 2): per-unit timing offset subtracted from
	// reported distances.
	OffsetM            float64
	OffsetTemperatureC float64

	// Close-range characterization (step 3): leakage snapshot on the raw
	// axis, derotated to a zero loopback phase reference.
	LeakageIQ              []complex128
	LoopbackPhaseRef       float64
	CloseRangeTemperatureC float64

	// Recorded-threshold capture (step 4): per-point mean/std of filtered
	// no-target sweeps on the assembled axis.
	RecordedMean         []float64
	RecordedStd          []float64
	RecordedTemperatureC float64
}

func (s *CalibrationState) hasNoise() bool      { return s != nil && len(s.NoiseFloor) > 0 }
func (s *CalibrationState) hasOffset() bool     { return s != nil && s.Stage >= StageOffsetCompensated }
func (s *CalibrationState) hasCloseRange() bool { return s != nil && len(s.LeakageIQ) > 0 }
func (s *CalibrationState) hasRecorded() bool {
	return s != nil && len(s.RecordedMean) > 0 && len(s.RecordedStd) > 0
}

// StaleAt reports whether the close-range artifacts have drifted outside
// their temperature validity window. Configurations without close-range
// artifacts never go stale; their thresholds are either temperature-free or
// compensated per frame.
func (s *CalibrationState) StaleAt(temperatureC float64) bool {
	if !s.hasCloseRange() {
		return false
	}
	return math.Abs(temperatureC-s.CloseRangeTemperatureC) > TempDriftToleranceC
}

// CalibrationManager executes the ordered calibration sequence for one
// detector instance. It shares the detector's plan and filter; the two must
// not run concurrently on the same instance.
type CalibrationManager struct {
	cfg    DetectorConfig
	plan   *SubsweepPlan
	filter *distanceFilter
	sensor Sensor
}

func newCalibrationManager(cfg DetectorConfig, plan *SubsweepPlan, filter *distanceFilter, sensor Sensor) *CalibrationManager {
	return &CalibrationManager{cfg: cfg, plan: plan, filter: filter, sensor: sensor}
}

// closeRangeActive reports whether the config requires close-range
// characterization: cancellation enabled and the range starting below the
// shortest profile's leakage-free distance.
func (m *CalibrationManager) closeRangeActive() bool {
	return m.cfg.CloseRangeCancellation && m.cfg.StartM < Profile1.LeakageFreeStartM()
}

// Calibrate runs the full ordered sequence and returns a fresh state. A hard
// acquisition failure aborts with CalibrationError and commits nothing for
// the failing step. An object present during the "no object" steps cannot be
// detected and silently degrades accuracy instead of failing.
func (m *CalibrationManager) Calibrate(ctx context.Context) (*CalibrationState, error) {
	st := &CalibrationState{}

	if err := m.estimateNoise(ctx, st); err != nil {
		return nil, &CalibrationError{Step: "noise-floor", Err: err}
	}
	st.Stage = StageNoiseEstimated

	if err := m.characterizeOffset(ctx, st); err != nil {
		return nil, &CalibrationError{Step: "offset", Err: err}
	}
	st.Stage = StageOffsetCompensated

	if m.closeRangeActive() {
		if err := m.characterizeCloseRange(ctx, st); err != nil {
			return nil, &CalibrationError{Step: "close-range", Err: err}
		}
		st.Stage = StageCloseRangeCharacterized
	}

	if m.cfg.Threshold == ThresholdRecorded || m.closeRangeActive() {
		if err := m.recordThreshold(ctx, st); err != nil {
			return nil, &CalibrationError{Step: "recorded-threshold", Err: err}
		}
		st.Stage = StageThresholdRecorded
	}

	st.Stage = StageReady
	monitoring.Logf("ranging: calibration complete (noise %.1f°C, offset %.4fm, close-range=%v, recorded=%v)",
		st.NoiseTemperatureC, st.OffsetM, st.hasCloseRange(), st.hasRecorded())
	return st, nil
}

// Update re-runs only the temperature-robust steps (noise floor and offset)
// in place. It is safe to call at any time without environment
// considerations and never revisits the close-range or recorded steps.
func (m *CalibrationManager) Update(ctx context.Context, st *CalibrationState) error {
	if st == nil {
		return &StateError{Reason: "update requires an existing calibration"}
	}
	if err := m.estimateNoise(ctx, st); err != nil {
		return &CalibrationError{Step: "noise-floor", Err: err}
	}
	if err := m.characterizeOffset(ctx, st); err != nil {
		return &CalibrationError{Step: "offset", Err: err}
	}
	return nil
}

// estimateNoise samples receive-only sweeps across the configured range and
// stores the per-distance noise floor. Works regardless of surroundings.
func (m *CalibrationManager) estimateNoise(ctx context.Context, st *CalibrationState) error {
	noisePlan := m.plan.withoutTx()
	raw := make([]float64, m.plan.RawPoints())
	for sweepIdx := 0; sweepIdx < m.cfg.CalibrationSweeps; sweepIdx++ {
		sweep, err := m.sensor.GetSweep(ctx, noisePlan)
		if err != nil {
			return fmt.Errorf("noise sweep %d: %w", sweepIdx, err)
		}
		if len(sweep.Amplitude) != len(raw) {
			return fmt.Errorf("noise sweep %d: got %d points, plan has %d", sweepIdx, len(sweep.Amplitude), len(raw))
		}
		for i, a := range sweep.Amplitude {
			raw[i] += a
		}
	}
	for i := range raw {
		raw[i] /= float64(m.cfg.CalibrationSweeps)
	}

	temp, err := m.sensor.GetTemperature(ctx)
	if err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	st.NoiseFloor = m.plan.Assemble(raw)
	st.NoiseTemperatureC = temp
	return nil
}

// characterizeOffset measures the electronic loopback and converts its phase
// into the per-unit timing offset applied to reported distances.
func (m *CalibrationManager) characterizeOffset(ctx context.Context, st *CalibrationState) error {
	lb, err := m.sensor.GetLoopback(ctx, 0)
	if err != nil {
		return fmt.Errorf("loopback: %w", err)
	}
	temp, err := m.sensor.GetTemperature(ctx)
	if err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	// One phase cycle of the loopback corresponds to half a wavelength of
	// round-trip distance.
	st.OffsetM = cmplx.Phase(lb) / (2 * math.Pi) * loopbackWavelengthM / 2
	st.OffsetTemperatureC = temp
	return nil
}

// characterizeCloseRange snapshots the direct leakage with no object in the
// active range. Each sweep's IQ data is derotated by its own loopback phase
// before averaging, so the stored snapshot is referenced to zero loopback
// phase; the paired phase reference is therefore zero by construction.
// The no-object precondition cannot be verified; violations degrade
// accuracy silently.
func (m *CalibrationManager) characterizeCloseRange(ctx context.Context, st *CalibrationState) error {
	acc := make([]complex128, m.plan.RawPoints())
	for sweepIdx := 0; sweepIdx < m.cfg.CalibrationSweeps; sweepIdx++ {
		sweep, err := m.sensor.GetSweep(ctx, m.plan)
		if err != nil {
			return fmt.Errorf("leakage sweep %d: %w", sweepIdx, err)
		}
		if !sweep.HasIQ() {
			return fmt.Errorf("leakage sweep %d: sensor did not deliver IQ data", sweepIdx)
		}
		if !sweep.LoopbackValid {
			return fmt.Errorf("leakage sweep %d: sensor did not deliver a loopback sample", sweepIdx)
		}
		derot := cmplx.Exp(complex(0, -cmplx.Phase(sweep.Loopback)))
		for i, v := range sweep.IQ {
			acc[i] += v * derot
		}
	}
	n := complex(float64(m.cfg.CalibrationSweeps), 0)
	for i := range acc {
		acc[i] /= n
	}

	temp, err := m.sensor.GetTemperature(ctx)
	if err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	st.LeakageIQ = acc
	st.LoopbackPhaseRef = 0
	st.CloseRangeTemperatureC = temp
	return nil
}

// recordThreshold captures filtered no-target sweeps and stores per-distance
// mean/std on the assembled axis. Runs after close-range characterization so
// the capture sees leakage-subtracted amplitudes when cancellation is
// active. Same no-object precondition as the leakage snapshot.
func (m *CalibrationManager) recordThreshold(ctx context.Context, st *CalibrationState) error {
	points := m.plan.AssembledPoints()
	samples := make([][]float64, points)
	for i := range samples {
		samples[i] = make([]float64, 0, m.cfg.CalibrationSweeps)
	}

	for sweepIdx := 0; sweepIdx < m.cfg.CalibrationSweeps; sweepIdx++ {
		sweep, err := m.sensor.GetSweep(ctx, m.plan)
		if err != nil {
			return fmt.Errorf("recorded sweep %d: %w", sweepIdx, err)
		}
		raw, err := correctedAmplitudes(m.plan, sweep, st, m.closeRangeActive())
		if err != nil {
			return fmt.Errorf("recorded sweep %d: %w", sweepIdx, err)
		}
		assembled := m.plan.Assemble(m.filter.Apply(m.plan, raw))
		for i, a := range assembled {
			samples[i] = append(samples[i], a)
		}
	}

	mean := make([]float64, points)
	std := make([]float64, points)
	for i := range samples {
		mean[i] = stat.Mean(samples[i], nil)
		std[i] = stat.StdDev(samples[i], nil)
	}

	temp, err := m.sensor.GetTemperature(ctx)
	if err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	st.RecordedMean = mean
	st.RecordedStd = std
	st.RecordedTemperatureC = temp
	return nil
}

// correctedAmplitudes turns a raw sweep into the amplitude vector the filter
// consumes. With close-range cancellation active it rotates the stored
// leakage snapshot by the instantaneous loopback phase jitter and subtracts
// it from the complex samples before taking magnitudes.
func correctedAmplitudes(plan *SubsweepPlan, sweep *Sweep, st *CalibrationState, closeRange bool) ([]float64, error) {
	if len(sweep.Amplitude) != plan.RawPoints() {
		return nil, fmt.Errorf("sweep has %d points, plan has %d", len(sweep.Amplitude), plan.RawPoints())
	}
	if !closeRange || !st.hasCloseRange() {
		out := make([]float64, len(sweep.Amplitude))
		copy(out, sweep.Amplitude)
		return out, nil
	}

	if !sweep.HasIQ() {
		return nil, fmt.Errorf("close-range cancellation requires IQ sweep data")
	}
	if !sweep.LoopbackValid {
		return nil, fmt.Errorf("close-range cancellation requires a per-frame loopback sample")
	}

	jitter := cmplx.Phase(sweep.Loopback) - st.LoopbackPhaseRef
	rot := cmplx.Exp(complex(0, jitter))
	out := make([]float64, len(sweep.IQ))
	for i, v := range sweep.IQ {
		out[i] = cmplx.Abs(v - st.LeakageIQ[i]*rot)
	}
	return out, nil
}
