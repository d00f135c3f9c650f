package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/range.report/internal/ranging"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for detector tuning
// parameters. Fields are pointers so a partial JSON file only overrides
// what it names; the Get* methods supply defaults for the rest.
type TuningConfig struct {
	// Range geometry
	StartM     *float64 `json:"start_m,omitempty"`
	EndM       *float64 `json:"end_m,omitempty"`
	MaxProfile *int     `json:"max_profile,omitempty"`
	MaxStepM   *float64 `json:"max_step_m,omitempty"`

	// Acquisition params
	SignalQuality     *float64 `json:"signal_quality,omitempty"`
	CalibrationSweeps *int     `json:"calibration_sweeps,omitempty"`

	// Threshold params
	ThresholdMethod     *string  `json:"threshold_method,omitempty"` // "fixed_amplitude", "fixed_strength", "recorded", "cfar"
	FixedAmplitudeValue *float64 `json:"fixed_amplitude_value,omitempty"`
	FixedStrengthValue  *float64 `json:"fixed_strength_value,omitempty"`
	Sensitivity         *float64 `json:"sensitivity,omitempty"`
	CFARWindowPoints    *int     `json:"cfar_window_points,omitempty"`
	CFARGuardPoints     *int     `json:"cfar_guard_points,omitempty"`

	// Result params
	ReflectorShape *string  `json:"reflector_shape,omitempty"` // "generic" or "planar"
	PeakSorting    *string  `json:"peak_sorting,omitempty"`    // "closest" or "strongest"
	PeakMergeM     *float64 `json:"peak_merge_m,omitempty"`

	// Close-range params
	CloseRangeCancellation *bool `json:"close_range_cancellation,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. Geometry is only
// sanity-checked here; the full feasibility check happens when the detector
// derives its subsweep plan.
func (c *TuningConfig) Validate() error {
	if c.StartM != nil && *c.StartM < 0 {
		return fmt.Errorf("start_m must be non-negative, got %f", *c.StartM)
	}
	if c.EndM != nil && c.StartM != nil && *c.EndM <= *c.StartM {
		return fmt.Errorf("end_m %f must exceed start_m %f", *c.EndM, *c.StartM)
	}
	if c.Sensitivity != nil {
		if *c.Sensitivity <= 0 || *c.Sensitivity > 1 {
			return fmt.Errorf("sensitivity must be in (0, 1], got %f", *c.Sensitivity)
		}
	}
	if c.ThresholdMethod != nil {
		if _, err := parseThresholdMethod(*c.ThresholdMethod); err != nil {
			return err
		}
	}
	if c.ReflectorShape != nil {
		if _, err := parseReflectorShape(*c.ReflectorShape); err != nil {
			return err
		}
	}
	if c.PeakSorting != nil {
		if _, err := parsePeakSorting(*c.PeakSorting); err != nil {
			return err
		}
	}
	if c.CalibrationSweeps != nil && *c.CalibrationSweeps < 1 {
		return fmt.Errorf("calibration_sweeps must be positive, got %d", *c.CalibrationSweeps)
	}
	return nil
}

func parseThresholdMethod(s string) (ranging.ThresholdMethod, error) {
	switch s {
	case "fixed_amplitude":
		return ranging.ThresholdFixedAmplitude, nil
	case "fixed_strength":
		return ranging.ThresholdFixedStrength, nil
	case "recorded":
		return ranging.ThresholdRecorded, nil
	case "cfar":
		return ranging.ThresholdCFAR, nil
	default:
		return 0, fmt.Errorf("unknown threshold_method %q", s)
	}
}

func parseReflectorShape(s string) (ranging.ReflectorShape, error) {
	switch s {
	case "generic":
		return ranging.ShapeGeneric, nil
	case "planar":
		return ranging.ShapePlanar, nil
	default:
		return 0, fmt.Errorf("unknown reflector_shape %q", s)
	}
}

func parsePeakSorting(s string) (ranging.PeakSorting, error) {
	switch s {
	case "closest":
		return ranging.SortClosest, nil
	case "strongest":
		return ranging.SortStrongest, nil
	default:
		return 0, fmt.Errorf("unknown peak_sorting %q", s)
	}
}

// GetStartM returns the start_m value or the default.
func (c *TuningConfig) GetStartM() float64 {
	if c.StartM == nil {
		return 0.25
	}
	return *c.StartM
}

// GetEndM returns the end_m value or the default.
func (c *TuningConfig) GetEndM() float64 {
	if c.EndM == nil {
		return 3.0
	}
	return *c.EndM
}

// GetMaxProfile returns the max_profile value or the default (no cap).
func (c *TuningConfig) GetMaxProfile() int {
	if c.MaxProfile == nil {
		return 0
	}
	return *c.MaxProfile
}

// GetMaxStepM returns the max_step_m value or the default (no cap).
func (c *TuningConfig) GetMaxStepM() float64 {
	if c.MaxStepM == nil {
		return 0
	}
	return *c.MaxStepM
}

// GetSignalQuality returns the signal_quality value or the default.
func (c *TuningConfig) GetSignalQuality() float64 {
	if c.SignalQuality == nil {
		return 15.0
	}
	return *c.SignalQuality
}

// GetCalibrationSweeps returns the calibration_sweeps value or the default.
func (c *TuningConfig) GetCalibrationSweeps() int {
	if c.CalibrationSweeps == nil {
		return 20
	}
	return *c.CalibrationSweeps
}

// GetThresholdMethod returns the parsed threshold_method or the default.
func (c *TuningConfig) GetThresholdMethod() ranging.ThresholdMethod {
	if c.ThresholdMethod == nil {
		return ranging.ThresholdCFAR
	}
	m, err := parseThresholdMethod(*c.ThresholdMethod)
	if err != nil {
		return ranging.ThresholdCFAR
	}
	return m
}

// GetFixedAmplitudeValue returns the fixed_amplitude_value or the default.
func (c *TuningConfig) GetFixedAmplitudeValue() float64 {
	if c.FixedAmplitudeValue == nil {
		return 100.0
	}
	return *c.FixedAmplitudeValue
}

// GetFixedStrengthValue returns the fixed_strength_value or the default.
func (c *TuningConfig) GetFixedStrengthValue() float64 {
	if c.FixedStrengthValue == nil {
		return 0.0
	}
	return *c.FixedStrengthValue
}

// GetSensitivity returns the sensitivity value or the default.
func (c *TuningConfig) GetSensitivity() float64 {
	if c.Sensitivity == nil {
		return 0.5
	}
	return *c.Sensitivity
}

// GetCFARWindowPoints returns the cfar_window_points value or the default.
func (c *TuningConfig) GetCFARWindowPoints() int {
	if c.CFARWindowPoints == nil {
		return 5
	}
	return *c.CFARWindowPoints
}

// GetCFARGuardPoints returns the cfar_guard_points value or the default.
func (c *TuningConfig) GetCFARGuardPoints() int {
	if c.CFARGuardPoints == nil {
		return 2
	}
	return *c.CFARGuardPoints
}

// GetReflectorShape returns the parsed reflector_shape or the default.
func (c *TuningConfig) GetReflectorShape() ranging.ReflectorShape {
	if c.ReflectorShape == nil {
		return ranging.ShapeGeneric
	}
	s, err := parseReflectorShape(*c.ReflectorShape)
	if err != nil {
		return ranging.ShapeGeneric
	}
	return s
}

// GetPeakSorting returns the parsed peak_sorting or the default.
func (c *TuningConfig) GetPeakSorting() ranging.PeakSorting {
	if c.PeakSorting == nil {
		return ranging.SortStrongest
	}
	s, err := parsePeakSorting(*c.PeakSorting)
	if err != nil {
		return ranging.SortStrongest
	}
	return s
}

// GetPeakMergeM returns the peak_merge_m value or the default.
func (c *TuningConfig) GetPeakMergeM() float64 {
	if c.PeakMergeM == nil {
		return 0.005
	}
	return *c.PeakMergeM
}

// GetCloseRangeCancellation returns the close_range_cancellation value or
// the default.
func (c *TuningConfig) GetCloseRangeCancellation() bool {
	if c.CloseRangeCancellation == nil {
		return false
	}
	return *c.CloseRangeCancellation
}

// DetectorConfig assembles a ranging.DetectorConfig from the tuning values,
// applying defaults for every unset field.
func (c *TuningConfig) DetectorConfig() ranging.DetectorConfig {
	return ranging.DetectorConfig{
		StartM:                 c.GetStartM(),
		EndM:                   c.GetEndM(),
		MaxProfile:             ranging.Profile(c.GetMaxProfile()),
		MaxStepM:               c.GetMaxStepM(),
		SignalQuality:          c.GetSignalQuality(),
		Shape:                  c.GetReflectorShape(),
		Threshold:              c.GetThresholdMethod(),
		FixedAmplitudeValue:    c.GetFixedAmplitudeValue(),
		FixedStrengthValue:     c.GetFixedStrengthValue(),
		Sensitivity:            c.GetSensitivity(),
		Sorting:                c.GetPeakSorting(),
		CloseRangeCancellation: c.GetCloseRangeCancellation(),
		CFARWindowPoints:       c.GetCFARWindowPoints(),
		CFARGuardPoints:        c.GetCFARGuardPoints(),
		CalibrationSweeps:      c.GetCalibrationSweeps(),
		PeakMergeM:             c.GetPeakMergeM(),
	}
}
