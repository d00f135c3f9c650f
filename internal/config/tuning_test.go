package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/range.report/internal/ranging"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "start_m": 0.1,
  "end_m": 2.0,
  "threshold_method": "recorded",
  "sensitivity": 0.3,
  "peak_sorting": "closest",
  "close_range_cancellation": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.StartM == nil || *cfg.StartM != 0.1 {
		t.Errorf("Expected StartM 0.1, got %v", cfg.StartM)
	}
	if cfg.EndM == nil || *cfg.EndM != 2.0 {
		t.Errorf("Expected EndM 2.0, got %v", cfg.EndM)
	}
	if cfg.GetThresholdMethod() != ranging.ThresholdRecorded {
		t.Errorf("Expected recorded threshold, got %v", cfg.GetThresholdMethod())
	}
	if cfg.GetSensitivity() != 0.3 {
		t.Errorf("Expected Sensitivity 0.3, got %f", cfg.GetSensitivity())
	}
	if cfg.GetPeakSorting() != ranging.SortClosest {
		t.Errorf("Expected closest sorting, got %v", cfg.GetPeakSorting())
	}
	if !cfg.GetCloseRangeCancellation() {
		t.Error("Expected close_range_cancellation true")
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "start_m": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name: "negative start",
			cfg: &TuningConfig{
				StartM: ptrFloat64(-0.5),
			},
			wantErr: true,
		},
		{
			name: "end before start",
			cfg: &TuningConfig{
				StartM: ptrFloat64(1.0),
				EndM:   ptrFloat64(0.5),
			},
			wantErr: true,
		},
		{
			name: "sensitivity zero",
			cfg: &TuningConfig{
				Sensitivity: ptrFloat64(0),
			},
			wantErr: true,
		},
		{
			name: "sensitivity above one",
			cfg: &TuningConfig{
				Sensitivity: ptrFloat64(1.5),
			},
			wantErr: true,
		},
		{
			name: "unknown threshold method",
			cfg: &TuningConfig{
				ThresholdMethod: ptrString("percentile"),
			},
			wantErr: true,
		},
		{
			name: "unknown reflector shape",
			cfg: &TuningConfig{
				ReflectorShape: ptrString("spherical"),
			},
			wantErr: true,
		},
		{
			name: "unknown peak sorting",
			cfg: &TuningConfig{
				PeakSorting: ptrString("weakest"),
			},
			wantErr: true,
		},
		{
			name: "zero calibration sweeps",
			cfg: &TuningConfig{
				CalibrationSweeps: ptrInt(0),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.GetStartM() != 0.25 {
		t.Errorf("Expected 0.25, got %f", cfg.GetStartM())
	}
	if cfg.GetThresholdMethod() != ranging.ThresholdCFAR {
		t.Errorf("Expected cfar, got %v", cfg.GetThresholdMethod())
	}
	if cfg.GetCalibrationSweeps() != 20 {
		t.Errorf("Expected 20, got %d", cfg.GetCalibrationSweeps())
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	// Partial config: only override the range; everything else should keep
	// defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialJSON := `{
  "end_m": 5.0
}`
	if err := os.WriteFile(configPath, []byte(partialJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load partial config: %v", err)
	}

	if cfg.GetEndM() != 5.0 {
		t.Errorf("Expected overridden EndM 5.0, got %f", cfg.GetEndM())
	}
	if cfg.GetStartM() != 0.25 {
		t.Errorf("Expected default StartM 0.25, got %f", cfg.GetStartM())
	}
	if cfg.GetSensitivity() != 0.5 {
		t.Errorf("Expected default Sensitivity 0.5, got %f", cfg.GetSensitivity())
	}
	if cfg.GetPeakSorting() != ranging.SortStrongest {
		t.Errorf("Expected default strongest sorting, got %v", cfg.GetPeakSorting())
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestDetectorConfigFromDefaults(t *testing.T) {
	cfg := &TuningConfig{} // empty config: all defaults
	dc := cfg.DetectorConfig()

	if dc.StartM != 0.25 || dc.EndM != 3.0 {
		t.Errorf("range = %f..%f, want 0.25..3.0", dc.StartM, dc.EndM)
	}
	if dc.Threshold != ranging.ThresholdCFAR {
		t.Errorf("threshold = %v, want cfar", dc.Threshold)
	}
	if dc.CFARWindowPoints != 5 || dc.CFARGuardPoints != 2 {
		t.Errorf("cfar window/guard = %d/%d, want 5/2", dc.CFARWindowPoints, dc.CFARGuardPoints)
	}
	if dc.Shape != ranging.ShapeGeneric {
		t.Errorf("shape = %v, want generic", dc.Shape)
	}

	// The assembled config must pass the detector's own validation.
	if err := dc.Validate(); err != nil {
		t.Errorf("default detector config invalid: %v", err)
	}
}

func TestDetectorConfigOverrides(t *testing.T) {
	cfg := &TuningConfig{
		StartM:          ptrFloat64(0.05),
		EndM:            ptrFloat64(1.0),
		ThresholdMethod: ptrString("fixed_amplitude"),
		MaxProfile:      ptrInt(2),
	}
	dc := cfg.DetectorConfig()
	if dc.StartM != 0.05 || dc.EndM != 1.0 {
		t.Errorf("range = %f..%f, want 0.05..1.0", dc.StartM, dc.EndM)
	}
	if dc.Threshold != ranging.ThresholdFixedAmplitude {
		t.Errorf("threshold = %v, want fixed amplitude", dc.Threshold)
	}
	if dc.MaxProfile != ranging.Profile2 {
		t.Errorf("max profile = %v, want profile 2", dc.MaxProfile)
	}
}
