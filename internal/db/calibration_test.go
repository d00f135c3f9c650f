package db

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/range.report/internal/ranging"
	"github.com/banshee-data/range.report/internal/timeutil"
)

func sampleCalibrationState() *ranging.CalibrationState {
	return &ranging.CalibrationState{
		Stage:                  ranging.StageReady,
		NoiseFloor:             []float64{10.5, 11.2, 9.8, 10.1},
		NoiseTemperatureC:      24.5,
		OffsetM:                0.00075,
		OffsetTemperatureC:     24.5,
		LeakageIQ:              []complex128{complex(40, 0.5), complex(35, -1.2), complex(28, 0.1)},
		LoopbackPhaseRef:       0,
		CloseRangeTemperatureC: 24.0,
		RecordedMean:           []float64{10.4, 10.9, 10.0, 10.2},
		RecordedStd:            []float64{0.3, 0.4, 0.2, 0.3},
		RecordedTemperatureC:   24.5,
	}
}

func TestSaveAndLoadCalibration(t *testing.T) {
	database := newTestDB(t)

	st := sampleCalibrationState()
	id, err := database.SaveCalibration(st)
	if err != nil {
		t.Fatalf("SaveCalibration failed: %v", err)
	}
	if id == "" {
		t.Fatal("SaveCalibration returned empty ID")
	}

	rec, err := database.CalibrationByID(id)
	if err != nil {
		t.Fatalf("CalibrationByID failed: %v", err)
	}
	if rec.Stage != "ready" {
		t.Errorf("stored stage %q, want ready", rec.Stage)
	}
	if rec.TemperatureC != 24.5 {
		t.Errorf("stored temperature %f, want 24.5", rec.TemperatureC)
	}
	if diff := cmp.Diff(st, rec.State); diff != "" {
		t.Errorf("calibration state did not round-trip:\n%s", diff)
	}
}

func TestCalibrationWithoutCloseRangeArtifacts(t *testing.T) {
	database := newTestDB(t)

	st := &ranging.CalibrationState{
		Stage:              ranging.StageReady,
		NoiseFloor:         []float64{5, 6, 5.5},
		NoiseTemperatureC:  20,
		OffsetM:            -0.0003,
		OffsetTemperatureC: 20,
	}
	id, err := database.SaveCalibration(st)
	if err != nil {
		t.Fatalf("SaveCalibration failed: %v", err)
	}
	rec, err := database.CalibrationByID(id)
	if err != nil {
		t.Fatalf("CalibrationByID failed: %v", err)
	}
	if len(rec.State.LeakageIQ) != 0 {
		t.Errorf("unexpected leakage artifacts: %v", rec.State.LeakageIQ)
	}
	if diff := cmp.Diff(st, rec.State); diff != "" {
		t.Errorf("calibration state did not round-trip:\n%s", diff)
	}
}

func TestLatestCalibration(t *testing.T) {
	database := newTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	database.clock = clock

	if _, err := database.LatestCalibration(); !errors.Is(err, ErrNoCalibration) {
		t.Fatalf("empty store: got %v, want ErrNoCalibration", err)
	}

	first := sampleCalibrationState()
	if _, err := database.SaveCalibration(first); err != nil {
		t.Fatalf("SaveCalibration failed: %v", err)
	}

	clock.Advance(time.Hour)
	second := sampleCalibrationState()
	second.OffsetM = 0.0012
	secondID, err := database.SaveCalibration(second)
	if err != nil {
		t.Fatalf("SaveCalibration failed: %v", err)
	}

	rec, err := database.LatestCalibration()
	if err != nil {
		t.Fatalf("LatestCalibration failed: %v", err)
	}
	if rec.ID != secondID {
		t.Errorf("LatestCalibration returned %s, want %s", rec.ID, secondID)
	}
	if rec.State.OffsetM != 0.0012 {
		t.Errorf("latest record offset %f, want 0.0012", rec.State.OffsetM)
	}
	if want := clock.Now().UTC(); !rec.CreatedAt.Equal(want) {
		t.Errorf("latest record created at %v, want %v", rec.CreatedAt, want)
	}
}

func TestSaveNilCalibration(t *testing.T) {
	database := newTestDB(t)
	if _, err := database.SaveCalibration(nil); err == nil {
		t.Error("SaveCalibration(nil) succeeded")
	}
}
