// Command rangecli runs a distance detector against the simulated sensor:
// it calibrates, processes a batch of frames, and records the detections to
// a sqlite session. Intended for tuning configs and inspecting detector
// behaviour without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/range.report/internal/config"
	"github.com/banshee-data/range.report/internal/db"
	"github.com/banshee-data/range.report/internal/ranging"
	"github.com/banshee-data/range.report/internal/ranging/simsensor"
	"github.com/banshee-data/range.report/internal/units"
	"github.com/banshee-data/range.report/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to a tuning JSON file (defaults apply when empty)")
	dbFile     = flag.String("db", "ranging.db", "Path to the sqlite database")
	migrations = flag.String("migrations", "migrations", "Path to the migrations directory")
	frames     = flag.Int("frames", 10, "Number of frames to process")
	useStored  = flag.Bool("use-stored-calibration", false, "Load the most recent stored calibration instead of recalibrating")
	outUnits   = flag.String("units", units.Meters, "Output units for reported distances ("+units.GetValidUnitsString()+")")
	showVer    = flag.Bool("version", false, "Print version information and exit")

	// Simulated environment
	targets    = flag.String("targets", "1.0:500", "Simulated targets as dist:amp[,dist:amp...]")
	noiseFloor = flag.Float64("noise", 10, "Simulated noise floor amplitude")
	noiseStd   = flag.Float64("noise-std", 1, "Simulated noise standard deviation")
	tempC      = flag.Float64("temp", 25, "Simulated sensor temperature in °C")
	seed       = flag.Int64("seed", 1, "Simulation random seed")
)

// formatDistance renders a distance held in meters in the requested units.
func formatDistance(meters float64, unit string) string {
	v := units.ConvertDistance(meters, unit)
	switch unit {
	case units.Millimeters:
		return fmt.Sprintf("%.1f%s", v, unit)
	case units.Centimeters:
		return fmt.Sprintf("%.2f%s", v, unit)
	default:
		return fmt.Sprintf("%.3f%s", v, units.Meters)
	}
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("rangecli %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if !units.IsValid(*outUnits) {
		log.Fatalf("Invalid units %q (valid: %s)", *outUnits, units.GetValidUnitsString())
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	tgts, err := simsensor.ParseTargets(*targets)
	if err != nil {
		log.Fatalf("Failed to parse targets: %v", err)
	}

	sim := simsensor.New(simsensor.Config{
		Targets:      tgts,
		NoiseFloor:   *noiseFloor,
		NoiseStd:     *noiseStd,
		Seed:         *seed,
		TemperatureC: *tempC,
	})

	detector, err := ranging.NewDetector(sim, tuning.DetectorConfig())
	if err != nil {
		log.Fatalf("Failed to create detector: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	if err := database.MigrateUp(*migrations); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	var calibrationID string

	if *useStored {
		rec, err := database.LatestCalibration()
		if err != nil {
			log.Fatalf("Failed to load stored calibration: %v", err)
		}
		if err := detector.SetCalibration(rec.State); err != nil {
			log.Fatalf("Stored calibration does not fit the configured range: %v", err)
		}
		calibrationID = rec.ID
		log.Printf("Loaded calibration %s (stage %s, %.1f°C)", rec.ID, rec.Stage, rec.TemperatureC)
	} else {
		st, err := detector.Calibrate(ctx)
		if err != nil {
			log.Fatalf("Calibration failed: %v", err)
		}
		calibrationID, err = database.SaveCalibration(st)
		if err != nil {
			log.Fatalf("Failed to save calibration: %v", err)
		}
		log.Printf("Calibrated (stage %s, offset %s) and saved as %s",
			st.Stage, formatDistance(st.OffsetM, units.Millimeters), calibrationID)
	}

	session, err := database.CreateSession(detector.Config(), calibrationID)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	log.Printf("Recording session %s", session.ID)

	for i := 0; i < *frames; i++ {
		sweep, err := sim.GetSweep(ctx, detector.Plan())
		if err != nil {
			log.Fatalf("Frame %d: sweep failed: %v", i, err)
		}
		temp, err := sim.GetTemperature(ctx)
		if err != nil {
			log.Fatalf("Frame %d: temperature read failed: %v", i, err)
		}
		res, err := detector.Process(sweep, temp)
		if err != nil {
			log.Fatalf("Frame %d: processing failed: %v", i, err)
		}
		if err := database.RecordFrame(session.ID, int64(i), res); err != nil {
			log.Fatalf("Frame %d: recording failed: %v", i, err)
		}

		for j := range res.DistancesM {
			log.Printf("Frame %d: %s (%.1f dB)", i, formatDistance(res.DistancesM[j], *outUnits), res.StrengthsDB[j])
		}
		if len(res.DistancesM) == 0 {
			log.Printf("Frame %d: no detections (near_edge=%v)", i, res.NearEdge)
		}
		if res.CalibrationNeeded {
			log.Printf("Frame %d: calibration update recommended (%.1f°C)", i, temp)
		}
	}
}
