// Command sweep-plot renders one processed frame to PNG: the filtered sweep,
// the active threshold curve, and the detected peaks. Useful for eyeballing
// threshold tuning against a simulated scene.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/range.report/internal/config"
	"github.com/banshee-data/range.report/internal/ranging"
	"github.com/banshee-data/range.report/internal/ranging/simsensor"
)

var (
	configPath = flag.String("config", "", "Path to a tuning JSON file (defaults apply when empty)")
	outFile    = flag.String("out", "sweep.png", "Output PNG path")
	targets    = flag.String("targets", "1.0:500", "Simulated targets as dist:amp[,dist:amp...]")
	noiseFloor = flag.Float64("noise", 10, "Simulated noise floor amplitude")
	noiseStd   = flag.Float64("noise-std", 1, "Simulated noise standard deviation")
	tempC      = flag.Float64("temp", 25, "Simulated sensor temperature in °C")
	seed       = flag.Int64("seed", 1, "Simulation random seed")
)

func main() {
	flag.Parse()

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

	ctx := context.Background()
	if _, err := detector.Calibrate(ctx); err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}

	sweep, err := sim.GetSweep(ctx, detector.Plan())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	res, dbg, err := detector.ProcessWithDebug(sweep, *tempC)
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}

	if err := renderFrame(dbg, *outFile); err != nil {
		log.Fatalf("Plot failed: %v", err)
	}

	for i := range res.DistancesM {
		log.Printf("Detection: %.3fm (%.1f dB)", res.DistancesM[i], res.StrengthsDB[i])
	}
	log.Printf("Wrote %s", *outFile)
}

func renderFrame(dbg *ranging.FrameDebug, path string) error {
	p := plot.New()
	p.Title.Text = "Filtered sweep and threshold"
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Amplitude"

	sweepPts := make(plotter.XYs, len(dbg.DistancesM))
	thrPts := make(plotter.XYs, len(dbg.DistancesM))
	for i := range dbg.DistancesM {
		sweepPts[i] = plotter.XY{X: dbg.DistancesM[i], Y: dbg.Filtered[i]}
		thrPts[i] = plotter.XY{X: dbg.DistancesM[i], Y: dbg.Threshold[i]}
	}

	sweepLine, err := plotter.NewLine(sweepPts)
	if err != nil {
		return fmt.Errorf("sweep line: %w", err)
	}
	sweepLine.Width = vg.Points(1)
	p.Add(sweepLine)
	p.Legend.Add("filtered", sweepLine)

	thrLine, err := plotter.NewLine(thrPts)
	if err != nil {
		return fmt.Errorf("threshold line: %w", err)
	}
	thrLine.Width = vg.Points(1)
	thrLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(thrLine)
	p.Legend.Add("threshold", thrLine)

	if len(dbg.Peaks) > 0 {
		peakPts := make(plotter.XYs, len(dbg.Peaks))
		for i, pk := range dbg.Peaks {
			peakPts[i] = plotter.XY{X: pk.DistanceM, Y: pk.Amplitude}
		}
		scatter, err := plotter.NewScatter(peakPts)
		if err != nil {
			return fmt.Errorf("peak scatter: %w", err)
		}
		scatter.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("peaks", scatter)
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
