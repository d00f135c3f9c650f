// Package simsensor provides a deterministic simulated acquisition layer
// implementing ranging.Sensor. It synthesizes amplitude sweeps from point
// targets over a flat noise floor, models direct leakage near the sensor
// with per-frame loopback phase jitter, and follows a configurable
// temperature. Used by tests and the CLI in place of real hardware.
package simsensor

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/banshee-data/range.report/internal/ranging"
)

// Target is one simulated point reflector.
type Target struct {
	DistanceM float64
	Amplitude float64
}

// ParseTargets parses a "dist:amp[,dist:amp...]" scene description, the form
// the CLI tools take on their -targets flag. An empty string is an empty
// scene.
func ParseTargets(s string) ([]Target, error) {
	if s == "" {
		return nil, nil
	}
	var out []Target
	for _, part := range strings.Split(s, ",") {
		fields := strings.SplitN(part, ":", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("target %q must be dist:amp", part)
		}
		dist, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target distance %q: %v", fields[0], err)
		}
		amp, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target amplitude %q: %v", fields[1], err)
		}
		out = append(out, Target{DistanceM: dist, Amplitude: amp})
	}
	return out, nil
}

// Config describes the simulated environment.
type Config struct {
	// Targets in the scene. Each produces a pulse-envelope response
	// centered at its distance.
	Targets []Target

	// NoiseFloor is the mean receive-only amplitude. NoiseStd adds
	// deterministic pseudo-random variation around it; zero gives an
	// exactly flat floor.
	NoiseFloor float64
	NoiseStd   float64

	// Seed initializes the pseudo-random source so runs are reproducible.
	Seed int64

	// TemperatureC is reported by GetTemperature; mutable via SetTemperature.
	TemperatureC float64

	// LeakageAmplitude and LeakageDecayM model the direct transmitter to
	// receiver path: amplitude LeakageAmplitude*exp(-d/LeakageDecayM).
	// Zero amplitude disables leakage.
	LeakageAmplitude float64
	LeakageDecayM    float64

	// PhaseJitterStdRad is the per-frame loopback phase jitter applied to
	// both the leakage and the loopback sample, as real hardware jitters
	// them together.
	PhaseJitterStdRad float64

	// TimingOffsetM shifts every response by a fixed per-unit timing
	// error, encoded in the loopback phase for offset calibration.
	TimingOffsetM float64
}

// Sensor is a simulated ranging.Sensor.
type Sensor struct {
	mu    sync.Mutex
	cfg   Config
	rng   *rand.Rand
	phase float64 // current frame's loopback phase
}

// carrierWavelengthM matches the detector's loopback phase to distance
// conversion so simulated timing offsets round-trip through calibration.
const carrierWavelengthM = 0.005

// New creates a simulated sensor for the given environment.
func New(cfg Config) *Sensor {
	if cfg.LeakageDecayM <= 0 {
		cfg.LeakageDecayM = 0.1
	}
	s := &Sensor{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	s.phase = s.basePhase()
	return s
}

// SetTemperature changes the reported sensor temperature.
func (s *Sensor) SetTemperature(tempC float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.TemperatureC = tempC
}

// SetTargets replaces the simulated scene, e.g. to introduce an object
// after a no-target calibration.
func (s *Sensor) SetTargets(targets []Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Targets = append([]Target(nil), targets...)
}

// basePhase is the loopback phase encoding the configured timing offset.
func (s *Sensor) basePhase() float64 {
	return s.cfg.TimingOffsetM * 2 / carrierWavelengthM * 2 * math.Pi
}

// GetSweep synthesizes one measurement cycle for the plan.
func (s *Sensor) GetSweep(ctx context.Context, plan *ranging.SubsweepPlan) (*ranging.Sweep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Advance the per-frame loopback jitter.
	s.phase = s.basePhase()
	if s.cfg.PhaseJitterStdRad > 0 {
		s.phase += s.rng.NormFloat64() * s.cfg.PhaseJitterStdRad
	}

	n := plan.RawPoints()
	sweep := &ranging.Sweep{Amplitude: make([]float64, n)}
	if plan.NeedIQ {
		sweep.IQ = make([]complex128, n)
		sweep.Loopback = cmplx.Exp(complex(0, s.phase))
		sweep.LoopbackValid = true
	}

	for _, seg := range plan.Segments {
		width := seg.Profile.EnvelopeWidthM()
		for i := 0; i < seg.NumPoints; i++ {
			d := seg.DistanceAt(i)
			idx := seg.StartIdx + i

			noise := s.cfg.NoiseFloor
			if s.cfg.NoiseStd > 0 {
				noise += s.rng.NormFloat64() * s.cfg.NoiseStd
			}
			if noise < 0 {
				noise = 0
			}

			if plan.DisableTx {
				sweep.Amplitude[idx] = noise
				if plan.NeedIQ {
					sweep.IQ[idx] = complex(noise, 0)
				}
				continue
			}

			signal := complex(noise, 0)
			for _, tgt := range s.cfg.Targets {
				delta := (d - (tgt.DistanceM + s.cfg.TimingOffsetM)) / width
				env := tgt.Amplitude * math.Exp(-delta*delta)
				signal += cmplx.Rect(env, 4*math.Pi*d/carrierWavelengthM)
			}
			if s.cfg.LeakageAmplitude > 0 {
				leak := s.cfg.LeakageAmplitude * math.Exp(-d/s.cfg.LeakageDecayM)
				signal += cmplx.Rect(leak, s.phase)
			}

			sweep.Amplitude[idx] = cmplx.Abs(signal)
			if plan.NeedIQ {
				sweep.IQ[idx] = signal
			}
		}
	}
	return sweep, nil
}

// GetLoopback returns the current loopback sample for a segment.
func (s *Sensor) GetLoopback(ctx context.Context, segment int) (complex128, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cmplx.Exp(complex(0, s.phase)), nil
}

// GetTemperature returns the configured sensor temperature.
func (s *Sensor) GetTemperature(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.TemperatureC, nil
}
