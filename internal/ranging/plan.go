package ranging

import "math"

// Profile is the pulse-length class. Longer pulses raise SNR but widen the
// envelope (worse depth resolution) and push the direct-leakage floor
// further out from the sensor.
type Profile int

const (
	Profile1 Profile = 1 + iota
	Profile2
	Profile3
	Profile4
	Profile5

	ProfileMax = Profile5
)

// Geometry constants for the planner.
const (
	// BaseStepM is the native spacing of distance points; all step lengths
	// are integer multiples of it.
	BaseStepM = 0.0025

	// MinMeasurableM is the closest distance any profile can measure, with
	// close-range cancellation active.
	MinMeasurableM = 0.01

	// MaxMeasurableM bounds the supported range.
	MaxMeasurableM = 20.0

	// pointsPerEnvelope is the target number of distance points across one
	// pulse envelope; the per-profile step length derives from it.
	pointsPerEnvelope = 4

	// maxSubsweeps bounds the number of segments in one plan.
	maxSubsweeps = 4

	// maxHWAAS is the hardware cap on the per-sample averaging count.
	maxHWAAS = 511
)

// envelopeWidthM is the half-power envelope width per profile, in meters.
var envelopeWidthM = map[Profile]float64{
	Profile1: 0.04,
	Profile2: 0.07,
	Profile3: 0.14,
	Profile4: 0.19,
	Profile5: 0.32,
}

// leakageFreeStartM is the closest distance at which a profile is free of
// direct-leakage interference without close-range cancellation.
var leakageFreeStartM = map[Profile]float64{
	Profile1: 0.10,
	Profile2: 0.28,
	Profile3: 0.56,
	Profile4: 0.76,
	Profile5: 1.28,
}

// EnvelopeWidthM returns the half-power envelope width for a profile.
func (p Profile) EnvelopeWidthM() float64 { return envelopeWidthM[p] }

// LeakageFreeStartM returns the leakage-free start distance for a profile.
func (p Profile) LeakageFreeStartM() float64 { return leakageFreeStartM[p] }

// Segment is one subsweep: a contiguous run of distance points measured with
// a single profile, step spacing, and averaging count. StartIdx indexes into
// the flat raw sweep buffer (segment descriptors into one arena, no
// per-segment allocation per frame).
type Segment struct {
	Profile   Profile
	StepM     float64
	HWAAS     int
	StartM    float64
	NumPoints int
	StartIdx  int
}

// EndM returns the distance of the segment's last point.
func (s Segment) EndM() float64 {
	return s.StartM + float64(s.NumPoints-1)*s.StepM
}

// DistanceAt returns the distance of point i within the segment.
func (s Segment) DistanceAt(i int) float64 {
	return s.StartM + float64(i)*s.StepM
}

// SubsweepPlan is the derived acquisition layout for one detector config.
// Adjacent segments share their boundary point: a segment's first point lies
// at the previous segment's last distance, so assembly can average the two
// measurements of that point.
type SubsweepPlan struct {
	Segments []Segment

	// DisableTx requests receive-only sweeps (noise-floor estimation).
	DisableTx bool

	// NeedIQ requests complex IQ data alongside amplitudes (close-range
	// leakage characterization and cancellation).
	NeedIQ bool
}

// RawPoints is the total point count of the flat raw buffer, including the
// duplicated boundary points between adjacent segments.
func (p *SubsweepPlan) RawPoints() int {
	n := 0
	for _, s := range p.Segments {
		n += s.NumPoints
	}
	return n
}

// AssembledDistances returns the logical distance axis after overlap
// merging: duplicated boundary points appear once.
func (p *SubsweepPlan) AssembledDistances() []float64 {
	out := make([]float64, 0, p.RawPoints())
	for segIdx, s := range p.Segments {
		start := 0
		if segIdx > 0 {
			start = 1 // boundary point already emitted by the previous segment
		}
		for i := start; i < s.NumPoints; i++ {
			out = append(out, s.DistanceAt(i))
		}
	}
	return out
}

// AssembledPoints is the length of the logical distance axis.
func (p *SubsweepPlan) AssembledPoints() int {
	n := p.RawPoints()
	if len(p.Segments) > 1 {
		n -= len(p.Segments) - 1
	}
	return n
}

// Assemble merges a flat raw vector into the logical distance axis by
// averaging the duplicated boundary point of each adjacent segment pair.
// The input length must equal RawPoints.
func (p *SubsweepPlan) Assemble(raw []float64) []float64 {
	out := make([]float64, 0, p.AssembledPoints())
	for segIdx, s := range p.Segments {
		seg := raw[s.StartIdx : s.StartIdx+s.NumPoints]
		start := 0
		if segIdx > 0 {
			// Average the shared boundary point with the previous
			// segment's measurement of the same distance.
			out[len(out)-1] = 0.5 * (out[len(out)-1] + seg[0])
			start = 1
		}
		out = append(out, seg[start:]...)
	}
	return out
}

// withoutTx returns a copy of the plan requesting receive-only sweeps.
func (p *SubsweepPlan) withoutTx() *SubsweepPlan {
	clone := *p
	clone.DisableTx = true
	return &clone
}

// stepForProfile derives the step spacing for a profile: wide enough to keep
// roughly pointsPerEnvelope points across the envelope, quantized down to a
// multiple of BaseStepM, and capped by the user limit.
func stepForProfile(p Profile, maxStepM float64) float64 {
	step := envelopeWidthM[p] / pointsPerEnvelope
	if maxStepM > 0 && step > maxStepM {
		step = maxStepM
	}
	units := math.Floor(step/BaseStepM + 1e-9)
	if units < 1 {
		units = 1
	}
	return units * BaseStepM
}

// hwaasForSegment derives the averaging count needed to reach the signal
// quality target at the far end of a segment. Received power falls ~1/d^4
// for generic reflectors and ~1/d^2 for planar ones, and longer profiles
// transmit proportionally more energy per pulse.
func hwaasForSegment(p Profile, farM, signalQuality float64, shape ReflectorShape) int {
	falloff := 4.0
	if shape == ShapePlanar {
		falloff = 2.0
	}
	gain := envelopeWidthM[p] / envelopeWidthM[Profile1]
	d := math.Max(farM, MinMeasurableM)
	h := math.Ceil(math.Pow(10, signalQuality/10) * math.Pow(d, falloff) / gain)
	if h < 1 {
		return 1
	}
	if h > maxHWAAS {
		return maxHWAAS
	}
	return int(h)
}

// profileForStart returns the longest profile free of leakage interference
// at the given start distance, or Profile1 when even the shortest profile
// would see leakage (close-range territory).
func profileForStart(startM float64, cap Profile) Profile {
	best := Profile1
	for p := Profile1; p <= cap; p++ {
		if leakageFreeStartM[p] <= startM {
			best = p
		}
	}
	return best
}

// PlanSubsweeps derives the segment layout for a validated config. Starting
// at the configured start distance with the shortest leakage-compatible
// profile, it steps up through profiles at their leakage-free boundaries
// until the cap, recomputing step spacing and averaging per segment.
// Deterministic; no side effects.
func PlanSubsweeps(cfg DetectorConfig) (*SubsweepPlan, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan := &SubsweepPlan{
		NeedIQ: cfg.CloseRangeCancellation,
	}

	cur := cfg.StartM
	profile := profileForStart(cfg.StartM, cfg.MaxProfile)
	rawIdx := 0

	for cur < cfg.EndM-1e-9 {
		segEnd := cfg.EndM
		last := len(plan.Segments) == maxSubsweeps-1
		if !last && profile < cfg.MaxProfile {
			if b := leakageFreeStartM[profile+1]; b > cur+1e-9 && b < cfg.EndM-1e-9 {
				segEnd = b
			}
		}

		step := stepForProfile(profile, cfg.MaxStepM)
		num := int(math.Ceil((segEnd-cur)/step-1e-9)) + 1
		if num < 2 {
			num = 2
		}

		plan.Segments = append(plan.Segments, Segment{
			Profile:   profile,
			StepM:     step,
			HWAAS:     hwaasForSegment(profile, cur+float64(num-1)*step, cfg.SignalQuality, cfg.Shape),
			StartM:    cur,
			NumPoints: num,
			StartIdx:  rawIdx,
		})
		rawIdx += num

		cur = cur + float64(num-1)*step
		if profile < cfg.MaxProfile && len(plan.Segments) < maxSubsweeps {
			profile++
		}
	}

	if len(plan.Segments) == 0 {
		return nil, configErrorf("interval [%.3f, %.3f] produced no segments", cfg.StartM, cfg.EndM)
	}
	return plan, nil
}
