package ranging

import "math"

// biquad is one second-order IIR section in direct form II transposed.
type biquad struct {
	a0, a1, a2, b1, b2 float64
	z1, z2             float64
}

func (f *biquad) process(in float64) float64 {
	out := in*f.a0 + f.z1
	f.z1 = in*f.a1 - out*f.b1 + f.z2
	f.z2 = in*f.a2 - out*f.b2
	return out
}

func (f *biquad) reset() {
	f.z1, f.z2 = 0, 0
}

// newLowpassBiquad designs a second-order Butterworth low-pass section via
// the bilinear transform. cutoff is in cycles per sample with an implicit
// sample rate of 1; values near the Nyquist limit are clamped to keep the
// prewarp finite.
func newLowpassBiquad(cutoff float64) *biquad {
	if cutoff >= 0.499 {
		cutoff = 0.499
	}
	if cutoff <= 0 {
		cutoff = 1e-4
	}

	// Prewarped analog cutoff for a unit sample rate.
	w := 2.0 * math.Tan(math.Pi*cutoff)

	// Single conjugate pole pair of the order-2 Butterworth prototype.
	theta := math.Pi / 4.0
	pRe := -w * math.Sin(theta)
	pIm := w * math.Cos(theta)

	alpha := 4.0 - 4.0*pRe + pRe*pRe + pIm*pIm
	b1 := (-8.0 + 2.0*(pRe*pRe+pIm*pIm)) / alpha
	b2 := (4.0 + 4.0*pRe + pRe*pRe + pIm*pIm) / alpha

	return &biquad{
		a0: w * w / alpha,
		a1: 2.0 * w * w / alpha,
		a2: w * w / alpha,
		b1: b1,
		b2: b2,
	}
}

// distanceFilter applies a matched second-order low-pass along the distance
// axis, one section per subsweep. The cutoff scales inversely with the
// profile's envelope width so the impulse response approximates the matched
// filter for the subsweep's pulse shape.
type distanceFilter struct {
	sections []*biquad
}

// filterPad is the mirrored edge padding applied before the forward and
// backward passes to suppress startup transients.
const filterPad = 8

// newDistanceFilter builds one filter section per plan segment.
func newDistanceFilter(plan *SubsweepPlan) *distanceFilter {
	f := &distanceFilter{sections: make([]*biquad, len(plan.Segments))}
	for i, seg := range plan.Segments {
		// One envelope spans envelopeWidth/step samples; place the cutoff
		// at the corresponding spatial frequency.
		cutoff := seg.StepM / seg.Profile.EnvelopeWidthM()
		f.sections[i] = newLowpassBiquad(cutoff)
	}
	return f
}

// Apply filters each segment of the raw amplitude buffer in place-safe
// fashion and returns a new buffer of identical length. The filter runs
// forward and backward (zero phase) so peak locations are preserved.
func (f *distanceFilter) Apply(plan *SubsweepPlan, raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, seg := range plan.Segments {
		src := raw[seg.StartIdx : seg.StartIdx+seg.NumPoints]
		dst := out[seg.StartIdx : seg.StartIdx+seg.NumPoints]
		filtfilt(f.sections[i], src, dst)
	}
	return out
}

// filtfilt runs a zero-phase forward/backward pass of one biquad section
// over src into dst, using mirrored edge padding on both ends.
func filtfilt(sec *biquad, src, dst []float64) {
	n := len(src)
	if n == 0 {
		return
	}
	pad := filterPad
	if pad > n-1 {
		pad = n - 1
	}

	buf := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		buf[i] = src[pad-i] // mirrored left edge
	}
	copy(buf[pad:], src)
	for i := 0; i < pad; i++ {
		buf[pad+n+i] = src[n-2-i] // mirrored right edge
	}

	sec.reset()
	for i := range buf {
		buf[i] = sec.process(buf[i])
	}
	sec.reset()
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = sec.process(buf[i])
	}

	copy(dst, buf[pad:pad+n])
}
