package ranging

// Sweep is one measurement cycle delivered by the acquisition layer: a flat
// amplitude buffer with one value per raw distance point, laid out to match
// the plan's segment descriptors. IQ carries the matching complex samples
// when the plan requested them (close-range cancellation); otherwise nil.
type Sweep struct {
	Amplitude []float64
	IQ        []complex128

	// Loopback is the electronic loopback sample taken alongside the sweep.
	// Required per frame when close-range cancellation is active; the
	// LoopbackValid flag distinguishes a missing sample from a zero one.
	Loopback      complex128
	LoopbackValid bool
}

// HasIQ reports whether the sweep carries complex samples for every point.
func (s *Sweep) HasIQ() bool {
	return len(s.IQ) > 0 && len(s.IQ) == len(s.Amplitude)
}
