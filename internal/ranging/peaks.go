package ranging

// Peak is one detected object response on the assembled distance axis.
type Peak struct {
	// DistanceM is the sub-sample interpolated distance (before offset
	// compensation is applied by the orchestrator).
	DistanceM float64

	// Amplitude is the filtered amplitude at the peak sample.
	Amplitude float64

	// StrengthDB is the reflectivity strength; filled in by the
	// orchestrator once the noise floor at the peak is known.
	StrengthDB float64

	// Interpolated reports whether the quadratic refinement moved the peak
	// off its integer sample.
	Interpolated bool

	index int // assembled-axis sample index of the local maximum
}

// nearEdgeRatio is the fraction of the threshold the first distance point
// must exceed to raise the near-edge flag when no complete peak forms there.
const nearEdgeRatio = 0.8

// findPeaks scans the assembled filtered sweep against the threshold curve.
// Index i is a candidate iff it is a strict local maximum and all three of
// i-1, i, i+1 exceed the threshold at their own indices. Candidates closer
// than mergeM are merged keeping the stronger, and each surviving peak is
// refined by the closed-form vertex of the parabola through its three
// samples, clamped between the neighbors.
func findPeaks(filtered, threshold, distances []float64, mergeM float64) []Peak {
	var peaks []Peak
	for i := 1; i < len(filtered)-1; i++ {
		if filtered[i] <= filtered[i-1] || filtered[i] <= filtered[i+1] {
			continue
		}
		if filtered[i-1] <= threshold[i-1] || filtered[i] <= threshold[i] || filtered[i+1] <= threshold[i+1] {
			continue
		}
		peaks = append(peaks, Peak{
			DistanceM: interpolatePeak(filtered, distances, i),
			Amplitude: filtered[i],
			index:     i,
		})
		if peaks[len(peaks)-1].DistanceM != distances[i] {
			peaks[len(peaks)-1].Interpolated = true
		}
	}
	return mergePeaks(peaks, mergeM)
}

// interpolatePeak returns the sub-sample distance of the parabola vertex
// through samples i-1, i, i+1, clamped to the segment between the neighbor
// distances. For an exact parabola this recovers the true vertex.
func interpolatePeak(filtered, distances []float64, i int) float64 {
	y0, y1, y2 := filtered[i-1], filtered[i], filtered[i+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return distances[i]
	}
	// Vertex offset in samples, in (-1, 1) for a strict local maximum.
	dx := 0.5 * (y0 - y2) / denom
	if dx < -1 {
		dx = -1
	}
	if dx > 1 {
		dx = 1
	}
	if dx < 0 {
		return distances[i] + dx*(distances[i]-distances[i-1])
	}
	return distances[i] + dx*(distances[i+1]-distances[i])
}

// mergePeaks collapses candidates closer than mergeM, keeping the stronger.
// Input is ordered by ascending distance (scan order).
func mergePeaks(peaks []Peak, mergeM float64) []Peak {
	if len(peaks) < 2 || mergeM <= 0 {
		return peaks
	}
	merged := peaks[:1]
	for _, p := range peaks[1:] {
		last := &merged[len(merged)-1]
		if p.DistanceM-last.DistanceM < mergeM {
			if p.Amplitude > last.Amplitude {
				*last = p
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// nearEdge reports whether the sweep's first distance point exceeds a
// fraction of its threshold without contributing to a complete three-point
// peak, suggesting the true peak lies just outside the measured interval.
func nearEdge(filtered, threshold []float64, peaks []Peak) bool {
	if len(filtered) == 0 {
		return false
	}
	if filtered[0] <= nearEdgeRatio*threshold[0] {
		return false
	}
	for _, p := range peaks {
		if p.index <= 1 {
			return false
		}
	}
	return true
}
