// Package units provides shared constants and conversions for distances and
// amplitude ratios used across the detector.
package units

import "math"

// Unit constants
const (
	Meters      = "m"
	Centimeters = "cm"
	Millimeters = "mm"
)

// ValidUnits contains all valid distance unit values
var ValidUnits = []string{Meters, Centimeters, Millimeters}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, cm, mm"
}

// ConvertDistance converts a distance from meters to the target units.
// Internally the detector works in meters.
func ConvertDistance(distanceM float64, targetUnits string) float64 {
	switch targetUnits {
	case Millimeters:
		return distanceM * 1000.0
	case Centimeters:
		return distanceM * 100.0
	case Meters:
		return distanceM
	default:
		return distanceM // default to meters if unknown unit
	}
}

// AmplitudeToDB converts a linear amplitude to decibels. Amplitudes at or
// below zero map to a large negative floor rather than -Inf so downstream
// arithmetic stays total.
func AmplitudeToDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return -300.0
	}
	return 20.0 * math.Log10(amplitude)
}

// DBToAmplitude converts decibels to a linear amplitude.
func DBToAmplitude(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}
