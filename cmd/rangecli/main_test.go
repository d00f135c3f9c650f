package main

import (
	"testing"

	"github.com/banshee-data/range.report/internal/units"
)

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		unit   string
		want   string
	}{
		{1.004, units.Meters, "1.004m"},
		{1.004, units.Centimeters, "100.40cm"},
		{1.004, units.Millimeters, "1004.0mm"},
		{0.000625, units.Millimeters, "0.6mm"},
		{-0.0015, units.Millimeters, "-1.5mm"},
	}
	for _, tc := range tests {
		if got := formatDistance(tc.meters, tc.unit); got != tc.want {
			t.Errorf("formatDistance(%v, %q) = %q, want %q", tc.meters, tc.unit, got, tc.want)
		}
	}
}
