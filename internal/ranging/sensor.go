package ranging

import "context"

// Sensor is the external acquisition layer. Implementations deliver raw
// sweep data matching a plan's segment layout, electronic loopback samples,
// and the sensor temperature. Timeouts on acquisition are the caller's
// responsibility via the context.
type Sensor interface {
	// GetSweep performs one measurement cycle laid out per the plan. When
	// plan.DisableTx is set the sweep is receive-only noise; when
	// plan.NeedIQ is set the sweep carries complex samples and a loopback
	// sample.
	GetSweep(ctx context.Context, plan *SubsweepPlan) (*Sweep, error)

	// GetLoopback routes the transmitted pulse electronically to the
	// receiver for the given segment and returns the complex sample.
	GetLoopback(ctx context.Context, segment int) (complex128, error)

	// GetTemperature returns the sensor temperature in degrees Celsius.
	GetTemperature(ctx context.Context) (float64, error)
}
