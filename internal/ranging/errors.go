package ranging

import "fmt"

// ConfigError reports a detector configuration that cannot be planned or
// processed: geometrically infeasible ranges, incompatible threshold-method
// parameters, or CFAR windows that exceed the available range even after
// narrowing at the edges.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "ranging: invalid configuration: " + e.Reason
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// CalibrationError reports a hard acquisition failure during a calibration
// step. No partial state is committed for the failing step.
type CalibrationError struct {
	Step string
	Err  error
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("ranging: calibration step %q failed: %v", e.Step, e.Err)
}

func (e *CalibrationError) Unwrap() error { return e.Err }

// StateError reports a Process call made before the calibration steps
// required by the active threshold method have completed.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return "ranging: invalid detector state: " + e.Reason
}
