package engine

import "io"

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output, overriding the config.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithValidation enables or disables the amplitude readback check before the first frame,
// overriding the config.
//
// Parameters:
//   - enabled: if true, the amplitude buffer is read back and compared with the host copy
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithValidation(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.validate = enabled
	}
}

// WithReportWriter sets where the validation report is printed. Defaults to stdout.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithReportWriter(w io.Writer) EngineBuilderOption {
	return func(e *engine) {
		e.report = w
	}
}
