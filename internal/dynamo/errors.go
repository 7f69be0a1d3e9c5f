package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the step size fell below the configured minimum.
	ErrStepTooSmall = errors.New("dynamo: timestep below minimum")

	// ErrStepRejected indicates an adaptive step exceeded its error tolerance.
	// The returned state is the input state and the caller should retry with
	// the suggested step.
	ErrStepRejected = errors.New("dynamo: step rejected by error control")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// IntegrationError wraps an error with the integration context it occurred in.
type IntegrationError struct {
	Time    float64
	Dt      float64
	State   State
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("t=%.6e dt=%.3e: %v", e.Time, e.Dt, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
