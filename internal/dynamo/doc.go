// Package dynamo provides the numerical primitives shared by the reactor
// and the integrators.
//
// The package defines the fundamental interfaces and types for advancing
// ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [AdaptiveIntegrator]: error-controlled integrator that may reject a step
//
// # Example
//
//	integ := integrators.NewRK45()
//	x, dtNext, err := integ.StepAdaptive(sys, x0, 0, 1e-6, 1e-6)
//	if errors.Is(err, dynamo.ErrStepRejected) {
//	    // retry with dtNext
//	}
//
// # Thread Safety
//
// Integrators may keep scratch buffers and are NOT thread-safe. Give each
// reactor its own integrator.
package dynamo
