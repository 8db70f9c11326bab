// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental types shared by the integrators and
// the orbital model:
//
//   - [State]: vector representing system state
//   - [DeriveFunc]: fallible derivative field dX/dt = f(X, t)
//   - [Integrator]: fixed-step numerical integrator interface
//   - [Hamiltonian]: energy of a state, for drift metrics
//   - [Metric] and [Observer]: hooks notified on every recorded sample
//
// # Example
//
//	integ := integrators.NewRK4()
//	next, err := integ.Step(sys.EvaluateDerivative, x, t, dt)
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent mutation. Integrators keep
// scratch buffers and must not be shared between goroutines.
package dynamo
