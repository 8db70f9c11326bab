// Package orbit models a planar system of point masses under Newtonian
// gravity and advances it with a fixed-step 4th-order Runge-Kutta method.
//
// A [System] owns an ordered list of [Body] values. Its state is exposed as a
// condition vector of 4 values per body, (x, y, xDot, yDot), in insertion
// order:
//
//	sys := orbit.NewSystem()
//	sys.SetGravitationalConstant(1)
//	b, _ := orbit.NewBody(0, 0, 0, 0, 1)
//	sys.AddBody(b)
//	err := sys.StepRK4(0.01)
//
// Every failed operation leaves the system unchanged. Coincident bodies are
// reported as [ErrCoincidentBodies] instead of producing Inf or NaN.
package orbit
