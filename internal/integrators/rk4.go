package integrators

import "github.com/san-kum/orbitsim/internal/dynamo"

// RK4 is the classical fixed-step 4th-order Runge-Kutta method.
// Stage increments are stored pre-multiplied by the step size.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

// Step returns the state one step of size dt after x. x is never modified,
// and no result is produced unless all four stage evaluations succeed.
func (r *RK4) Step(f dynamo.DeriveFunc, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	if err := r.stage(f, r.k1, x, t, dt); err != nil {
		return nil, err
	}

	x.AddScaled(r.scratch, r.k1, 0.5)
	if err := r.stage(f, r.k2, r.scratch, t+dt*0.5, dt); err != nil {
		return nil, err
	}

	x.AddScaled(r.scratch, r.k2, 0.5)
	if err := r.stage(f, r.k3, r.scratch, t+dt*0.5, dt); err != nil {
		return nil, err
	}

	x.AddScaled(r.scratch, r.k3, 1)
	if err := r.stage(f, r.k4, r.scratch, t+dt, dt); err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		result[i] = x[i] + ((r.k1[i]/6 + r.k2[i]/3) + (r.k3[i]/3 + r.k4[i]/6))
	}

	return result, nil
}

// stage stores dt*f(x, t) into k.
func (r *RK4) stage(f dynamo.DeriveFunc, k, x dynamo.State, t, dt float64) error {
	dx, err := f(x, t)
	if err != nil {
		return err
	}
	if len(dx) != len(k) {
		return dynamo.ErrDimensionMismatch
	}
	for i := range k {
		k[i] = dt * dx[i]
	}
	return nil
}
