package orbit

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

var _ dynamo.Hamiltonian = (*System)(nil)

func (s *System) checkCondition(x dynamo.State) error {
	if len(s.bodies) == 0 {
		return ErrEmptySystem
	}
	if len(x) != 4*len(s.bodies) {
		return fmt.Errorf("%w: got %d values for %d bodies", ErrSizeMismatch, len(x), len(s.bodies))
	}
	return nil
}

// Energy returns the total kinetic plus gravitational potential energy of
// condition x.
func (s *System) Energy(x dynamo.State) (float64, error) {
	if err := s.checkCondition(x); err != nil {
		return 0, err
	}

	n := len(s.bodies)
	ke := 0.0
	pe := 0.0

	for i := 0; i < n; i++ {
		mi := s.bodies[i].mass
		vx, vy := x[i*4+2], x[i*4+3]
		ke += 0.5 * mi * (vx*vx + vy*vy)

		for j := i + 1; j < n; j++ {
			rx := x[j*4] - x[i*4]
			ry := x[j*4+1] - x[i*4+1]
			r := math.Sqrt(rx*rx + ry*ry)
			if r == 0 {
				return 0, &CoincidenceError{I: i, J: j, X: x[i*4], Y: x[i*4+1]}
			}
			pe -= s.g * mi * s.bodies[j].mass / r
		}
	}

	return ke + pe, nil
}

// Momentum returns the total linear momentum of condition x.
func (s *System) Momentum(x dynamo.State) (px, py float64, err error) {
	if err := s.checkCondition(x); err != nil {
		return 0, 0, err
	}
	for i := range s.bodies {
		px += s.bodies[i].mass * x[i*4+2]
		py += s.bodies[i].mass * x[i*4+3]
	}
	return px, py, nil
}

// AngularMomentum returns the z component of total angular momentum about
// the origin.
func (s *System) AngularMomentum(x dynamo.State) (float64, error) {
	if err := s.checkCondition(x); err != nil {
		return 0, err
	}
	L := 0.0
	for i := range s.bodies {
		xi, yi := x[i*4], x[i*4+1]
		vx, vy := x[i*4+2], x[i*4+3]
		L += s.bodies[i].mass * (xi*vy - yi*vx)
	}
	return L, nil
}
