package orbit

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
)

// DefaultG is the gravitational constant of a new system, in SI units.
const DefaultG = 6.67e-11

// System is an ordered collection of bodies evolving under mutual Newtonian
// gravity. Bodies are owned by value: AddBody copies its argument and
// accessors hand out copies.
//
// A System is not safe for concurrent use.
type System struct {
	g      float64
	time   float64
	bodies  []Body
	stepper dynamo.Integrator
}

// NewSystem returns an empty system at time zero using DefaultG.
func NewSystem() *System {
	return &System{
		g:       DefaultG,
		stepper: integrators.NewRK4(),
	}
}

// SetGravitationalConstant replaces G. Any value is accepted; zero or
// negative G gives no force or a repulsive one.
func (s *System) SetGravitationalConstant(g float64) { s.g = g }

func (s *System) GravitationalConstant() float64 { return s.g }

// CurrentTime returns the simulation time reached by completed steps.
func (s *System) CurrentTime() float64 { return s.time }

func (s *System) NumBodies() int { return len(s.bodies) }

// AddBody appends a copy of b. The body's index is its insertion order.
func (s *System) AddBody(b Body) {
	s.bodies = append(s.bodies, b)
}

// Body returns a copy of the i-th body.
func (s *System) Body(i int) (Body, error) {
	if i < 0 || i >= len(s.bodies) {
		return Body{}, fmt.Errorf("orbit: body index %d out of range [0, %d)", i, len(s.bodies))
	}
	return s.bodies[i], nil
}

// Bodies returns a copy of all bodies in index order.
func (s *System) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// Masses returns the body masses in index order.
func (s *System) Masses() []float64 {
	out := make([]float64, len(s.bodies))
	for i := range s.bodies {
		out[i] = s.bodies[i].mass
	}
	return out
}

// SystemCondition returns the state vector (x, y, xDot, yDot) per body.
func (s *System) SystemCondition() (dynamo.State, error) {
	n := len(s.bodies)
	if n == 0 {
		return nil, ErrEmptySystem
	}

	out := make(dynamo.State, 4*n)
	for i := range s.bodies {
		b := &s.bodies[i]
		out[4*i] = b.x
		out[4*i+1] = b.y
		out[4*i+2] = b.xDot
		out[4*i+3] = b.yDot
	}
	return out, nil
}

// EvaluateDerivative returns d(condition)/dt under Newtonian gravity.
//
// Positions and velocities come only from condition; masses come from the
// stored bodies. The force law is time independent, so t has no effect.
func (s *System) EvaluateDerivative(condition dynamo.State, t float64) (dynamo.State, error) {
	if err := s.checkCondition(condition); err != nil {
		return nil, err
	}

	n := len(s.bodies)
	dx := make(dynamo.State, 4*n)
	for i := 0; i < n; i++ {
		dx[4*i] = condition[4*i+2]
		dx[4*i+1] = condition[4*i+3]

		xi, yi := condition[4*i], condition[4*i+1]
		ax, ay := 0.0, 0.0

		for j := 0; j < n; j++ {
			if i == j {
				continue
			}

			rx := condition[4*j] - xi
			ry := condition[4*j+1] - yi
			r := math.Sqrt(rx*rx + ry*ry)

			if r == 0 {
				return nil, &CoincidenceError{I: i, J: j, X: xi, Y: yi}
			}

			f := s.bodies[j].mass / (r * r * r)
			ax += f * rx
			ay += f * ry
		}

		dx[4*i+2] = s.g * ax
		dx[4*i+3] = s.g * ay
	}

	return dx, nil
}

// StepRK4 advances every body and the clock by one RK4 step of size h.
// On error nothing is modified.
func (s *System) StepRK4(h float64) error {
	y0, err := s.SystemCondition()
	if err != nil {
		return err
	}

	y1, err := s.stepper.Step(s.EvaluateDerivative, y0, s.time, h)
	if err != nil {
		return err
	}

	if err := s.applyCondition(y1); err != nil {
		return err
	}
	s.time += h
	return nil
}

// applyCondition writes positions and velocities from v into the bodies.
func (s *System) applyCondition(v dynamo.State) error {
	if len(v) != 4*len(s.bodies) {
		return fmt.Errorf("%w: got %d values for %d bodies", ErrSizeMismatch, len(v), len(s.bodies))
	}

	for i := range s.bodies {
		b := &s.bodies[i]
		b.UpdateX(v[4*i])
		b.UpdateY(v[4*i+1])
		b.UpdateXDot(v[4*i+2])
		b.UpdateYDot(v[4*i+3])
	}
	return nil
}
