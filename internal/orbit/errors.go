package orbit

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMass indicates a non-positive mass on construction or update.
	ErrInvalidMass = errors.New("orbit: mass must be greater than zero")

	// ErrEmptySystem indicates a condition or derivative was requested with no bodies.
	ErrEmptySystem = errors.New("orbit: no bodies in system")

	// ErrCoincidentBodies indicates two distinct bodies share the same position.
	ErrCoincidentBodies = errors.New("orbit: two bodies at the same point")

	// ErrSizeMismatch indicates a condition vector whose length is not 4x the body count.
	ErrSizeMismatch = errors.New("orbit: condition vector size must be 4 times the body count")
)

// CoincidenceError names the pair of bodies found at zero separation.
type CoincidenceError struct {
	I, J int
	X, Y float64
}

func (e *CoincidenceError) Error() string {
	return fmt.Sprintf("%v: bodies %d and %d at (%g, %g)", ErrCoincidentBodies, e.I, e.J, e.X, e.Y)
}

func (e *CoincidenceError) Unwrap() error {
	return ErrCoincidentBodies
}
