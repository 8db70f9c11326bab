package orbit

import "fmt"

// Body is a point mass with a 2D position and velocity.
// The zero value is not valid; construct bodies with NewBody.
type Body struct {
	x, y       float64
	xDot, yDot float64
	mass       float64
}

// NewBody returns a body at (x, y) moving with (xDot, yDot).
// It fails with ErrInvalidMass when mass <= 0.
func NewBody(x, y, xDot, yDot, mass float64) (Body, error) {
	if !(mass > 0) {
		return Body{}, fmt.Errorf("%w: got %g", ErrInvalidMass, mass)
	}
	return Body{x: x, y: y, xDot: xDot, yDot: yDot, mass: mass}, nil
}

func (b Body) X() float64    { return b.x }
func (b Body) Y() float64    { return b.y }
func (b Body) XDot() float64 { return b.xDot }
func (b Body) YDot() float64 { return b.yDot }
func (b Body) Mass() float64 { return b.mass }

func (b *Body) UpdateX(v float64)    { b.x = v }
func (b *Body) UpdateY(v float64)    { b.y = v }
func (b *Body) UpdateXDot(v float64) { b.xDot = v }
func (b *Body) UpdateYDot(v float64) { b.yDot = v }

// UpdateMass replaces the mass. A non-positive value is rejected and the
// previous mass is kept.
func (b *Body) UpdateMass(v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidMass, v)
	}
	b.mass = v
	return nil
}
