package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// MinSeparation records the closest approach between any two bodies.
// Close encounters are where a fixed step loses accuracy first.
type MinSeparation struct {
	name    string
	min     float64
	samples int
}

func NewMinSeparation() *MinSeparation {
	return &MinSeparation{
		name: "min_separation",
		min:  math.Inf(1),
	}
}

func (s *MinSeparation) Name() string {
	return s.name
}

func (s *MinSeparation) Observe(x dynamo.State, t float64) {
	s.samples++
	n := len(x) / 4
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(x[4*j]-x[4*i], x[4*j+1]-x[4*i+1])
			if d < s.min {
				s.min = d
			}
		}
	}
}

// Value returns the smallest separation seen, or 0 when fewer than two
// bodies were observed.
func (s *MinSeparation) Value() float64 {
	if s.samples == 0 || math.IsInf(s.min, 1) {
		return 0
	}
	return s.min
}

func (s *MinSeparation) Reset() {
	s.min = math.Inf(1)
	s.samples = 0
}
