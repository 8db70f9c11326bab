package dynamo

import (
	"fmt"
	"math"
)

// State is a flat vector of real-valued state variables.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AddScaled writes s + factor*other into dst and returns dst.
// dst must have the length of s.
func (s State) AddScaled(dst, other State, factor float64) State {
	for i := range s {
		dst[i] = s[i] + factor*other[i]
	}
	return dst
}

// DeriveFunc evaluates dX/dt at (x, t).
type DeriveFunc func(x State, t float64) (State, error)

// Integrator advances x by one fixed step dt.
type Integrator interface {
	Step(f DeriveFunc, x State, t, dt float64) (State, error)
}

// Hamiltonian reports the conserved energy of a state.
type Hamiltonian interface {
	Energy(x State) (float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64) error
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
	// DiscardStates leaves Result.States and Result.Times empty. Metrics
	// and observers still see every sample.
	DiscardStates bool
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: step size must be positive, got %g", ErrParameterBounds, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrParameterBounds, c.Duration)
	}
	if c.Dt > c.Duration {
		return fmt.Errorf("%w: step size %g exceeds duration %g", ErrParameterBounds, c.Dt, c.Duration)
	}
	return nil
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
}
