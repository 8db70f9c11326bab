package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/orbit"
)

// EnergyDrift tracks the largest relative change of total energy from the
// first observed sample.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	h             dynamo.Hamiltonian
}

func NewEnergyDrift(h dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		h:    h,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	energy, err := e.h.Energy(x)
	if err != nil {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	e.maxDrift = math.Max(e.maxDrift, relativeChange(e.initialEnergy, energy))
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Current returns the most recently observed total energy.
func (e *EnergyDrift) Current() float64 {
	return e.currentEnergy
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// AngularMomentumDrift tracks the largest relative change of the total
// angular momentum about the origin.
type AngularMomentumDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
	sys      *orbit.System
}

func NewAngularMomentumDrift(sys *orbit.System) *AngularMomentumDrift {
	return &AngularMomentumDrift{
		name: "angular_momentum_drift",
		sys:  sys,
	}
}

func (a *AngularMomentumDrift) Name() string { return a.name }

func (a *AngularMomentumDrift) Observe(x dynamo.State, t float64) {
	l, err := a.sys.AngularMomentum(x)
	if err != nil {
		return
	}
	if a.samples == 0 {
		a.initial = l
	}
	a.samples++
	a.maxDrift = math.Max(a.maxDrift, relativeChange(a.initial, l))
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = 0
	a.maxDrift = 0
	a.samples = 0
}

// MomentumDrift tracks the largest absolute change of the total linear
// momentum vector. Linear momentum is usually zero, so the change is not
// normalised.
type MomentumDrift struct {
	name     string
	px0, py0 float64
	maxDrift float64
	samples  int
	sys      *orbit.System
}

func NewMomentumDrift(sys *orbit.System) *MomentumDrift {
	return &MomentumDrift{
		name: "momentum_drift",
		sys:  sys,
	}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(x dynamo.State, t float64) {
	px, py, err := m.sys.Momentum(x)
	if err != nil {
		return
	}
	if m.samples == 0 {
		m.px0, m.py0 = px, py
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, math.Hypot(px-m.px0, py-m.py0))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.px0, m.py0 = 0, 0
	m.maxDrift = 0
	m.samples = 0
}

func relativeChange(initial, current float64) float64 {
	if initial == 0 {
		return math.Abs(current)
	}
	return math.Abs(current-initial) / math.Abs(initial)
}

// Defaults returns the metrics reported for every run.
func Defaults(sys *orbit.System) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyDrift(sys),
		NewAngularMomentumDrift(sys),
		NewMomentumDrift(sys),
		NewMinSeparation(),
	}
}
