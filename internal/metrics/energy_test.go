package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/orbit"
)

func binary(t *testing.T) *orbit.System {
	t.Helper()
	sys := orbit.NewSystem()
	sys.SetGravitationalConstant(1)
	v := math.Sqrt(0.5)
	for _, p := range [][5]float64{{-0.5, 0, 0, -v, 1}, {0.5, 0, 0, v, 1}} {
		b, err := orbit.NewBody(p[0], p[1], p[2], p[3], p[4])
		if err != nil {
			t.Fatal(err)
		}
		sys.AddBody(b)
	}
	return sys
}

func TestEnergyDrift(t *testing.T) {
	sys := binary(t)
	m := NewEnergyDrift(sys)

	x, _ := sys.SystemCondition()
	m.Observe(x, 0)
	if m.Value() != 0 {
		t.Errorf("expected zero drift after first sample, got %v", m.Value())
	}
	if math.Abs(m.Current()+0.5) > 1e-12 {
		t.Errorf("expected energy -0.5, got %v", m.Current())
	}

	// Doubling both speeds raises kinetic energy from 0.5 to 2, moving the
	// total from -0.5 to 1.
	fast := x.Clone()
	for _, i := range []int{2, 3, 6, 7} {
		fast[i] *= 2
	}
	m.Observe(fast, 1)
	if math.Abs(m.Value()-3) > 1e-12 {
		t.Errorf("expected drift 3, got %v", m.Value())
	}

	m.Observe(x, 2)
	if math.Abs(m.Value()-3) > 1e-12 {
		t.Errorf("drift should keep its maximum, got %v", m.Value())
	}

	m.Reset()
	if m.Value() != 0 || m.Current() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEnergyDriftIgnoresCoincidentSample(t *testing.T) {
	sys := binary(t)
	m := NewEnergyDrift(sys)

	m.Observe(dynamo.State{0, 0, 1, 0, 0, 0, 1, 0}, 0)
	if m.Value() != 0 {
		t.Errorf("expected coincident sample to be skipped, got %v", m.Value())
	}
}

// sumEnergy treats the sum of the state as its energy.
type sumEnergy struct{}

func (sumEnergy) Energy(x dynamo.State) (float64, error) {
	total := 0.0
	for _, v := range x {
		total += v
	}
	return total, nil
}

func TestEnergyDriftAnyHamiltonian(t *testing.T) {
	m := NewEnergyDrift(sumEnergy{})

	m.Observe(dynamo.State{1, 1}, 0)
	m.Observe(dynamo.State{1, 2}, 1)
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected drift 0.5, got %v", m.Value())
	}
	if m.Current() != 3 {
		t.Errorf("expected current energy 3, got %v", m.Current())
	}
}

func TestAngularMomentumDrift(t *testing.T) {
	sys := binary(t)
	m := NewAngularMomentumDrift(sys)

	x, _ := sys.SystemCondition()
	m.Observe(x, 0)

	reversed := x.Clone()
	reversed[3], reversed[7] = -reversed[3], -reversed[7]
	m.Observe(reversed, 1)

	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("expected drift 2 after reversing the orbit, got %v", m.Value())
	}
}

func TestMomentumDrift(t *testing.T) {
	sys := binary(t)
	m := NewMomentumDrift(sys)

	x, _ := sys.SystemCondition()
	m.Observe(x, 0)

	kicked := x.Clone()
	kicked[2] += 3
	kicked[7] += 4
	m.Observe(kicked, 1)

	if math.Abs(m.Value()-5) > 1e-12 {
		t.Errorf("expected drift 5, got %v", m.Value())
	}
}

func TestMinSeparation(t *testing.T) {
	m := NewMinSeparation()
	if m.Value() != 0 {
		t.Errorf("expected 0 before any sample, got %v", m.Value())
	}

	m.Observe(dynamo.State{0, 0, 0, 0, 3, 4, 0, 0, 10, 0, 0, 0}, 0)
	if m.Value() != 5 {
		t.Errorf("expected 5, got %v", m.Value())
	}

	m.Observe(dynamo.State{0, 0, 0, 0, 0, 2, 0, 0, 10, 0, 0, 0}, 1)
	if m.Value() != 2 {
		t.Errorf("expected 2, got %v", m.Value())
	}

	m.Reset()
	m.Observe(dynamo.State{1, 1, 0, 0}, 0)
	if m.Value() != 0 {
		t.Errorf("single body should report 0, got %v", m.Value())
	}
}

func TestDefaults(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Defaults(binary(t)) {
		names[m.Name()] = true
	}
	for _, want := range []string{"energy_drift", "angular_momentum_drift", "momentum_drift", "min_separation"} {
		if !names[want] {
			t.Errorf("missing default metric %s", want)
		}
	}
}
