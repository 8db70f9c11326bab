package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/orbit"
	"github.com/san-kum/orbitsim/internal/paramfile"
)

const (
	DefaultG        = orbit.DefaultG
	DefaultDuration = 10.0
	DefaultStep     = 0.01
)

// Scenario is a YAML description of a simulation run.
type Scenario struct {
	Name     string       `yaml:"name,omitempty"`
	G        float64      `yaml:"g"`
	Duration float64      `yaml:"duration"`
	Step     float64      `yaml:"step"`
	Bodies   []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	VX   float64 `yaml:"vx"`
	VY   float64 `yaml:"vy"`
	Mass float64 `yaml:"mass"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		G:        DefaultG,
		Duration: DefaultDuration,
		Step:     DefaultStep,
	}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Parameters validates the scenario with the same rules as a parameters
// file and converts it.
func (s *Scenario) Parameters() (*paramfile.Parameters, error) {
	if !(s.G > 0) || !(s.Duration > 0) || !(s.Step > 0) {
		return nil, fmt.Errorf("%w: g=%g duration=%g step=%g", paramfile.ErrNonPositive, s.G, s.Duration, s.Step)
	}
	if s.Step > s.Duration {
		return nil, fmt.Errorf("%w: step %g, duration %g", paramfile.ErrStepTooLarge, s.Step, s.Duration)
	}
	if len(s.Bodies) == 0 {
		return nil, paramfile.ErrNoBodies
	}

	p := &paramfile.Parameters{G: s.G, Duration: s.Duration, Step: s.Step}
	for i, bc := range s.Bodies {
		b, err := orbit.NewBody(bc.X, bc.Y, bc.VX, bc.VY, bc.Mass)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i+1, err)
		}
		p.Bodies = append(p.Bodies, b)
	}
	return p, nil
}

// FromParameters converts a parameters file into a scenario.
func FromParameters(p *paramfile.Parameters) *Scenario {
	sc := &Scenario{G: p.G, Duration: p.Duration, Step: p.Step}
	for _, b := range p.Bodies {
		sc.Bodies = append(sc.Bodies, BodyConfig{X: b.X(), Y: b.Y(), VX: b.XDot(), VY: b.YDot(), Mass: b.Mass()})
	}
	return sc
}
