package config

import (
	"math"
	"sort"
)

var Presets = map[string]*Scenario{
	"still": {
		Name: "still", G: 1.0, Duration: 1.0, Step: 0.5,
		Bodies: []BodyConfig{{Mass: 1}},
	},
	"binary": {
		Name: "binary", G: 1.0, Duration: 20.0, Step: 0.01,
		Bodies: []BodyConfig{
			{X: -0.5, VY: -math.Sqrt(0.5), Mass: 1},
			{X: 0.5, VY: math.Sqrt(0.5), Mass: 1},
		},
	},
	"sun_earth": {
		Name: "sun_earth", G: 6.67e-11, Duration: 3.15576e7, Step: 3600,
		Bodies: []BodyConfig{
			{Mass: 1.989e30},
			{X: 1.496e11, VY: 29780, Mass: 5.972e24},
		},
	},
	"figure8": {
		Name: "figure8", G: 1.0, Duration: 6.3259, Step: 0.001,
		Bodies: []BodyConfig{
			{X: -0.97000436, Y: 0.24308753, VX: 0.466203685, VY: 0.43236573, Mass: 1},
			{X: 0.97000436, Y: -0.24308753, VX: 0.466203685, VY: 0.43236573, Mass: 1},
			{X: 0, Y: 0, VX: -0.93240737, VY: -0.86473146, Mass: 1},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Scenario {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	c.Bodies = append([]BodyConfig(nil), p.Bodies...)
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
