package config

import "sort"

func preset(edit func(c *Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

var Presets = map[string]*Config{
	"curtain": preset(func(c *Config) {
		c.Topology.Rows, c.Topology.Columns = 24, 32
	}),
	"hammock": preset(func(c *Config) {
		c.Topology.Plane, c.Topology.Pin = "xz", "sides"
		c.Topology.BreakLength = 1.4
	}),
	"net": preset(func(c *Config) {
		c.Topology.Rows, c.Topology.Columns, c.Topology.Spacing = 16, 16, 1.0
		c.Topology.Pin = "corners"
		c.Solver.Passes = 4
	}),
	"tear": preset(func(c *Config) {
		c.Topology.BreakRatio = 2.0
		c.Physics.Gravity = -0.6
		c.Run.Ticks = 1500
	}),
	"stiff": preset(func(c *Config) {
		c.Topology.Rows, c.Topology.Columns = 16, 16
		c.Solver.Passes = 12
		c.Physics.Friction = 0.97
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
