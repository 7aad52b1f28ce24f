package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/topology"
)

// TopologyBuilder turns the topology section of a config into a definition.
type TopologyBuilder func(cfg config.TopologyConfig) (*topology.Definition, error)

type Registry struct {
	topologies map[string]TopologyBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		topologies: make(map[string]TopologyBuilder),
	}

	r.topologies["grid"] = func(tc config.TopologyConfig) (*topology.Definition, error) {
		return topology.Grid(gridSpec(tc))
	}
	r.topologies["quad"] = func(tc config.TopologyConfig) (*topology.Definition, error) {
		return topology.FromMesh(topology.Quad(tc.Rows, tc.Columns, tc.Spacing), meshSpec(tc))
	}
	r.topologies["mesh"] = func(tc config.TopologyConfig) (*topology.Definition, error) {
		m, err := topology.LoadMesh(tc.MeshFile)
		if err != nil {
			return nil, err
		}
		return topology.FromMesh(m, meshSpec(tc))
	}

	return r
}

func gridSpec(tc config.TopologyConfig) topology.GridSpec {
	return topology.GridSpec{
		Rows:        tc.Rows,
		Columns:     tc.Columns,
		Spacing:     tc.Spacing,
		Plane:       topology.Plane(tc.Plane),
		Pin:         topology.PinRule(tc.Pin),
		BreakLength: tc.BreakLength,
		BreakRatio:  tc.BreakRatio,
	}
}

func meshSpec(tc config.TopologyConfig) topology.MeshSpec {
	spec := topology.DefaultMeshSpec()
	if tc.BreakRatio > 0 {
		spec.BreakRatio = tc.BreakRatio
	}
	spec.BreakLength = tc.BreakLength
	return spec
}

// Register adds or replaces a topology kind.
func (r *Registry) Register(kind string, build TopologyBuilder) {
	r.topologies[kind] = build
}

func (r *Registry) GetTopology(cfg config.TopologyConfig) (*topology.Definition, error) {
	fn, ok := r.topologies[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown topology: %s", cfg.Kind)
	}
	return fn(cfg)
}

func (r *Registry) ListTopologies() []string {
	names := make([]string, 0, len(r.topologies))
	for name := range r.topologies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
