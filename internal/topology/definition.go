package topology

import (
	"fmt"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Node is a particle definition. A pinned node with a Target is held there
// rather than at its starting position.
type Node struct {
	Position cloth.Vec3
	Pinned   bool
	Target   *cloth.Vec3
}

// Edge is a connector definition. Break of zero means unbreakable.
type Edge struct {
	A, B  int
	Rest  float64
	Break float64
}

// Definition is a topology ready to be materialized into stores.
type Definition struct {
	Name  string
	Nodes []Node
	Edges []Edge
}

func (d *Definition) Pinned() int {
	n := 0
	for _, node := range d.Nodes {
		if node.Pinned {
			n++
		}
	}
	return n
}

// Build validates the definition and creates fresh stores for one run.
func (d *Definition) Build() (*cloth.ParticleStore, *cloth.ConstraintStore, error) {
	if len(d.Nodes) == 0 {
		return nil, nil, fmt.Errorf("%s: no particles: %w", d.Name, cloth.ErrInvalidTopology)
	}

	ps := cloth.NewParticleStore(len(d.Nodes))
	for i, node := range d.Nodes {
		if !node.Position.IsFinite() {
			return nil, nil, fmt.Errorf("%s: particle %d: non-finite position: %w", d.Name, i, cloth.ErrInvalidTopology)
		}
		if node.Target == nil {
			ps.Add(node.Position, node.Pinned)
			continue
		}
		if !node.Target.IsFinite() {
			return nil, nil, fmt.Errorf("%s: particle %d: non-finite pin target: %w", d.Name, i, cloth.ErrInvalidTopology)
		}
		ps.AddPinnedAt(node.Position, node.Pinned, *node.Target)
	}

	cs := cloth.NewConstraintStore(len(d.Edges))
	for i, e := range d.Edges {
		if _, err := cs.Add(ps, e.A, e.B, e.Rest, e.Break); err != nil {
			return nil, nil, fmt.Errorf("%s: edge %d: %w", d.Name, i, err)
		}
	}
	return ps, cs, nil
}
