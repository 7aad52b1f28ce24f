package topology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/clothsim/internal/cloth"
)

// DefaultMeshBreakRatio is the break length of a mesh edge as a multiple of
// its rest length.
const DefaultMeshBreakRatio = 3.0

// Mesh is an indexed triangle mesh. Colors, when present, hold one RGB(A)
// entry per vertex; a red channel above 0.5 pins the vertex. PinTargets pins
// a vertex at a location other than where it starts.
type Mesh struct {
	Name       string             `yaml:"name"`
	Vertices   [][3]float64       `yaml:"vertices"`
	Triangles  [][3]int           `yaml:"triangles"`
	Colors     [][]float64        `yaml:"colors,omitempty"`
	Pinned     []int              `yaml:"pinned,omitempty"`
	PinTargets map[int][3]float64 `yaml:"pin_targets,omitempty"`
}

type MeshSpec struct {
	BreakRatio  float64
	BreakLength float64
}

func DefaultMeshSpec() MeshSpec {
	return MeshSpec{BreakRatio: DefaultMeshBreakRatio}
}

func (s MeshSpec) breakFor(rest float64) float64 {
	if s.BreakLength > 0 {
		return s.BreakLength
	}
	return s.BreakRatio * rest
}

// LoadMesh reads a YAML mesh file.
func LoadMesh(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Mesh
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mesh %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = path
	}
	return &m, nil
}

func SaveMesh(path string, m *Mesh) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type edgeKey struct{ lo, hi int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// FromMesh turns every vertex into a particle and every distinct triangle
// edge into a connector whose rest length is the initial vertex distance.
func FromMesh(m *Mesh, spec MeshSpec) (*Definition, error) {
	if spec.BreakRatio < 0 || spec.BreakLength < 0 {
		return nil, fmt.Errorf("mesh break length must not be negative: %w", cloth.ErrInvalidTopology)
	}
	if len(m.Colors) > 0 && len(m.Colors) != len(m.Vertices) {
		return nil, fmt.Errorf("mesh %s: %d colors for %d vertices: %w", m.Name, len(m.Colors), len(m.Vertices), cloth.ErrInvalidTopology)
	}

	def := &Definition{
		Name:  m.Name,
		Nodes: make([]Node, len(m.Vertices)),
		Edges: make([]Edge, 0, len(m.Triangles)*3/2),
	}

	for i, v := range m.Vertices {
		def.Nodes[i].Position = cloth.Vec3{X: v[0], Y: v[1], Z: v[2]}
		if len(m.Colors) > 0 && len(m.Colors[i]) > 0 {
			def.Nodes[i].Pinned = m.Colors[i][0] > 0.5
		}
	}
	for _, idx := range m.Pinned {
		if idx < 0 || idx >= len(def.Nodes) {
			return nil, fmt.Errorf("mesh %s: pinned vertex %d out of range: %w", m.Name, idx, cloth.ErrInvalidTopology)
		}
		def.Nodes[idx].Pinned = true
	}
	for idx, v := range m.PinTargets {
		if idx < 0 || idx >= len(def.Nodes) {
			return nil, fmt.Errorf("mesh %s: pin target for vertex %d out of range: %w", m.Name, idx, cloth.ErrInvalidTopology)
		}
		target := cloth.Vec3{X: v[0], Y: v[1], Z: v[2]}
		def.Nodes[idx].Pinned = true
		def.Nodes[idx].Target = &target
	}

	seen := make(map[edgeKey]bool, cap(def.Edges))
	for t, tri := range m.Triangles {
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if a < 0 || a >= len(def.Nodes) || b < 0 || b >= len(def.Nodes) {
				return nil, fmt.Errorf("mesh %s: triangle %d references missing vertex: %w", m.Name, t, cloth.ErrInvalidTopology)
			}
			if a == b {
				continue
			}
			key := keyOf(a, b)
			if seen[key] {
				continue
			}
			seen[key] = true

			rest := def.Nodes[a].Position.Distance(def.Nodes[b].Position)
			def.Edges = append(def.Edges, Edge{A: a, B: b, Rest: rest, Break: spec.breakFor(rest)})
		}
	}
	return def, nil
}

// Quad returns a flat mesh of two triangles per cell, useful as a mesh
// counterpart to Grid. The first row is coloured red so it pins.
func Quad(rows, columns int, spacing float64) *Mesh {
	m := &Mesh{Name: fmt.Sprintf("quad-%dx%d", rows, columns)}
	width := columns + 1
	for y := 0; y <= rows; y++ {
		for x := 0; x <= columns; x++ {
			m.Vertices = append(m.Vertices, [3]float64{float64(x) * spacing, -float64(y) * spacing, 0})
			red := 0.0
			if y == 0 {
				red = 1
			}
			m.Colors = append(m.Colors, []float64{red, 0, 0})
		}
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < columns; x++ {
			i := y*width + x
			m.Triangles = append(m.Triangles,
				[3]int{i, i + 1, i + width},
				[3]int{i + 1, i + width + 1, i + width},
			)
		}
	}
	return m
}
