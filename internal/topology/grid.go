package topology

import (
	"fmt"

	"github.com/san-kum/clothsim/internal/cloth"
)

type Plane string

const (
	// PlaneXY hangs the grid like a curtain, rows descending in Y.
	PlaneXY Plane = "xy"
	// PlaneXZ lays the grid flat, rows descending in Z.
	PlaneXZ Plane = "xz"
)

type PinRule string

const (
	PinTop     PinRule = "top"
	PinSides   PinRule = "sides"
	PinCorners PinRule = "corners"
	PinNone    PinRule = "none"
)

type GridSpec struct {
	Rows    int
	Columns int
	Spacing float64
	Plane   Plane
	Pin     PinRule
	// BreakLength is absolute; BreakRatio is a multiple of Spacing. When both
	// are set BreakLength wins.
	BreakLength float64
	BreakRatio  float64
	Origin      cloth.Vec3
}

func DefaultGridSpec() GridSpec {
	return GridSpec{
		Rows:    32,
		Columns: 32,
		Spacing: 0.5,
		Plane:   PlaneXY,
		Pin:     PinTop,
	}
}

func (g GridSpec) breakLength() float64 {
	if g.BreakLength > 0 {
		return g.BreakLength
	}
	if g.BreakRatio > 0 {
		return g.BreakRatio * g.Spacing
	}
	return 0
}

func (g GridSpec) pinned(x, y int) bool {
	switch g.Pin {
	case PinTop:
		return y == 0
	case PinSides:
		return x == 0 || x == g.Columns
	case PinCorners:
		return y == 0 && (x == 0 || x == g.Columns)
	default:
		return false
	}
}

func (g GridSpec) position(x, y int) cloth.Vec3 {
	u := float64(x) * g.Spacing
	v := float64(y) * g.Spacing
	if g.Plane == PlaneXZ {
		return g.Origin.Add(cloth.Vec3{X: u, Z: -v})
	}
	return g.Origin.Add(cloth.Vec3{X: u, Y: -v})
}

func (g GridSpec) Validate() error {
	if g.Rows < 1 || g.Columns < 1 {
		return fmt.Errorf("grid %dx%d: need at least one row and column: %w", g.Rows, g.Columns, cloth.ErrInvalidTopology)
	}
	if !(g.Spacing > 0) {
		return fmt.Errorf("grid spacing %v: %w", g.Spacing, cloth.ErrInvalidTopology)
	}
	if g.BreakLength < 0 || g.BreakRatio < 0 {
		return fmt.Errorf("grid break length must not be negative: %w", cloth.ErrInvalidTopology)
	}
	switch g.Plane {
	case PlaneXY, PlaneXZ:
	default:
		return fmt.Errorf("grid plane %q: %w", g.Plane, cloth.ErrInvalidTopology)
	}
	switch g.Pin {
	case PinTop, PinSides, PinCorners, PinNone:
	default:
		return fmt.Errorf("grid pin rule %q: %w", g.Pin, cloth.ErrInvalidTopology)
	}
	return nil
}

// Grid lays out (Rows+1)x(Columns+1) particles row by row, joining each to
// its left and upper neighbour.
func Grid(g GridSpec) (*Definition, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	width := g.Columns + 1
	height := g.Rows + 1
	brk := g.breakLength()

	def := &Definition{
		Name:  fmt.Sprintf("grid-%dx%d", g.Rows, g.Columns),
		Nodes: make([]Node, 0, width*height),
		Edges: make([]Edge, 0, 2*width*height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			def.Nodes = append(def.Nodes, Node{Position: g.position(x, y), Pinned: g.pinned(x, y)})
			if x > 0 {
				def.Edges = append(def.Edges, Edge{A: i, B: i - 1, Rest: g.Spacing, Break: brk})
			}
			if y > 0 {
				def.Edges = append(def.Edges, Edge{A: i, B: i - width, Rest: g.Spacing, Break: brk})
			}
		}
	}
	return def, nil
}
