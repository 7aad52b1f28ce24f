// Package constraints relaxes distance constraints between particles.
package constraints

import "github.com/san-kum/clothsim/internal/cloth"

// DefaultPasses keeps the cloth soft and stretchy. Raise it through config
// for stiffer material.
const DefaultPasses = 1

// Solver applies symmetric equal-mass corrections to every enabled connector.
type Solver struct {
	Passes int
}

func NewSolver() *Solver {
	return &Solver{Passes: DefaultPasses}
}

// Solve runs the configured number of relaxation passes and returns the
// indices of connectors that snapped because they exceeded their break length.
func (s *Solver) Solve(ps *cloth.ParticleStore, cs *cloth.ConstraintStore) []int {
	passes := s.Passes
	if passes < 1 {
		passes = 1
	}

	var snapped []int
	for pass := 0; pass < passes; pass++ {
		snapped = s.relax(ps, cs, snapped)
	}
	return snapped
}

func (s *Solver) relax(ps *cloth.ParticleStore, cs *cloth.ConstraintStore, snapped []int) []int {
	particles := ps.Items()
	connectors := cs.Items()

	for i := range connectors {
		c := &connectors[i]
		if !c.Enabled() {
			continue
		}

		a, b := &particles[c.A], &particles[c.B]
		delta := a.Position.Sub(b.Position)
		dist := delta.Length()

		if c.Breakable() && dist > c.BreakLength {
			c.Disable()
			snapped = append(snapped, i)
			continue
		}

		change := Correction(delta, dist, c.RestLength)
		a.Position = a.Position.Sub(change)
		b.Position = b.Position.Add(change)
	}
	return snapped
}

// Correction returns the displacement to subtract from endpoint A and add to
// endpoint B: half the length error along the A-B axis. Coincident endpoints
// yield no correction.
func Correction(delta cloth.Vec3, dist, rest float64) cloth.Vec3 {
	var dir cloth.Vec3
	switch {
	case dist > rest:
		dir = delta.Normalize()
	case dist < rest:
		dir = delta.Normalize().Scale(-1)
	default:
		return cloth.Vec3{}
	}

	err := dist - rest
	if err < 0 {
		err = -err
	}
	return dir.Scale(err * 0.5)
}
