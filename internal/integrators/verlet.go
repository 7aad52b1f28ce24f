package integrators

import "github.com/san-kum/clothsim/internal/cloth"

const (
	DefaultGravity  = -0.24
	DefaultFriction = 0.99
)

// Verlet advances particles with position-based Störmer-Verlet integration.
// Velocity is never stored; it is recovered from Position - Previous and
// damped by Friction before gravity is applied along Y.
type Verlet struct {
	Gravity  float64
	Friction float64
}

func NewVerlet() *Verlet {
	return &Verlet{Gravity: DefaultGravity, Friction: DefaultFriction}
}

func (v *Verlet) Step(ps *cloth.ParticleStore, dt float64) {
	items := ps.Items()
	g := v.Gravity * dt

	for i := range items {
		p := &items[i]
		if p.Pinned {
			p.Pin()
			continue
		}

		vel := p.Position.Sub(p.Previous).Scale(v.Friction)
		p.Previous = p.Position
		p.Position = p.Position.Add(vel)
		p.Position.Y += g
	}
}

func (v *Verlet) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":  v.Gravity,
		"friction": v.Friction,
	}
}

func (v *Verlet) SetParam(name string, value float64) {
	switch name {
	case "gravity":
		v.Gravity = value
	case "friction":
		v.Friction = value
	}
}
