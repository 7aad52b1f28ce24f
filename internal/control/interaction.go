package control

import "github.com/san-kum/clothsim/internal/cloth"

const (
	// DefaultThreshold is the pick radius in pointer space.
	DefaultThreshold = 30.05
	// DefaultGrabScale converts pointer units into simulation units.
	DefaultGrabScale = 0.01
)

// Interaction is the pointer "hand of god": it severs connectors and drags
// particles. At most one particle is grabbed at a time.
type Interaction struct {
	Threshold float64
	GrabScale float64
	// AnchorDelta measures drag from where the grab started instead of from
	// the previous tick, so holding the pointer still keeps pushing.
	AnchorDelta bool

	projector cloth.Projector
	grabbed   int
	anchor    cloth.Vec2
}

func NewInteraction(p cloth.Projector) *Interaction {
	if p == nil {
		p = cloth.Identity{}
	}
	return &Interaction{
		Threshold: DefaultThreshold,
		GrabScale: DefaultGrabScale,
		projector: p,
		grabbed:   -1,
	}
}

func (c *Interaction) SetProjector(p cloth.Projector) {
	if p != nil {
		c.projector = p
	}
}

func (c *Interaction) Projector() cloth.Projector { return c.projector }

// Grabbed returns the index of the held particle, or -1.
func (c *Interaction) Grabbed() int { return c.grabbed }

// Reset drops any held particle.
func (c *Interaction) Reset() { c.grabbed = -1 }

// Apply runs cut then grab for one tick and returns the connectors cut.
func (c *Interaction) Apply(in cloth.Input, ps *cloth.ParticleStore, cs *cloth.ConstraintStore) []int {
	var cut []int
	if in.Cut {
		cut = c.cut(in.Pointer, ps, cs)
	}
	c.grab(in, ps)
	return cut
}

func (c *Interaction) cut(pointer cloth.Vec2, ps *cloth.ParticleStore, cs *cloth.ConstraintStore) []int {
	var cut []int
	particles := ps.Items()
	connectors := cs.Items()
	for i := range connectors {
		conn := &connectors[i]
		if !conn.Enabled() {
			continue
		}
		at := c.projector.Project(particles[conn.A].Position)
		if at.Distance(pointer) <= c.Threshold {
			conn.Disable()
			cut = append(cut, i)
		}
	}
	return cut
}

func (c *Interaction) grab(in cloth.Input, ps *cloth.ParticleStore) {
	if !in.Grab {
		c.grabbed = -1
		return
	}

	if c.grabbed == -1 || !ps.Valid(c.grabbed) {
		c.grabbed = c.pick(in.Pointer, ps)
		if c.grabbed != -1 {
			c.anchor = in.Pointer
		}
		return
	}

	d := in.Pointer.Sub(c.anchor)
	move := c.projector.Orient(cloth.Vec3{X: d.X, Y: d.Y}).Scale(c.GrabScale)
	p := ps.At(c.grabbed)
	p.Position = p.Position.Add(move)

	if !c.AnchorDelta {
		c.anchor = in.Pointer
	}
}

// pick returns the first particle whose projection lies within the threshold.
func (c *Interaction) pick(pointer cloth.Vec2, ps *cloth.ParticleStore) int {
	particles := ps.Items()
	for i := range particles {
		if c.projector.Project(particles[i].Position).Distance(pointer) <= c.Threshold {
			return i
		}
	}
	return -1
}
