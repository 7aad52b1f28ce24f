package cloth

// ParticleView is the published form of a particle.
type ParticleView struct {
	Position Vec3 `json:"position"`
	Pinned   bool `json:"pinned"`
}

// ConnectorView is the published form of a connector with its endpoints
// resolved to positions.
type ConnectorView struct {
	A       int     `json:"a"`
	B       int     `json:"b"`
	From    Vec3    `json:"from"`
	To      Vec3    `json:"to"`
	Rest    float64 `json:"rest"`
	Enabled bool    `json:"enabled"`
}

// State is the read-only snapshot published after each tick.
type State struct {
	Tick       int             `json:"tick"`
	Time       float64         `json:"time"`
	Particles  []ParticleView  `json:"particles"`
	Connectors []ConnectorView `json:"connectors"`
	Grabbed    int             `json:"grabbed"`
	Broken     int             `json:"broken"`
	Cut        []int           `json:"cut,omitempty"`
	Snapped    []int           `json:"snapped,omitempty"`
}

// Snapshot copies the stores into a State.
func Snapshot(ps *ParticleStore, cs *ConstraintStore) *State {
	st := &State{
		Particles:  make([]ParticleView, ps.Len()),
		Connectors: make([]ConnectorView, cs.Len()),
		Grabbed:    -1,
	}
	particles := ps.Items()
	for i := range particles {
		st.Particles[i] = ParticleView{Position: particles[i].Position, Pinned: particles[i].Pinned}
	}
	for i, c := range cs.Items() {
		st.Connectors[i] = ConnectorView{
			A:       c.A,
			B:       c.B,
			From:    particles[c.A].Position,
			To:      particles[c.B].Position,
			Rest:    c.RestLength,
			Enabled: c.enabled,
		}
		if !c.enabled {
			st.Broken++
		}
	}
	return st
}

// Length returns the current span of a connector view.
func (c ConnectorView) Length() float64 { return c.From.Distance(c.To) }

// Stretch is the current span over the rest length, or 1 for a zero-length connector.
func (c ConnectorView) Stretch() float64 {
	if c.Rest == 0 {
		return 1
	}
	return c.Length() / c.Rest
}
