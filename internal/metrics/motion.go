package metrics

import "github.com/san-kum/clothsim/internal/cloth"

// Motion sums squared per-tick particle displacement, a kinetic energy proxy
// for unit masses.
type Motion struct {
	prev  []cloth.Vec3
	value float64
}

func NewMotion() *Motion { return &Motion{} }

func (m *Motion) Name() string { return "motion" }

func (m *Motion) Observe(st *cloth.State) {
	if len(m.prev) != len(st.Particles) {
		m.prev = make([]cloth.Vec3, len(st.Particles))
		for i, p := range st.Particles {
			m.prev[i] = p.Position
		}
		m.value = 0
		return
	}

	sum := 0.0
	for i, p := range st.Particles {
		d := p.Position.Sub(m.prev[i])
		sum += d.Dot(d)
		m.prev[i] = p.Position
	}
	m.value = 0.5 * sum
}

func (m *Motion) Value() float64 { return m.value }

func (m *Motion) Reset() {
	m.prev = nil
	m.value = 0
}
