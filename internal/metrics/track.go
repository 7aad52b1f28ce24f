package metrics

import (
	"fmt"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Track records the vertical position of one particle.
type Track struct {
	index int
	value float64
}

func NewTrack(index int) *Track { return &Track{index: index} }

func (t *Track) Name() string { return fmt.Sprintf("track_%d", t.index) }

func (t *Track) Index() int { return t.index }

func (t *Track) Observe(st *cloth.State) {
	if t.index < 0 || t.index >= len(st.Particles) {
		return
	}
	t.value = st.Particles[t.index].Position.Y
}

func (t *Track) Value() float64 { return t.value }

func (t *Track) Reset() { t.value = 0 }
