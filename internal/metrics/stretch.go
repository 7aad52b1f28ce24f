package metrics

import "github.com/san-kum/clothsim/internal/cloth"

// Stretch reports the mean span/rest ratio over enabled connectors and keeps
// the largest ratio seen.
type Stretch struct {
	mean float64
	max  float64
	peak float64
}

func NewStretch() *Stretch { return &Stretch{} }

func (s *Stretch) Name() string { return "stretch" }

func (s *Stretch) Observe(st *cloth.State) {
	sum := 0.0
	n := 0
	s.max = 0
	for _, c := range st.Connectors {
		if !c.Enabled {
			continue
		}
		r := c.Stretch()
		sum += r
		n++
		if r > s.max {
			s.max = r
		}
	}
	s.mean = 0
	if n > 0 {
		s.mean = sum / float64(n)
	}
	if s.max > s.peak {
		s.peak = s.max
	}
}

func (s *Stretch) Value() float64 { return s.mean }

// Max is the largest ratio in the last observation.
func (s *Stretch) Max() float64 { return s.max }

// Peak is the largest ratio since Reset.
func (s *Stretch) Peak() float64 { return s.peak }

func (s *Stretch) Reset() {
	s.mean = 0
	s.max = 0
	s.peak = 0
}
