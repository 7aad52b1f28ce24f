package metrics

import "github.com/san-kum/clothsim/internal/cloth"

// Breakage counts disabled connectors.
type Breakage struct {
	broken int
	cut    int
	snap   int
}

func NewBreakage() *Breakage { return &Breakage{} }

func (b *Breakage) Name() string { return "broken" }

func (b *Breakage) Observe(st *cloth.State) {
	b.broken = st.Broken
	b.cut += len(st.Cut)
	b.snap += len(st.Snapped)
}

func (b *Breakage) Value() float64 { return float64(b.broken) }

// Cut and Snapped split the observed breakage by cause.
func (b *Breakage) Cut() int     { return b.cut }
func (b *Breakage) Snapped() int { return b.snap }

func (b *Breakage) Reset() {
	b.broken = 0
	b.cut = 0
	b.snap = 0
}
