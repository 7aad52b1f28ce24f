package cloth

import (
	"fmt"
	"math"
)

// Connector is a distance constraint between two particles.
// BreakLength of zero means the connector never breaks.
type Connector struct {
	A, B        int
	RestLength  float64
	BreakLength float64
	enabled     bool
}

func (c *Connector) Enabled() bool { return c.enabled }

// Disable retires the connector. There is no way back.
func (c *Connector) Disable() { c.enabled = false }

func (c *Connector) Breakable() bool { return c.BreakLength > 0 }

// ConstraintStore owns every connector. Disabled connectors stay in place so
// renderers can observe the transition.
type ConstraintStore struct {
	items []Connector
}

func NewConstraintStore(capacity int) *ConstraintStore {
	return &ConstraintStore{items: make([]Connector, 0, capacity)}
}

// Add validates and appends a connector between particles a and b.
func (s *ConstraintStore) Add(ps *ParticleStore, a, b int, rest, breakLength float64) (int, error) {
	idx := len(s.items)
	switch {
	case !ps.Valid(a) || !ps.Valid(b):
		return -1, fmt.Errorf("connector %d (%d-%d): particle index out of range: %w", idx, a, b, ErrInvalidTopology)
	case a == b:
		return -1, fmt.Errorf("connector %d: both ends on particle %d: %w", idx, a, ErrInvalidTopology)
	case math.IsNaN(rest) || math.IsInf(rest, 0) || rest < 0:
		return -1, fmt.Errorf("connector %d: rest length %v: %w", idx, rest, ErrInvalidTopology)
	case math.IsNaN(breakLength) || breakLength < 0:
		return -1, fmt.Errorf("connector %d: break length %v: %w", idx, breakLength, ErrInvalidTopology)
	}
	s.items = append(s.items, Connector{A: a, B: b, RestLength: rest, BreakLength: breakLength, enabled: true})
	return idx, nil
}

func (s *ConstraintStore) Len() int { return len(s.items) }

func (s *ConstraintStore) At(i int) *Connector { return &s.items[i] }

func (s *ConstraintStore) Items() []Connector { return s.items }

// DisabledCount returns how many connectors have been retired.
func (s *ConstraintStore) DisabledCount() int {
	n := 0
	for i := range s.items {
		if !s.items[i].enabled {
			n++
		}
	}
	return n
}

// EnabledMask captures the enabled flags so a failed tick can be undone.
func (s *ConstraintStore) EnabledMask() []bool {
	m := make([]bool, len(s.items))
	for i := range s.items {
		m[i] = s.items[i].enabled
	}
	return m
}

// RestoreMask rolls enabled flags back to a mask taken earlier in the same
// tick. Only flags disabled since then are affected, so a connector retired
// in a committed tick stays retired.
func (s *ConstraintStore) RestoreMask(mask []bool) {
	for i := range s.items {
		if i < len(mask) {
			s.items[i].enabled = mask[i]
		}
	}
}

func (s *ConstraintStore) Clone() *ConstraintStore {
	c := &ConstraintStore{items: make([]Connector, len(s.items))}
	copy(c.items, s.items)
	return c
}

// Restore replaces every connector with the snapshot's. It starts a new run;
// it is not a way to revive a connector mid-run.
func (s *ConstraintStore) Restore(from *ConstraintStore) {
	s.items = s.items[:0]
	s.items = append(s.items, from.items...)
}
