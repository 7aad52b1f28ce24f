package cloth

// Particle is a point mass. Velocity is implicit in Position - Previous.
type Particle struct {
	Position       Vec3
	Previous       Vec3
	Pinned         bool
	PinnedPosition Vec3
}

// Pin forces the particle onto its pinned location with zero residual velocity.
func (p *Particle) Pin() {
	p.Position = p.PinnedPosition
	p.Previous = p.PinnedPosition
}

// ParticleStore is a contiguous arena of particles addressed by stable index.
type ParticleStore struct {
	items []Particle
}

func NewParticleStore(capacity int) *ParticleStore {
	return &ParticleStore{items: make([]Particle, 0, capacity)}
}

// Add appends a particle at rest at pos and returns its index. A pinned
// particle is held at pos.
func (s *ParticleStore) Add(pos Vec3, pinned bool) int {
	return s.AddPinnedAt(pos, pinned, pos)
}

// AddPinnedAt appends a particle whose pin target differs from its start.
func (s *ParticleStore) AddPinnedAt(pos Vec3, pinned bool, target Vec3) int {
	s.items = append(s.items, Particle{
		Position:       pos,
		Previous:       pos,
		Pinned:         pinned,
		PinnedPosition: target,
	})
	return len(s.items) - 1
}

func (s *ParticleStore) Len() int { return len(s.items) }

// At returns a pointer into the arena. The pointer is only valid until the next Add.
func (s *ParticleStore) At(i int) *Particle { return &s.items[i] }

func (s *ParticleStore) Valid(i int) bool { return i >= 0 && i < len(s.items) }

// Items exposes the backing slice for tight loops.
func (s *ParticleStore) Items() []Particle { return s.items }

// EnforcePins snaps every pinned particle back onto its target.
func (s *ParticleStore) EnforcePins() {
	for i := range s.items {
		if s.items[i].Pinned {
			s.items[i].Pin()
		}
	}
}

// FirstInvalid returns the index of the first particle with a non-finite
// position, or -1.
func (s *ParticleStore) FirstInvalid() int {
	for i := range s.items {
		if !s.items[i].Position.IsFinite() || !s.items[i].Previous.IsFinite() {
			return i
		}
	}
	return -1
}

func (s *ParticleStore) Clone() *ParticleStore {
	c := &ParticleStore{items: make([]Particle, len(s.items))}
	copy(c.items, s.items)
	return c
}

// Restore overwrites the arena from a snapshot of equal length.
func (s *ParticleStore) Restore(from *ParticleStore) {
	s.items = s.items[:0]
	s.items = append(s.items, from.items...)
}
