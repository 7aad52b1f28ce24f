// Package cloth provides the data model for a Verlet cloth simulation.
//
// The package defines the stores and value types every other layer shares:
//
//   - [Vec3]: 3D vector arithmetic
//   - [Particle] and [ParticleStore]: contiguous arena of point masses
//   - [Connector] and [ConstraintStore]: distance constraints referencing particles by index
//   - [Input] and [Projector]: per-tick pointer snapshot and its mapping into simulation space
//   - [State]: read-only snapshot published after every tick
//
// # Example
//
//	ps := cloth.NewParticleStore(2)
//	a := ps.Add(cloth.Vec3{}, true)
//	b := ps.Add(cloth.Vec3{Y: -0.5}, false)
//	cs := cloth.NewConstraintStore(1)
//	_, err := cs.Add(ps, a, b, 0.5, 0)
//
// # Thread Safety
//
// Stores are NOT thread-safe. They are owned by a single simulator which
// mutates them once per tick.
package cloth
