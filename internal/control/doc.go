// Package control turns pointer input into cloth interactions.
//
// The [Interaction] controller consumes one [cloth.Input] snapshot per tick
// and applies two independent modes:
//
//   - Cut: while the cut button is held, every enabled connector whose first
//     endpoint projects within the threshold of the pointer is disabled.
//   - Grab: while the grab button is held, the first particle under the
//     pointer is captured and then dragged by the pointer's motion.
//
// # Usage
//
//	ia := control.NewInteraction(cloth.Identity{})
//	cut := ia.Apply(input, particles, connectors)
//	// integrate and solve afterwards
//
// Cut is applied before grab displacement, so a grabbed particle can lose
// its connectors in the same tick it moves.
package control
