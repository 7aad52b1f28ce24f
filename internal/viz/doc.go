// Package viz draws the cloth in the terminal with braille characters and
// lets the mouse cut and drag it.
//
// [Model] is the live Bubble Tea view of one experiment. [View] maps
// terminal cells to world space through a rotatable [Camera], and doubles
// as the pointer projector, so mouse coordinates feed the simulation
// directly. [Launcher] picks a preset before starting a [Model].
//
// # Key Bindings
//
//	Left mouse  - Cut
//	Right mouse - Grab and drag
//	Space       - Pause/Resume
//	R           - Reset
//	X/Y/Z       - Rotate
//	T           - Cycle color themes
//	G           - Toggle GIF recording
//
// Recordings are written to clothsim.gif in the current directory.
package viz
