package cloth

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a particle position became NaN or Inf.
	ErrInvalidState = errors.New("cloth: invalid state (NaN or Inf detected)")

	// ErrInvalidInput indicates a tick was requested with unusable inputs.
	ErrInvalidInput = errors.New("cloth: invalid tick input")

	// ErrInvalidTopology indicates a particle or connector definition that cannot be built.
	ErrInvalidTopology = errors.New("cloth: invalid topology")

	// ErrUnstable indicates too many consecutive ticks failed validation.
	ErrUnstable = errors.New("cloth: simulation unstable (state diverged)")
)

// StepError wraps an error with the tick it occurred on.
type StepError struct {
	Tick     int
	Particle int
	Wrapped  error
}

func (e *StepError) Error() string {
	if e.Particle >= 0 {
		return fmt.Sprintf("tick %d: particle %d: %v", e.Tick, e.Particle, e.Wrapped)
	}
	return fmt.Sprintf("tick %d: %v", e.Tick, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
