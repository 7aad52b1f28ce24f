package sim

import "github.com/san-kum/clothsim/internal/cloth"

// Integrator advances every particle one fixed step.
type Integrator interface {
	Step(ps *cloth.ParticleStore, dt float64)
}

// Solver relaxes connectors and reports those that snapped.
type Solver interface {
	Solve(ps *cloth.ParticleStore, cs *cloth.ConstraintStore) []int
}

// Interactor applies pointer input before integration and reports connectors cut.
type Interactor interface {
	Apply(in cloth.Input, ps *cloth.ParticleStore, cs *cloth.ConstraintStore) []int
	Grabbed() int
	Reset()
}

// InputSource supplies the pointer snapshot for a tick.
type InputSource interface {
	InputAt(tick int) cloth.Input
}

// InputFunc adapts a function to InputSource.
type InputFunc func(tick int) cloth.Input

func (f InputFunc) InputAt(tick int) cloth.Input { return f(tick) }

type Metric interface {
	Name() string
	Observe(st *cloth.State)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(st *cloth.State)
}

type Config struct {
	Dt          float64
	Ticks       int
	MaxFailures int
}

func DefaultConfig() Config {
	return Config{
		Dt:          0.02,
		Ticks:       500,
		MaxFailures: 3,
	}
}

type Result struct {
	Times      []float64
	Series     map[string][]float64
	Metrics    map[string]float64
	Final      *cloth.State
	StepsTaken int
	Errors     []error
}
