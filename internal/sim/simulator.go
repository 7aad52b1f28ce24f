package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Simulator owns the particle and constraint stores and runs the fixed-step
// pipeline: interaction, integration, constraint solving, publication.
type Simulator struct {
	particles   *cloth.ParticleStore
	connectors  *cloth.ConstraintStore
	integrator  Integrator
	solver      Solver
	interaction Interactor
	metrics     []Metric
	observers   []Observer

	initialParticles  *cloth.ParticleStore
	initialConnectors *cloth.ConstraintStore
	backup            *cloth.ParticleStore

	tick int
	time float64
	last *cloth.State
}

// New takes ownership of ps and cs. interaction may be nil for runs without
// pointer input.
func New(ps *cloth.ParticleStore, cs *cloth.ConstraintStore, integrator Integrator, solver Solver, interaction Interactor) *Simulator {
	ps.EnforcePins()
	return &Simulator{
		particles:         ps,
		connectors:        cs,
		integrator:        integrator,
		solver:            solver,
		interaction:       interaction,
		metrics:           make([]Metric, 0),
		observers:         make([]Observer, 0),
		initialParticles:  ps.Clone(),
		initialConnectors: cs.Clone(),
		backup:            cloth.NewParticleStore(ps.Len()),
	}
}

func (s *Simulator) AddMetric(m Metric) {
	s.metrics = append(s.metrics, m)
}

func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Simulator) Tick() int {
	return s.tick
}

func (s *Simulator) Time() float64 {
	return s.time
}

func (s *Simulator) Interaction() Interactor {
	return s.interaction
}

// Step runs one tick. A tick that produces a non-finite position is rolled
// back and reported; the stores keep the last committed state.
func (s *Simulator) Step(dt float64, in cloth.Input) (*cloth.State, error) {
	next := s.tick + 1
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, &cloth.StepError{Tick: next, Particle: -1, Wrapped: fmt.Errorf("dt %v: %w", dt, cloth.ErrInvalidInput)}
	}
	if !in.Pointer.IsFinite() {
		return nil, &cloth.StepError{Tick: next, Particle: -1, Wrapped: fmt.Errorf("pointer %v: %w", in.Pointer, cloth.ErrInvalidInput)}
	}

	s.backup.Restore(s.particles)
	mask := s.connectors.EnabledMask()

	var cut []int
	if s.interaction != nil {
		cut = s.interaction.Apply(in, s.particles, s.connectors)
	}
	s.integrator.Step(s.particles, dt)
	snapped := s.solver.Solve(s.particles, s.connectors)
	s.particles.EnforcePins()

	if bad := s.particles.FirstInvalid(); bad >= 0 {
		s.particles.Restore(s.backup)
		s.connectors.RestoreMask(mask)
		return nil, &cloth.StepError{Tick: next, Particle: bad, Wrapped: cloth.ErrInvalidState}
	}

	s.tick = next
	s.time += dt
	s.last = s.publish(cut, snapped)

	for _, obs := range s.observers {
		obs.OnStep(s.last)
	}
	return s.last, nil
}

// State returns the most recently published snapshot without mutating anything.
func (s *Simulator) State() *cloth.State {
	if s.last == nil {
		s.last = s.publish(nil, nil)
	}
	return s.last
}

func (s *Simulator) publish(cut, snapped []int) *cloth.State {
	st := cloth.Snapshot(s.particles, s.connectors)
	st.Tick = s.tick
	st.Time = s.time
	st.Cut = cut
	st.Snapped = snapped
	if s.interaction != nil {
		st.Grabbed = s.interaction.Grabbed()
	}
	return st
}

// Reset starts a fresh run from the topology the simulator was built with.
func (s *Simulator) Reset() {
	s.particles.Restore(s.initialParticles)
	s.connectors.Restore(s.initialConnectors)
	if s.interaction != nil {
		s.interaction.Reset()
	}
	s.tick = 0
	s.time = 0
	s.last = nil
}

// Run drives Step for cfg.Ticks committed ticks, pulling input from src.
func (s *Simulator) Run(ctx context.Context, cfg Config, src InputSource) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Times:   make([]float64, 0, cfg.Ticks),
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
		result.Series[m.Name()] = make([]float64, 0, cfg.Ticks)
	}

	failures := 0
	for result.StepsTaken < cfg.Ticks {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var in cloth.Input
		if src != nil {
			in = src.InputAt(s.tick)
		}

		st, err := s.Step(cfg.Dt, in)
		if err != nil {
			result.Errors = append(result.Errors, err)
			failures++
			if failures >= cfg.MaxFailures {
				s.collect(result)
				return result, fmt.Errorf("tick %d: %d consecutive failures: %w", s.tick+1, failures, cloth.ErrUnstable)
			}
			continue
		}
		failures = 0

		for _, m := range s.metrics {
			m.Observe(st)
			result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
		}
		result.Times = append(result.Times, st.Time)
		result.StepsTaken++
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Final = s.State()
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", cfg.Ticks)
	}
	if cfg.MaxFailures <= 0 {
		return fmt.Errorf("max failures must be positive, got %d", cfg.MaxFailures)
	}
	return nil
}
