package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/constraints"
	"github.com/san-kum/clothsim/internal/control"
	"github.com/san-kum/clothsim/internal/integrators"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/sim"
	"github.com/san-kum/clothsim/internal/topology"
)

// DefaultProjector maps simulation space onto a virtual 40 px per unit
// screen for runs without a real display.
func DefaultProjector() cloth.Projector {
	return cloth.Ortho{Scale: 40, Origin: cloth.Vec2{X: 40, Y: 40}}
}

// Experiment wires a config into a ready simulator with the standard metrics.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	projector cloth.Projector

	definition  *topology.Definition
	simulator   *sim.Simulator
	interaction *control.Interaction
	stretch     *metrics.Stretch
	breakage    *metrics.Breakage
	motion      *metrics.Motion
	track       *metrics.Track
	result      *sim.Result
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{
		cfg:       cfg,
		registry:  registry,
		projector: DefaultProjector(),
	}
}

// SetProjector replaces the pointer mapping, also after Setup.
func (e *Experiment) SetProjector(p cloth.Projector) {
	e.projector = p
	if e.interaction != nil {
		e.interaction.SetProjector(p)
	}
}

func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	def, err := e.registry.GetTopology(e.cfg.Topology)
	if err != nil {
		return err
	}
	ps, cs, err := def.Build()
	if err != nil {
		return err
	}
	if e.cfg.Run.Track >= ps.Len() {
		return fmt.Errorf("track particle %d out of range (%d particles)", e.cfg.Run.Track, ps.Len())
	}

	integ := &integrators.Verlet{Gravity: e.cfg.Physics.Gravity, Friction: e.cfg.Physics.Friction}
	solver := &constraints.Solver{Passes: e.cfg.Solver.Passes}

	e.interaction = control.NewInteraction(e.projector)
	e.interaction.Threshold = e.cfg.Control.Threshold
	e.interaction.GrabScale = e.cfg.Control.GrabScale
	e.interaction.AnchorDelta = e.cfg.Control.AnchorDelta

	e.definition = def
	e.simulator = sim.New(ps, cs, integ, solver, e.interaction)

	e.stretch = metrics.NewStretch()
	e.breakage = metrics.NewBreakage()
	e.motion = metrics.NewMotion()
	e.simulator.AddMetric(e.stretch)
	e.simulator.AddMetric(e.breakage)
	e.simulator.AddMetric(e.motion)
	if e.cfg.Run.Track >= 0 {
		e.track = metrics.NewTrack(e.cfg.Run.Track)
		e.simulator.AddMetric(e.track)
	}
	return nil
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:          e.cfg.Physics.Dt,
		Ticks:       e.cfg.Run.Ticks,
		MaxFailures: e.cfg.Run.MaxFailures,
	}
}

func (e *Experiment) Run(ctx context.Context, src sim.InputSource) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	res, err := e.simulator.Run(ctx, e.SimConfig(), src)
	e.result = res
	return res, err
}

// Step advances one tick with live input, for front ends that own the clock.
func (e *Experiment) Step(in cloth.Input) (*cloth.State, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Step(e.cfg.Physics.Dt, in)
}

func (e *Experiment) Config() *config.Config            { return e.cfg }
func (e *Experiment) Definition() *topology.Definition  { return e.definition }
func (e *Experiment) Simulator() *sim.Simulator         { return e.simulator }
func (e *Experiment) Interaction() *control.Interaction { return e.interaction }
func (e *Experiment) Result() *sim.Result               { return e.result }
func (e *Experiment) Stretch() *metrics.Stretch         { return e.stretch }
func (e *Experiment) Breakage() *metrics.Breakage       { return e.breakage }

// Track is nil unless the config names a particle to follow.
func (e *Experiment) Track() *metrics.Track { return e.track }
