package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
)

// Scenario is a scripted pointer sequence. Each event's input is held from
// its tick until the next event.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset,omitempty"`
	Ticks       int     `yaml:"ticks,omitempty"`
	Events      []Event `yaml:"events"`
}

// Event takes effect on the tick with zero-based index Tick.
type Event struct {
	Tick int     `yaml:"tick"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Cut  bool    `yaml:"cut"`
	Grab bool    `yaml:"grab"`
}

func (e Event) Input() cloth.Input {
	return cloth.Input{Pointer: cloth.Vec2{X: e.X, Y: e.Y}, Cut: e.Cut, Grab: e.Grab}
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Prepare(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func SaveScenario(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Prepare validates the events and orders them by tick. Events sharing a
// tick keep their file order; the last one wins.
func (s *Scenario) Prepare() error {
	for i, e := range s.Events {
		if e.Tick < 0 {
			return fmt.Errorf("event %d: negative tick %d: %w", i, e.Tick, cloth.ErrInvalidInput)
		}
		if math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsInf(e.X, 0) || math.IsInf(e.Y, 0) {
			return fmt.Errorf("event %d: non-finite pointer: %w", i, cloth.ErrInvalidInput)
		}
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].Tick < s.Events[j].Tick })
	return nil
}

// InputAt returns the input in force for the tick about to run.
func (s *Scenario) InputAt(tick int) cloth.Input {
	i := sort.Search(len(s.Events), func(i int) bool { return s.Events[i].Tick > tick })
	if i == 0 {
		return cloth.Input{}
	}
	return s.Events[i-1].Input()
}

// Length is the tick after the last event, or Ticks when that is larger.
func (s *Scenario) Length() int {
	n := s.Ticks
	if len(s.Events) > 0 {
		if last := s.Events[len(s.Events)-1].Tick + 1; last > n {
			n = last
		}
	}
	return n
}

// Swipe returns events moving the pointer in a straight line from one point
// to another over the given ticks, followed by a release.
func Swipe(from, to cloth.Vec2, start, ticks int, cut, grab bool) []Event {
	if ticks < 1 {
		ticks = 1
	}
	events := make([]Event, 0, ticks+1)
	for i := 0; i < ticks; i++ {
		f := 0.0
		if ticks > 1 {
			f = float64(i) / float64(ticks-1)
		}
		events = append(events, Event{
			Tick: start + i,
			X:    from.X + (to.X-from.X)*f,
			Y:    from.Y + (to.Y-from.Y)*f,
			Cut:  cut,
			Grab: grab,
		})
	}
	events = append(events, Event{Tick: start + ticks, X: to.X, Y: to.Y})
	return events
}

// RunScenario runs one scenario against cfg, or against its preset when the
// scenario names one.
func RunScenario(ctx context.Context, scenario *Scenario, cfg *config.Config, registry *experiment.Registry) (*experiment.Experiment, error) {
	if scenario.Preset != "" {
		p := config.GetPreset(scenario.Preset)
		if p == nil {
			return nil, fmt.Errorf("scenario %s: unknown preset %q", scenario.Name, scenario.Preset)
		}
		cfg = p
	} else {
		cfg = cfg.Clone()
	}
	if n := scenario.Length(); n > cfg.Run.Ticks {
		cfg.Run.Ticks = n
	}

	exp := experiment.New(cfg, registry)
	if err := exp.Setup(); err != nil {
		return nil, fmt.Errorf("scenario %s setup: %w", scenario.Name, err)
	}
	if _, err := exp.Run(ctx, scenario); err != nil {
		return exp, fmt.Errorf("scenario %s run: %w", scenario.Name, err)
	}
	return exp, nil
}

// ParameterSweep reruns a scenario across a range of one config parameter.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue  float64
	Broken      int
	PeakStretch float64
	Failures    int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, scenario *Scenario, base *config.Config, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := base.Clone()
		if err := SetParam(cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		run := *scenario
		run.Preset = ""
		exp, err := RunScenario(ctx, &run, cfg, registry)
		if err != nil && exp == nil {
			return results, err
		}

		res := exp.Result()
		out := SweepResult{ParamValue: paramVal, PeakStretch: exp.Stretch().Peak()}
		if res != nil {
			out.Failures = len(res.Errors)
			if res.Final != nil {
				out.Broken = res.Final.Broken
			}
		}
		results = append(results, out)

		fmt.Printf("Sweep %d/%d: %s=%.4f broken=%d\n", i+1, sweep.NumSteps, sweep.ParamName, paramVal, out.Broken)
	}

	return results, nil
}

// SetParam sets a numeric config field by its YAML name.
func SetParam(cfg *config.Config, name string, value float64) error {
	switch name {
	case "gravity":
		cfg.Physics.Gravity = value
	case "friction":
		cfg.Physics.Friction = value
	case "dt":
		cfg.Physics.Dt = value
	case "passes":
		cfg.Solver.Passes = int(math.Round(value))
	case "break_length":
		cfg.Topology.BreakLength = value
	case "break_ratio":
		cfg.Topology.BreakRatio = value
	case "spacing":
		cfg.Topology.Spacing = value
	case "threshold":
		cfg.Control.Threshold = value
	case "grab_scale":
		cfg.Control.GrabScale = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return cfg.Validate()
}
