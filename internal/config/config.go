package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRows        = 32
	DefaultColumns     = 32
	DefaultSpacing     = 0.5
	DefaultGravity     = -0.24
	DefaultFriction    = 0.99
	DefaultDt          = 0.02
	DefaultPasses      = 1
	DefaultThreshold   = 30.05
	DefaultGrabScale   = 0.01
	DefaultTicks       = 500
	DefaultMaxFailures = 3
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Topology TopologyConfig `yaml:"topology"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Solver   SolverConfig   `yaml:"solver"`
	Control  ControlConfig  `yaml:"control"`
	Run      RunConfig      `yaml:"run"`
}

type TopologyConfig struct {
	Kind        string  `yaml:"kind"`
	Rows        int     `yaml:"rows"`
	Columns     int     `yaml:"columns"`
	Spacing     float64 `yaml:"spacing"`
	Plane       string  `yaml:"plane"`
	Pin         string  `yaml:"pin"`
	MeshFile    string  `yaml:"mesh_file,omitempty"`
	BreakLength float64 `yaml:"break_length"`
	BreakRatio  float64 `yaml:"break_ratio"`
}

type PhysicsConfig struct {
	Gravity  float64 `yaml:"gravity"`
	Friction float64 `yaml:"friction"`
	Dt       float64 `yaml:"dt"`
}

type SolverConfig struct {
	Passes int `yaml:"passes"`
}

type ControlConfig struct {
	Threshold   float64 `yaml:"threshold"`
	GrabScale   float64 `yaml:"grab_scale"`
	AnchorDelta bool    `yaml:"anchor_delta"`
}

type RunConfig struct {
	Ticks       int   `yaml:"ticks"`
	Seed        int64 `yaml:"seed"`
	Track       int   `yaml:"track"`
	MaxFailures int   `yaml:"max_failures"`
}

func DefaultConfig() *Config {
	return &Config{
		Topology: TopologyConfig{
			Kind:    "grid",
			Rows:    DefaultRows,
			Columns: DefaultColumns,
			Spacing: DefaultSpacing,
			Plane:   "xy",
			Pin:     "top",
		},
		Physics: PhysicsConfig{
			Gravity:  DefaultGravity,
			Friction: DefaultFriction,
			Dt:       DefaultDt,
		},
		Solver: SolverConfig{
			Passes: DefaultPasses,
		},
		Control: ControlConfig{
			Threshold: DefaultThreshold,
			GrabScale: DefaultGrabScale,
		},
		Run: RunConfig{
			Ticks:       DefaultTicks,
			Track:       -1,
			MaxFailures: DefaultMaxFailures,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Topology.Kind {
	case "grid", "quad":
		if c.Topology.Rows < 1 || c.Topology.Columns < 1 {
			return fmt.Errorf("topology: %dx%d grid: %w", c.Topology.Rows, c.Topology.Columns, ErrInvalidConfig)
		}
		if !(c.Topology.Spacing > 0) || math.IsInf(c.Topology.Spacing, 0) {
			return fmt.Errorf("topology: spacing %f: %w", c.Topology.Spacing, ErrInvalidConfig)
		}
	case "mesh":
		if c.Topology.MeshFile == "" {
			return fmt.Errorf("topology: mesh kind needs mesh_file: %w", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("topology: unknown kind %q: %w", c.Topology.Kind, ErrInvalidConfig)
	}
	if !finite(c.Topology.BreakLength, c.Topology.BreakRatio) {
		return fmt.Errorf("topology: non-finite break length: %w", ErrInvalidConfig)
	}
	if c.Topology.BreakLength < 0 || c.Topology.BreakRatio < 0 {
		return fmt.Errorf("topology: negative break length: %w", ErrInvalidConfig)
	}
	if !finite(c.Physics.Dt, c.Physics.Gravity, c.Physics.Friction) {
		return fmt.Errorf("physics: non-finite value: %w", ErrInvalidConfig)
	}
	if c.Physics.Dt <= 0 {
		return fmt.Errorf("physics: dt must be positive, got %f: %w", c.Physics.Dt, ErrInvalidConfig)
	}
	if c.Physics.Friction < 0 || c.Physics.Friction > 1 {
		return fmt.Errorf("physics: friction %f outside [0, 1]: %w", c.Physics.Friction, ErrInvalidConfig)
	}
	if c.Solver.Passes < 1 {
		return fmt.Errorf("solver: passes must be at least 1, got %d: %w", c.Solver.Passes, ErrInvalidConfig)
	}
	if !finite(c.Control.Threshold, c.Control.GrabScale) {
		return fmt.Errorf("control: non-finite value: %w", ErrInvalidConfig)
	}
	if c.Control.Threshold < 0 {
		return fmt.Errorf("control: negative threshold: %w", ErrInvalidConfig)
	}
	if c.Run.Ticks < 1 {
		return fmt.Errorf("run: ticks must be positive, got %d: %w", c.Run.Ticks, ErrInvalidConfig)
	}
	if c.Run.MaxFailures < 1 {
		return fmt.Errorf("run: max_failures must be at least 1, got %d: %w", c.Run.MaxFailures, ErrInvalidConfig)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
