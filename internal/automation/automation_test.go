package automation

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
)

func TestInputAtHoldsUntilNextEvent(t *testing.T) {
	s := &Scenario{Events: []Event{
		{Tick: 5, X: 1, Cut: true},
		{Tick: 2, X: 2, Grab: true},
	}}
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tick int
		want cloth.Input
	}{
		{0, cloth.Input{}},
		{1, cloth.Input{}},
		{2, cloth.Input{Pointer: cloth.Vec2{X: 2}, Grab: true}},
		{4, cloth.Input{Pointer: cloth.Vec2{X: 2}, Grab: true}},
		{5, cloth.Input{Pointer: cloth.Vec2{X: 1}, Cut: true}},
		{100, cloth.Input{Pointer: cloth.Vec2{X: 1}, Cut: true}},
	}

	for _, tt := range tests {
		if got := s.InputAt(tt.tick); got != tt.want {
			t.Errorf("InputAt(%d) = %+v, want %+v", tt.tick, got, tt.want)
		}
	}
	if s.Length() != 6 {
		t.Errorf("expected length 6, got %d", s.Length())
	}
}

func TestPrepareRejectsBadEvents(t *testing.T) {
	bad := []*Scenario{
		{Events: []Event{{Tick: -1}}},
		{Events: []Event{{X: math.NaN()}}},
		{Events: []Event{{Y: math.Inf(1)}}},
	}
	for i, s := range bad {
		if err := s.Prepare(); !errors.Is(err, cloth.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestSwipe(t *testing.T) {
	events := Swipe(cloth.Vec2{X: 0, Y: 10}, cloth.Vec2{X: 90, Y: 10}, 3, 10, true, false)

	if len(events) != 11 {
		t.Fatalf("expected 11 events, got %d", len(events))
	}
	if events[0].Tick != 3 || events[0].X != 0 || !events[0].Cut {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[9].X != 90 {
		t.Errorf("expected swipe to end at 90, got %f", events[9].X)
	}
	if last := events[10]; last.Cut || last.Grab || last.Tick != 13 {
		t.Errorf("expected release at tick 13, got %+v", last)
	}
}

func TestScenarioFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slash.yaml")
	s := &Scenario{Name: "slash", Ticks: 40, Events: Swipe(cloth.Vec2{}, cloth.Vec2{X: 100}, 0, 5, true, false)}
	if err := SaveScenario(path, s); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "slash" || len(loaded.Events) != 6 || loaded.Length() != 40 {
		t.Errorf("unexpected scenario %+v", loaded)
	}
}

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Topology.Rows, cfg.Topology.Columns = 4, 4
	cfg.Run.Ticks = 30
	return cfg
}

// slash cuts across the middle row of a 4x4 grid under the default projector.
func slash() *Scenario {
	s := &Scenario{Name: "slash", Events: Swipe(cloth.Vec2{X: 20, Y: 80}, cloth.Vec2{X: 140, Y: 80}, 0, 10, true, false)}
	s.Prepare()
	return s
}

func TestRunScenarioCuts(t *testing.T) {
	exp, err := RunScenario(context.Background(), slash(), smallConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	res := exp.Result()
	if res.Final.Broken == 0 {
		t.Error("expected the slash to cut connectors")
	}
	if exp.Breakage().Cut() != res.Final.Broken-exp.Breakage().Snapped() {
		t.Errorf("cut %d + snapped %d should equal broken %d", exp.Breakage().Cut(), exp.Breakage().Snapped(), res.Final.Broken)
	}
}

func TestRunScenarioUnknownPreset(t *testing.T) {
	s := slash()
	s.Preset = "nope"
	if _, err := RunScenario(context.Background(), s, smallConfig(), nil); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{ParamName: "passes", ParamMin: 1, ParamMax: 3, NumSteps: 3}

	results, err := RunSweep(context.Background(), sweep, slash(), smallConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[2].ParamValue != 3 {
		t.Errorf("expected last value 3, got %f", results[2].ParamValue)
	}
	for _, r := range results {
		if r.PeakStretch <= 0 {
			t.Errorf("expected a positive peak stretch, got %f", r.PeakStretch)
		}
	}
}

func TestSetParam(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := SetParam(cfg, "passes", 2.6); err != nil || cfg.Solver.Passes != 3 {
		t.Errorf("expected passes 3, got %d (%v)", cfg.Solver.Passes, err)
	}
	if err := SetParam(cfg, "dt", -1); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := SetParam(cfg, "mass", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}
