package cloth

import (
	"errors"
	"math"
	"testing"
)

func TestVec3_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"axis", Vec3{0, 3, 0}, Vec3{0, 1, 0}},
		{"diagonal", Vec3{3, 4, 0}, Vec3{0.6, 0.8, 0}},
		{"zero", Vec3{}, Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.Sub(tt.want).Length() > 1e-12 {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVec3_IsFinite(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want bool
	}{
		{"zero", Vec3{}, true},
		{"normal", Vec3{1, -2, 3}, true},
		{"NaN", Vec3{math.NaN(), 0, 0}, false},
		{"+Inf", Vec3{0, math.Inf(1), 0}, false},
		{"-Inf", Vec3{0, 0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFinite(); got != tt.want {
				t.Errorf("IsFinite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParticleStore_AddAtRest(t *testing.T) {
	ps := NewParticleStore(2)
	i := ps.Add(Vec3{1, 2, 3}, false)
	j := ps.AddPinnedAt(Vec3{0, 0, 0}, true, Vec3{5, 5, 5})

	if i != 0 || j != 1 {
		t.Fatalf("expected indices 0,1, got %d,%d", i, j)
	}
	p := ps.At(i)
	if p.Position != p.Previous {
		t.Errorf("new particle should be at rest, got pos %v prev %v", p.Position, p.Previous)
	}

	ps.EnforcePins()
	q := ps.At(j)
	if q.Position != (Vec3{5, 5, 5}) || q.Previous != (Vec3{5, 5, 5}) {
		t.Errorf("pinned particle not snapped: %+v", q)
	}
}

func TestParticleStore_CloneRestore(t *testing.T) {
	ps := NewParticleStore(1)
	ps.Add(Vec3{1, 1, 1}, false)

	saved := ps.Clone()
	ps.At(0).Position = Vec3{math.NaN(), 0, 0}

	if got := ps.FirstInvalid(); got != 0 {
		t.Fatalf("FirstInvalid() = %d, want 0", got)
	}

	ps.Restore(saved)
	if ps.At(0).Position != (Vec3{1, 1, 1}) {
		t.Errorf("restore failed: %v", ps.At(0).Position)
	}
	if got := ps.FirstInvalid(); got != -1 {
		t.Errorf("FirstInvalid() after restore = %d, want -1", got)
	}
}

func TestConstraintStore_AddValidation(t *testing.T) {
	ps := NewParticleStore(2)
	ps.Add(Vec3{}, false)
	ps.Add(Vec3{Y: 1}, false)

	tests := []struct {
		name      string
		a, b      int
		rest, brk float64
		wantErr   bool
	}{
		{"ok", 0, 1, 1, 0, false},
		{"ok breakable", 1, 0, 1, 2, false},
		{"out of range", 0, 2, 1, 0, true},
		{"negative index", -1, 1, 1, 0, true},
		{"self loop", 1, 1, 1, 0, true},
		{"negative rest", 0, 1, -1, 0, true},
		{"NaN rest", 0, 1, math.NaN(), 0, true},
		{"negative break", 0, 1, 1, -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewConstraintStore(1)
			_, err := cs.Add(ps, tt.a, tt.b, tt.rest, tt.brk)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopology) {
					t.Errorf("expected ErrInvalidTopology, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !cs.At(0).Enabled() {
				t.Error("new connector should be enabled")
			}
		})
	}
}

func TestConstraintStore_DisableAndMask(t *testing.T) {
	ps := NewParticleStore(3)
	ps.Add(Vec3{}, false)
	ps.Add(Vec3{X: 1}, false)
	ps.Add(Vec3{X: 2}, false)
	cs := NewConstraintStore(2)
	cs.Add(ps, 0, 1, 1, 0)
	cs.Add(ps, 1, 2, 1, 0)

	cs.At(0).Disable()
	mask := cs.EnabledMask()
	cs.At(1).Disable()

	if cs.DisabledCount() != 2 {
		t.Fatalf("expected 2 disabled, got %d", cs.DisabledCount())
	}

	cs.RestoreMask(mask)
	if cs.At(0).Enabled() {
		t.Error("connector disabled before the mask must stay disabled")
	}
	if !cs.At(1).Enabled() {
		t.Error("connector disabled after the mask should be restored")
	}
}

func TestSnapshot(t *testing.T) {
	ps := NewParticleStore(2)
	ps.Add(Vec3{}, true)
	ps.Add(Vec3{Y: -0.5}, false)
	cs := NewConstraintStore(1)
	cs.Add(ps, 0, 1, 0.5, 0)
	cs.At(0).Disable()

	st := Snapshot(ps, cs)
	if len(st.Particles) != 2 || len(st.Connectors) != 1 {
		t.Fatalf("unexpected sizes: %d particles, %d connectors", len(st.Particles), len(st.Connectors))
	}
	if st.Broken != 1 {
		t.Errorf("expected 1 broken, got %d", st.Broken)
	}
	if st.Grabbed != -1 {
		t.Errorf("expected no grab, got %d", st.Grabbed)
	}
	if math.Abs(st.Connectors[0].Length()-0.5) > 1e-12 {
		t.Errorf("expected length 0.5, got %f", st.Connectors[0].Length())
	}
	if math.Abs(st.Connectors[0].Stretch()-1) > 1e-12 {
		t.Errorf("expected stretch 1, got %f", st.Connectors[0].Stretch())
	}

	st.Particles[1].Position = Vec3{9, 9, 9}
	if ps.At(1).Position == (Vec3{9, 9, 9}) {
		t.Error("snapshot must not alias the store")
	}
}

func TestOrtho(t *testing.T) {
	o := Ortho{Scale: 100, Origin: Vec2{400, 300}}
	got := o.Project(Vec3{1, 1, 0})
	if got != (Vec2{500, 200}) {
		t.Errorf("Project = %v, want {500 200}", got)
	}
	if d := o.Orient(Vec3{0, 10, 0}); d.Y != -10 {
		t.Errorf("Orient should flip screen y, got %v", d)
	}
}

func TestStepError(t *testing.T) {
	err := &StepError{Tick: 7, Particle: 3, Wrapped: ErrInvalidState}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("StepError should unwrap to ErrInvalidState")
	}
	want := "tick 7: particle 3: cloth: invalid state (NaN or Inf detected)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
