package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/clothsim/internal/cloth"
)

func TestVerletFreeFall(t *testing.T) {
	ps := cloth.NewParticleStore(1)
	ps.Add(cloth.Vec3{Y: -0.5}, false)

	integ := NewVerlet()
	dt := 0.02
	integ.Step(ps, dt)

	p := ps.At(0)
	if p.Previous != (cloth.Vec3{Y: -0.5}) {
		t.Errorf("previous should hold the old position, got %v", p.Previous)
	}
	want := -0.5 + DefaultGravity*dt
	if math.Abs(p.Position.Y-want) > 1e-12 {
		t.Errorf("expected y %.6f, got %.6f", want, p.Position.Y)
	}
}

func TestVerletCarriesDampedVelocity(t *testing.T) {
	ps := cloth.NewParticleStore(1)
	i := ps.Add(cloth.Vec3{X: 1}, false)
	ps.At(i).Previous = cloth.Vec3{}

	integ := &Verlet{Gravity: 0, Friction: 0.5}
	integ.Step(ps, 0.02)

	p := ps.At(i)
	if math.Abs(p.Position.X-1.5) > 1e-12 {
		t.Errorf("expected x 1.5, got %f", p.Position.X)
	}
	if p.Previous.X != 1 {
		t.Errorf("expected previous x 1, got %f", p.Previous.X)
	}
}

func TestVerletPinned(t *testing.T) {
	ps := cloth.NewParticleStore(1)
	i := ps.AddPinnedAt(cloth.Vec3{X: 3}, true, cloth.Vec3{})
	ps.At(i).Previous = cloth.Vec3{X: 2}

	integ := NewVerlet()
	for step := 0; step < 50; step++ {
		integ.Step(ps, 0.02)
		p := ps.At(i)
		if p.Position != p.PinnedPosition || p.Previous != p.PinnedPosition {
			t.Fatalf("step %d: pinned particle drifted: %+v", step, p)
		}
	}
}

func TestVerletParams(t *testing.T) {
	integ := NewVerlet()
	integ.SetParam("gravity", -9.81)
	integ.SetParam("friction", 1)
	integ.SetParam("unknown", 42)

	params := integ.GetParams()
	if params["gravity"] != -9.81 || params["friction"] != 1 {
		t.Errorf("unexpected params: %v", params)
	}
}

func BenchmarkVerlet(b *testing.B) {
	ps := cloth.NewParticleStore(33 * 33)
	for y := 0; y <= 32; y++ {
		for x := 0; x <= 32; x++ {
			ps.Add(cloth.Vec3{X: float64(x) * 0.5, Y: -float64(y) * 0.5}, y == 0)
		}
	}
	integ := NewVerlet()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Step(ps, 0.02)
	}
}
