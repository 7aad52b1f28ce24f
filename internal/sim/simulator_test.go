package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/constraints"
	"github.com/san-kum/clothsim/internal/control"
	"github.com/san-kum/clothsim/internal/integrators"
	"github.com/san-kum/clothsim/internal/sim"
)

const dt = 0.02

// hanging builds a pinned anchor at the origin with one free particle below it.
func hanging(brk float64) (*cloth.ParticleStore, *cloth.ConstraintStore) {
	ps := cloth.NewParticleStore(2)
	ps.Add(cloth.Vec3{}, true)
	ps.Add(cloth.Vec3{Y: -0.5}, false)
	cs := cloth.NewConstraintStore(1)
	_, err := cs.Add(ps, 0, 1, 0.5, brk)
	Expect(err).NotTo(HaveOccurred())
	return ps, cs
}

// sheet builds an n by n grid in the XY plane with the top row pinned.
func sheet(n int, spacing float64) (*cloth.ParticleStore, *cloth.ConstraintStore) {
	ps := cloth.NewParticleStore(n * n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			ps.Add(cloth.Vec3{X: float64(x) * spacing, Y: -float64(y) * spacing}, y == 0)
		}
	}
	cs := cloth.NewConstraintStore(2 * n * n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			i := y*n + x
			if x > 0 {
				_, err := cs.Add(ps, i, i-1, spacing, spacing*3)
				Expect(err).NotTo(HaveOccurred())
			}
			if y > 0 {
				_, err := cs.Add(ps, i, i-n, spacing, spacing*3)
				Expect(err).NotTo(HaveOccurred())
			}
		}
	}
	return ps, cs
}

type counter struct{ n float64 }

func (c *counter) Name() string         { return "ticks" }
func (c *counter) Observe(*cloth.State) { c.n++ }
func (c *counter) Value() float64       { return c.n }
func (c *counter) Reset()               { c.n = 0 }

type recorder struct{ ticks []int }

func (r *recorder) OnStep(st *cloth.State) { r.ticks = append(r.ticks, st.Tick) }

var _ = Describe("Simulator", func() {
	var interaction *control.Interaction

	BeforeEach(func() {
		interaction = control.NewInteraction(cloth.Identity{})
	})

	newSim := func(ps *cloth.ParticleStore, cs *cloth.ConstraintStore) *sim.Simulator {
		return sim.New(ps, cs, integrators.NewVerlet(), constraints.NewSolver(), interaction)
	}

	Describe("Step", func() {
		It("integrates, relaxes and re-pins a hanging pair", func() {
			s := newSim(hanging(0))

			st, err := s.Step(dt, cloth.Input{Pointer: cloth.Vec2{X: 100, Y: 100}})
			Expect(err).NotTo(HaveOccurred())

			Expect(st.Tick).To(Equal(1))
			Expect(st.Time).To(BeNumerically("~", dt, 1e-12))
			Expect(st.Particles[0].Position).To(Equal(cloth.Vec3{}))
			Expect(st.Particles[1].Position.X).To(BeNumerically("~", 0, 1e-12))
			Expect(st.Particles[1].Position.Y).To(BeNumerically("~", -0.5024, 1e-12))
			Expect(st.Connectors[0].Enabled).To(BeTrue())
			Expect(st.Grabbed).To(Equal(-1))
		})

		It("keeps pinned particles fixed over a long run", func() {
			s := newSim(sheet(5, 0.5))
			for i := 0; i < 200; i++ {
				st, err := s.Step(dt, cloth.Input{Pointer: cloth.Vec2{X: 1000, Y: 1000}})
				Expect(err).NotTo(HaveOccurred())
				for x := 0; x < 5; x++ {
					Expect(st.Particles[x].Position).To(Equal(cloth.Vec3{X: float64(x) * 0.5}))
				}
			}
		})

		It("snaps an overstretched connector exactly once", func() {
			interaction.Threshold = 0.1
			interaction.GrabScale = 1
			s := newSim(hanging(1.0))

			pointer := cloth.Vec2{Y: -0.5}
			snaps := 0
			wasEnabled := true
			for i := 0; i < 20; i++ {
				st, err := s.Step(dt, cloth.Input{Pointer: pointer, Grab: true})
				Expect(err).NotTo(HaveOccurred())
				snaps += len(st.Snapped)

				enabled := st.Connectors[0].Enabled
				if !wasEnabled {
					Expect(enabled).To(BeFalse())
				}
				wasEnabled = enabled
				pointer.Y -= 0.3
			}

			Expect(snaps).To(Equal(1))
			Expect(wasEnabled).To(BeFalse())
			Expect(s.State().Broken).To(Equal(1))
		})

		It("holds a single particle while the button stays down", func() {
			ps := cloth.NewParticleStore(3)
			ps.Add(cloth.Vec3{}, true)
			ps.Add(cloth.Vec3{X: 1}, false)
			ps.Add(cloth.Vec3{X: 1.5}, false)
			cs := cloth.NewConstraintStore(2)
			_, err := cs.Add(ps, 0, 1, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = cs.Add(ps, 1, 2, 0.5, 0)
			Expect(err).NotTo(HaveOccurred())

			interaction.Threshold = 1
			s := newSim(ps, cs)

			st, err := s.Step(dt, cloth.Input{Pointer: cloth.Vec2{X: 1.4}, Grab: true})
			Expect(err).NotTo(HaveOccurred())
			first := st.Grabbed
			Expect(first).To(BeNumerically(">=", 0))

			for i := 0; i < 10; i++ {
				st, err = s.Step(dt, cloth.Input{Pointer: cloth.Vec2{X: 1.4 + float64(i)*0.1}, Grab: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(st.Grabbed).To(Equal(first))
			}

			st, err = s.Step(dt, cloth.Input{})
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Grabbed).To(Equal(-1))
		})

		It("cuts connectors near the pointer", func() {
			s := newSim(hanging(0))

			st, err := s.Step(dt, cloth.Input{Pointer: cloth.Vec2{}, Cut: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Cut).To(Equal([]int{0}))
			Expect(st.Connectors[0].Enabled).To(BeFalse())
			Expect(st.Broken).To(Equal(1))
		})

		It("rejects a non-positive time step", func() {
			s := newSim(hanging(0))

			_, err := s.Step(0, cloth.Input{})
			Expect(errors.Is(err, cloth.ErrInvalidInput)).To(BeTrue())
			_, err = s.Step(math.NaN(), cloth.Input{})
			Expect(errors.Is(err, cloth.ErrInvalidInput)).To(BeTrue())
			Expect(s.Tick()).To(Equal(0))
		})

		It("rejects a non-finite pointer", func() {
			s := newSim(hanging(0))

			_, err := s.Step(dt, cloth.Input{Pointer: cloth.Vec2{X: math.Inf(1)}})
			Expect(errors.Is(err, cloth.ErrInvalidInput)).To(BeTrue())
		})

		It("rolls back a tick that produces a non-finite position", func() {
			ps, cs := hanging(0)
			bad := &integrators.Verlet{Gravity: math.Inf(-1), Friction: integrators.DefaultFriction}
			s := sim.New(ps, cs, bad, constraints.NewSolver(), interaction)
			before := s.State()

			_, err := s.Step(dt, cloth.Input{Pointer: cloth.Vec2{}, Cut: true})
			Expect(errors.Is(err, cloth.ErrInvalidState)).To(BeTrue())

			var stepErr *cloth.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Tick).To(Equal(1))
			Expect(stepErr.Particle).To(Equal(1))

			Expect(s.Tick()).To(Equal(0))
			Expect(ps.At(1).Position).To(Equal(cloth.Vec3{Y: -0.5}))
			Expect(cs.At(0).Enabled()).To(BeTrue())
			Expect(s.State()).To(BeIdenticalTo(before))
		})

		It("leaves the published state untouched when queried", func() {
			s := newSim(hanging(0))
			_, err := s.Step(dt, cloth.Input{})
			Expect(err).NotTo(HaveOccurred())

			a := s.State()
			b := s.State()
			Expect(a).To(BeIdenticalTo(b))
			Expect(s.Tick()).To(Equal(1))
		})
	})

	Describe("Reset", func() {
		It("restores the initial topology", func() {
			ps, cs := hanging(0)
			s := newSim(ps, cs)
			_, err := s.Step(dt, cloth.Input{Pointer: cloth.Vec2{}, Cut: true})
			Expect(err).NotTo(HaveOccurred())

			s.Reset()

			st := s.State()
			Expect(st.Tick).To(Equal(0))
			Expect(st.Broken).To(Equal(0))
			Expect(st.Particles[1].Position).To(Equal(cloth.Vec3{Y: -0.5}))
		})
	})

	Describe("Run", func() {
		It("collects metric series and notifies observers", func() {
			s := newSim(hanging(0))
			m := &counter{}
			r := &recorder{}
			s.AddMetric(m)
			s.AddObserver(r)

			cfg := sim.DefaultConfig()
			cfg.Ticks = 25
			res, err := s.Run(context.Background(), cfg, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.StepsTaken).To(Equal(25))
			Expect(res.Times).To(HaveLen(25))
			Expect(res.Series["ticks"]).To(HaveLen(25))
			Expect(res.Metrics["ticks"]).To(Equal(25.0))
			Expect(res.Final.Tick).To(Equal(25))
			Expect(r.ticks).To(HaveLen(25))
			Expect(r.ticks[24]).To(Equal(25))
		})

		It("feeds inputs by tick", func() {
			s := newSim(hanging(0))
			src := sim.InputFunc(func(tick int) cloth.Input {
				return cloth.Input{Pointer: cloth.Vec2{}, Cut: tick == 3}
			})

			cfg := sim.DefaultConfig()
			cfg.Ticks = 10
			res, err := s.Run(context.Background(), cfg, src)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final.Broken).To(Equal(1))
		})

		It("gives up after repeated failures", func() {
			ps, cs := hanging(0)
			bad := &integrators.Verlet{Gravity: math.Inf(-1), Friction: integrators.DefaultFriction}
			s := sim.New(ps, cs, bad, constraints.NewSolver(), nil)

			cfg := sim.DefaultConfig()
			res, err := s.Run(context.Background(), cfg, nil)
			Expect(errors.Is(err, cloth.ErrUnstable)).To(BeTrue())
			Expect(res.Errors).To(HaveLen(cfg.MaxFailures))
			Expect(res.StepsTaken).To(Equal(0))
		})

		It("stops when the context is cancelled", func() {
			s := newSim(hanging(0))
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := s.Run(ctx, sim.DefaultConfig(), nil)
			Expect(err).To(MatchError(context.Canceled))
		})

		It("validates its configuration", func() {
			s := newSim(hanging(0))
			_, err := s.Run(context.Background(), sim.Config{Dt: 0, Ticks: 1}, nil)
			Expect(err).To(HaveOccurred())
			_, err = s.Run(context.Background(), sim.Config{Dt: dt, Ticks: 0}, nil)
			Expect(err).To(HaveOccurred())
			_, err = s.Run(context.Background(), sim.Config{Dt: dt, Ticks: 1}, nil)
			Expect(err).To(HaveOccurred())
		})
	})
})
