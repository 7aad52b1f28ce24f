package constraints_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/constraints"
)

func pair(a, b cloth.Vec3, rest, brk float64) (*cloth.ParticleStore, *cloth.ConstraintStore) {
	ps := cloth.NewParticleStore(2)
	ps.Add(a, false)
	ps.Add(b, false)
	cs := cloth.NewConstraintStore(1)
	_, err := cs.Add(ps, 0, 1, rest, brk)
	Expect(err).NotTo(HaveOccurred())
	return ps, cs
}

func span(ps *cloth.ParticleStore) float64 {
	return ps.At(0).Position.Distance(ps.At(1).Position)
}

var _ = Describe("Solver", func() {
	var solver *constraints.Solver

	BeforeEach(func() {
		solver = constraints.NewSolver()
	})

	It("pulls stretched endpoints together without overshooting", func() {
		ps, cs := pair(cloth.Vec3{}, cloth.Vec3{X: 2}, 1, 0)
		before := span(ps)

		solver.Solve(ps, cs)

		after := span(ps)
		Expect(after).To(BeNumerically("<=", before))
		Expect(after).To(BeNumerically(">=", 1-1e-12))
	})

	It("pushes compressed endpoints apart without overshooting", func() {
		ps, cs := pair(cloth.Vec3{}, cloth.Vec3{X: 0.25}, 1, 0)
		before := span(ps)

		solver.Solve(ps, cs)

		after := span(ps)
		Expect(after).To(BeNumerically(">=", before))
		Expect(after).To(BeNumerically("<=", 1+1e-12))
	})

	It("moves both endpoints by the same amount", func() {
		ps, cs := pair(cloth.Vec3{}, cloth.Vec3{Y: -3}, 1, 0)

		solver.Solve(ps, cs)

		Expect(ps.At(0).Position.Y).To(BeNumerically("~", -1, 1e-12))
		Expect(ps.At(1).Position.Y).To(BeNumerically("~", -2, 1e-12))
	})

	It("leaves a satisfied constraint untouched", func() {
		a, b := cloth.Vec3{X: 1, Y: 2, Z: 3}, cloth.Vec3{X: 1, Y: 2.5, Z: 3}
		ps, cs := pair(a, b, 0.5, 0)

		solver.Solve(ps, cs)

		Expect(ps.At(0).Position).To(Equal(a))
		Expect(ps.At(1).Position).To(Equal(b))
	})

	It("applies no correction to coincident particles", func() {
		p := cloth.Vec3{X: 4, Y: 4}
		ps, cs := pair(p, p, 1, 0)

		solver.Solve(ps, cs)

		Expect(ps.At(0).Position).To(Equal(p))
		Expect(ps.At(1).Position).To(Equal(p))
	})

	It("skips disabled connectors", func() {
		ps, cs := pair(cloth.Vec3{}, cloth.Vec3{X: 2}, 1, 0)
		cs.At(0).Disable()

		solver.Solve(ps, cs)

		Expect(span(ps)).To(BeNumerically("==", 2))
	})

	It("retires a connector beyond its break length instead of correcting", func() {
		ps, cs := pair(cloth.Vec3{}, cloth.Vec3{X: 1.5}, 0.5, 1.0)

		snapped := solver.Solve(ps, cs)

		Expect(snapped).To(Equal([]int{0}))
		Expect(cs.At(0).Enabled()).To(BeFalse())
		Expect(span(ps)).To(BeNumerically("==", 1.5))

		ps.At(1).Position = cloth.Vec3{X: 0.5}
		Expect(solver.Solve(ps, cs)).To(BeEmpty())
		Expect(cs.At(0).Enabled()).To(BeFalse())
	})

	It("treats a zero break length as unbreakable", func() {
		ps, cs := pair(cloth.Vec3{}, cloth.Vec3{X: 100}, 0.5, 0)

		Expect(solver.Solve(ps, cs)).To(BeEmpty())
		Expect(cs.At(0).Enabled()).To(BeTrue())
	})

	Context("with more passes", func() {
		It("converges a chain further than a single pass", func() {
			build := func() (*cloth.ParticleStore, *cloth.ConstraintStore) {
				ps := cloth.NewParticleStore(3)
				ps.Add(cloth.Vec3{}, false)
				ps.Add(cloth.Vec3{X: 2}, false)
				ps.Add(cloth.Vec3{X: 4}, false)
				cs := cloth.NewConstraintStore(2)
				cs.Add(ps, 0, 1, 1, 0)
				cs.Add(ps, 1, 2, 1, 0)
				return ps, cs
			}
			residual := func(ps *cloth.ParticleStore) float64 {
				e1 := ps.At(0).Position.Distance(ps.At(1).Position) - 1
				e2 := ps.At(1).Position.Distance(ps.At(2).Position) - 1
				return e1*e1 + e2*e2
			}

			soft, softC := build()
			constraints.NewSolver().Solve(soft, softC)

			stiff, stiffC := build()
			(&constraints.Solver{Passes: 8}).Solve(stiff, stiffC)

			Expect(residual(stiff)).To(BeNumerically("<", residual(soft)))
		})
	})
})

var _ = Describe("Correction", func() {
	It("points from B to A when stretched", func() {
		c := constraints.Correction(cloth.Vec3{X: 2}, 2, 1)
		Expect(c).To(Equal(cloth.Vec3{X: 0.5}))
	})

	It("points from A to B when compressed", func() {
		c := constraints.Correction(cloth.Vec3{X: 0.5}, 0.5, 1)
		Expect(c).To(Equal(cloth.Vec3{X: -0.25}))
	})

	It("is zero at rest length", func() {
		Expect(constraints.Correction(cloth.Vec3{X: 1}, 1, 1)).To(Equal(cloth.Vec3{}))
	})
})
