package orbit

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

func mustBody(x, y, xDot, yDot, mass float64) Body {
	b, err := NewBody(x, y, xDot, yDot, mass)
	Expect(err).NotTo(HaveOccurred())
	return b
}

// circularBinary returns two equal unit masses a unit distance apart on a
// circular orbit about their common centre, with G = 1.
func circularBinary() *System {
	v := math.Sqrt(0.5)
	sys := NewSystem()
	sys.SetGravitationalConstant(1)
	sys.AddBody(mustBody(-0.5, 0, 0, -v, 1))
	sys.AddBody(mustBody(0.5, 0, 0, v, 1))
	return sys
}

var _ = Describe("System", func() {
	var sys *System

	BeforeEach(func() {
		sys = NewSystem()
	})

	Describe("a new system", func() {
		It("starts empty at time zero with the SI gravitational constant", func() {
			Expect(sys.NumBodies()).To(Equal(0))
			Expect(sys.CurrentTime()).To(Equal(0.0))
			Expect(sys.GravitationalConstant()).To(Equal(6.67e-11))
		})

		It("rejects condition queries", func() {
			_, err := sys.SystemCondition()
			Expect(err).To(MatchError(ErrEmptySystem))
		})

		It("rejects derivative evaluation", func() {
			_, err := sys.EvaluateDerivative(dynamo.State{}, 0)
			Expect(err).To(MatchError(ErrEmptySystem))
		})

		It("fails to step without advancing time", func() {
			Expect(sys.StepRK4(0.1)).To(MatchError(ErrEmptySystem))
			Expect(sys.CurrentTime()).To(Equal(0.0))
		})
	})

	Describe("SetGravitationalConstant", func() {
		It("accepts any value", func() {
			for _, g := range []float64{1, 0, -2.5} {
				sys.SetGravitationalConstant(g)
				Expect(sys.GravitationalConstant()).To(Equal(g))
			}
		})

		It("inverts the force for negative G", func() {
			sys.SetGravitationalConstant(-1)
			sys.AddBody(mustBody(0, 0, 0, 0, 1))
			sys.AddBody(mustBody(2, 0, 0, 0, 1))
			x, _ := sys.SystemCondition()
			dx, err := sys.EvaluateDerivative(x, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dx[2]).To(BeNumerically("<", 0))
		})
	})

	Describe("AddBody", func() {
		It("stores a copy of the body", func() {
			b := mustBody(1, 2, 3, 4, 5)
			sys.AddBody(b)
			b.UpdateX(100)

			got, err := sys.Body(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.X()).To(Equal(1.0))
		})

		It("hands out copies from Bodies", func() {
			sys.AddBody(mustBody(1, 2, 3, 4, 5))
			bodies := sys.Bodies()
			bodies[0].UpdateX(100)

			got, _ := sys.Body(0)
			Expect(got.X()).To(Equal(1.0))
		})

		It("reports out-of-range indices", func() {
			sys.AddBody(mustBody(0, 0, 0, 0, 1))
			_, err := sys.Body(1)
			Expect(err).To(HaveOccurred())
			_, err = sys.Body(-1)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SystemCondition", func() {
		It("lays out x, y, xDot, yDot per body in insertion order", func() {
			sys.AddBody(mustBody(1, 2, 3, 4, 1))
			sys.AddBody(mustBody(5, 6, 7, 8, 2))
			sys.AddBody(mustBody(9, 10, 11, 12, 3))

			x, err := sys.SystemCondition()
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(HaveLen(12))
			Expect([]float64(x)).To(Equal([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}))
		})

		It("is an idempotent read", func() {
			sys.AddBody(mustBody(1, 2, 3, 4, 1))
			sys.AddBody(mustBody(-1, 0.5, 0, 2, 1))

			first, _ := sys.SystemCondition()
			first[0] = 42
			second, _ := sys.SystemCondition()
			Expect(second[0]).To(Equal(1.0))

			third, _ := sys.SystemCondition()
			Expect(third).To(Equal(second))
		})
	})

	Describe("EvaluateDerivative", func() {
		It("matches the closed form for two bodies", func() {
			sys.SetGravitationalConstant(3)
			sys.AddBody(mustBody(1, 1, 0.25, -0.5, 2))
			sys.AddBody(mustBody(3, 1, 0, 0, 4))

			x, _ := sys.SystemCondition()
			dx, err := sys.EvaluateDerivative(x, 0)
			Expect(err).NotTo(HaveOccurred())

			// |p2 - p1| = 2, so a1 = G*m2*(p2-p1)/8 and a2 = G*m1*(p1-p2)/8.
			Expect(dx[0]).To(Equal(0.25))
			Expect(dx[1]).To(Equal(-0.5))
			Expect(dx[2]).To(Equal(3.0 * 4 * 2 / 8))
			Expect(dx[3]).To(Equal(0.0))
			Expect(dx[6]).To(Equal(-3.0 * 2 * 2 / 8))
			Expect(dx[7]).To(Equal(0.0))
		})

		It("agrees with the inverse-square law for a general pair", func() {
			g, m2 := 6.67e-11, 5.97e24
			sys.SetGravitationalConstant(g)
			sys.AddBody(mustBody(0, 0, 0, 0, 1))
			sys.AddBody(mustBody(3e6, 4e6, 0, 0, m2))

			x, _ := sys.SystemCondition()
			dx, err := sys.EvaluateDerivative(x, 0)
			Expect(err).NotTo(HaveOccurred())

			r := 5e6
			Expect(dx[2]).To(BeNumerically("~", g*m2*3e6/(r*r*r), 1e-12))
			Expect(dx[3]).To(BeNumerically("~", g*m2*4e6/(r*r*r), 1e-12))
		})

		It("reads positions from the condition, not from the stored bodies", func() {
			sys.SetGravitationalConstant(1)
			sys.AddBody(mustBody(0, 0, 0, 0, 1))
			sys.AddBody(mustBody(1, 0, 0, 0, 1))

			dx, err := sys.EvaluateDerivative(dynamo.State{0, 0, 9, 8, 0, 2, 0, 0}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dx[0]).To(Equal(9.0))
			Expect(dx[1]).To(Equal(8.0))
			Expect(dx[2]).To(Equal(0.0))
			Expect(dx[3]).To(Equal(0.25))
		})

		It("ignores the time argument", func() {
			bin := circularBinary()
			x, _ := bin.SystemCondition()
			a, _ := bin.EvaluateDerivative(x, 0)
			b, _ := bin.EvaluateDerivative(x, 1e9)
			Expect(a).To(Equal(b))
		})

		It("fails on coincident bodies instead of producing NaN", func() {
			sys.SetGravitationalConstant(1)
			sys.AddBody(mustBody(1, 1, 0, 0, 1))
			sys.AddBody(mustBody(5, 5, 0, 0, 1))
			sys.AddBody(mustBody(1, 1, 3, 0, 1))

			x, _ := sys.SystemCondition()
			_, err := sys.EvaluateDerivative(x, 0)
			Expect(err).To(MatchError(ErrCoincidentBodies))

			var ce *CoincidenceError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.I).To(Equal(0))
			Expect(ce.J).To(Equal(2))
		})

		It("rejects a condition of the wrong length", func() {
			sys.AddBody(mustBody(0, 0, 0, 0, 1))
			_, err := sys.EvaluateDerivative(dynamo.State{0, 0, 0}, 0)
			Expect(err).To(MatchError(ErrSizeMismatch))
		})
	})

	Describe("applyCondition", func() {
		It("writes positions and velocities but keeps masses", func() {
			sys.AddBody(mustBody(0, 0, 0, 0, 7))
			Expect(sys.applyCondition(dynamo.State{1, 2, 3, 4})).To(Succeed())

			b, _ := sys.Body(0)
			Expect([]float64{b.X(), b.Y(), b.XDot(), b.YDot(), b.Mass()}).To(Equal([]float64{1, 2, 3, 4, 7}))
		})

		It("rejects a vector of the wrong size", func() {
			sys.AddBody(mustBody(0, 0, 0, 0, 7))
			Expect(sys.applyCondition(dynamo.State{1, 2, 3, 4, 5})).To(MatchError(ErrSizeMismatch))
		})
	})

	Describe("StepRK4", func() {
		It("moves a lone body in a straight line", func() {
			sys.SetGravitationalConstant(1)
			sys.AddBody(mustBody(1, 2, 3, -4, 5))

			Expect(sys.StepRK4(0.5)).To(Succeed())

			b, _ := sys.Body(0)
			Expect(b.X()).To(BeNumerically("~", 2.5, 1e-12))
			Expect(b.Y()).To(BeNumerically("~", 0.0, 1e-12))
			Expect(b.XDot()).To(Equal(3.0))
			Expect(b.YDot()).To(Equal(-4.0))
			Expect(b.Mass()).To(Equal(5.0))
			Expect(sys.CurrentTime()).To(Equal(0.5))
		})

		It("leaves a stationary lone body at rest", func() {
			sys.SetGravitationalConstant(1)
			sys.AddBody(mustBody(0, 0, 0, 0, 1))

			for i := 0; i < 2; i++ {
				Expect(sys.StepRK4(0.5)).To(Succeed())
			}

			x, _ := sys.SystemCondition()
			Expect([]float64(x)).To(Equal([]float64{0, 0, 0, 0}))
			Expect(sys.CurrentTime()).To(Equal(1.0))
		})

		It("commits nothing when a stage hits a coincidence", func() {
			sys.SetGravitationalConstant(1)
			sys.AddBody(mustBody(0, 0, 0, 0, 1))
			sys.AddBody(mustBody(0, 0, 1, 0, 1))

			before, _ := sys.SystemCondition()
			Expect(sys.StepRK4(0.1)).To(MatchError(ErrCoincidentBodies))

			after, _ := sys.SystemCondition()
			Expect(after).To(Equal(before))
			Expect(sys.CurrentTime()).To(Equal(0.0))
		})

		It("commits nothing when an intermediate stage collides", func() {
			// Body 2 reaches body 1 exactly at the k4 probe point y0 + k3.
			sys.SetGravitationalConstant(0)
			sys.AddBody(mustBody(0, 0, 0, 0, 1))
			sys.AddBody(mustBody(1, 0, -1, 0, 1))

			Expect(sys.StepRK4(1)).To(MatchError(ErrCoincidentBodies))
			Expect(sys.CurrentTime()).To(Equal(0.0))
			b, _ := sys.Body(1)
			Expect(b.X()).To(Equal(1.0))
		})

		It("keeps a circular binary on its orbit", func() {
			bin := circularBinary()
			period := 2 * math.Pi * 0.5 / math.Sqrt(0.5)
			h := period / 1000

			for i := 0; i < 1000; i++ {
				Expect(bin.StepRK4(h)).To(Succeed())
			}

			b0, _ := bin.Body(0)
			b1, _ := bin.Body(1)
			Expect(b0.X()).To(BeNumerically("~", -0.5, 1e-6))
			Expect(b0.Y()).To(BeNumerically("~", 0, 1e-6))
			Expect(b1.X()).To(BeNumerically("~", 0.5, 1e-6))
			Expect(bin.CurrentTime()).To(BeNumerically("~", period, 1e-9))
		})

		It("conserves energy and angular momentum to truncation error", func() {
			bin := circularBinary()
			x0, _ := bin.SystemCondition()
			e0, err := bin.Energy(x0)
			Expect(err).NotTo(HaveOccurred())
			l0, _ := bin.AngularMomentum(x0)

			Expect(e0).To(BeNumerically("~", -0.5, 1e-12))
			Expect(l0).To(BeNumerically("~", math.Sqrt(0.5), 1e-12))

			for i := 0; i < 2000; i++ {
				Expect(bin.StepRK4(0.01)).To(Succeed())
			}

			x1, _ := bin.SystemCondition()
			e1, _ := bin.Energy(x1)
			l1, _ := bin.AngularMomentum(x1)
			px, py, _ := bin.Momentum(x1)

			Expect(math.Abs((e1 - e0) / e0)).To(BeNumerically("<", 1e-6))
			Expect(math.Abs((l1 - l0) / l0)).To(BeNumerically("<", 1e-6))
			Expect(px).To(BeNumerically("~", 0, 1e-12))
			Expect(py).To(BeNumerically("~", 0, 1e-12))
		})
	})
})
