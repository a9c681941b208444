package anim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/stats"
)

var _ = Describe("Step", func() {
	const steps = 60

	It("leaves an idle state untouched", func() {
		s := anim.State{CurrentSlope: 1}
		next, tk := anim.Step(s, steps)
		Expect(next).To(Equal(s))
		Expect(tk.Transition()).To(BeFalse())
		Expect(tk.Done).To(BeFalse())
	})

	It("walks the phases in order and lands exactly on each bound", func() {
		b := stats.NewBounds(stats.OriginalSlope, 2.0)
		s := anim.Begin(b)

		var transitions []anim.Phase
		var ticks int
		for s.Active() {
			var tk anim.Tick
			s, tk = anim.Step(s, steps)
			ticks++
			if tk.Transition() {
				transitions = append(transitions, tk.To)
				Expect(s.StepInPhase).To(BeZero())
				switch tk.To {
				case anim.FallingToLower:
					Expect(tk.Slope).To(Equal(b.Upper))
				case anim.ReturningToOriginal:
					Expect(tk.Slope).To(Equal(b.Lower))
				case anim.Idle:
					Expect(tk.Slope).To(Equal(b.Original))
					Expect(tk.Done).To(BeTrue())
				}
			}
			Expect(ticks).To(BeNumerically("<=", anim.RunLength(steps)))
		}

		Expect(transitions).To(Equal([]anim.Phase{anim.FallingToLower, anim.ReturningToOriginal, anim.Idle}))
		Expect(ticks).To(Equal(anim.RunLength(steps)))
	})

	It("forces exact bounds even when interpolation drifts", func() {
		b := stats.NewBounds(stats.OriginalSlope, 0.1+0.2)
		s := anim.Begin(b)
		for s.Phase == anim.RisingToUpper {
			s, _ = anim.Step(s, 7)
		}
		Expect(s.CurrentSlope).To(Equal(b.Upper))
		for s.Phase == anim.FallingToLower {
			s, _ = anim.Step(s, 7)
		}
		Expect(s.CurrentSlope).To(Equal(b.Lower))
	})

	It("interpolates linearly within a phase", func() {
		b := stats.NewBounds(stats.OriginalSlope, 1.0)
		s := anim.Begin(b)
		for i := 0; i < 30; i++ {
			s, _ = anim.Step(s, steps)
		}
		Expect(s.Phase).To(Equal(anim.RisingToUpper))
		Expect(s.StepInPhase).To(Equal(30))
		Expect(s.CurrentSlope).To(BeNumerically("~", 2.0, 1e-12))
	})

	It("keeps the slope within the bounds", func() {
		b := stats.NewBounds(stats.OriginalSlope, 0.75)
		s := anim.Begin(b)
		for s.Active() {
			s, _ = anim.Step(s, 13)
			Expect(s.CurrentSlope).To(BeNumerically(">=", b.Lower))
			Expect(s.CurrentSlope).To(BeNumerically("<=", b.Upper))
		}
	})

	It("leaves an unknown phase untouched", func() {
		s := anim.State{Phase: anim.Phase(42), CurrentSlope: 1, Bounds: stats.NewBounds(1, 1)}
		Expect(s.Active()).To(BeFalse())
		next, tk := anim.Step(s, steps)
		Expect(next).To(Equal(s))
		Expect(tk.Transition()).To(BeFalse())
		Expect(tk.Done).To(BeFalse())
	})

	It("treats a non-positive step budget as one step per phase", func() {
		s := anim.Begin(stats.NewBounds(1, 1))
		n := 0
		for s.Active() {
			s, _ = anim.Step(s, 0)
			n++
		}
		Expect(n).To(Equal(3))
	})
})

var _ = Describe("Phase", func() {
	It("has readable names", func() {
		Expect(anim.Idle.String()).To(Equal("idle"))
		Expect(anim.RisingToUpper.String()).To(Equal("rising"))
		Expect(anim.FallingToLower.String()).To(Equal("falling"))
		Expect(anim.ReturningToOriginal.String()).To(Equal("returning"))
		Expect(anim.Phase(42).String()).To(Equal("unknown"))
	})

	It("parses its names back", func() {
		for _, p := range []anim.Phase{anim.Idle, anim.RisingToUpper, anim.FallingToLower, anim.ReturningToOriginal} {
			got, ok := anim.ParsePhase(p.String())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(p))
		}
		_, ok := anim.ParsePhase("sideways")
		Expect(ok).To(BeFalse())
	})
})
