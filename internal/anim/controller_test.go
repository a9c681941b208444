package anim_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/stats"
)

var _ = Describe("Controller", func() {
	var (
		rec      *render.Recorder
		opts     anim.Options
		ctrl     *anim.Controller
		baseline geom.Segment
	)

	runToEnd := func() int {
		n := 0
		for ctrl.Active() {
			ctrl.Tick()
			n++
		}
		return n
	}

	BeforeEach(func() {
		rec = render.NewRecorder()
		opts = anim.DefaultOptions()
		baseline = geom.Baseline(1)
	})

	JustBeforeEach(func() {
		ctrl = anim.NewController(opts, rec, nil)
		ctrl.SetBaseline(baseline)
	})

	Describe("Start", func() {
		It("captures bounds from se and enters the rising phase", func() {
			Expect(ctrl.Start(2.0)).To(BeTrue())

			s := ctrl.State()
			Expect(s.Phase).To(Equal(anim.RisingToUpper))
			Expect(s.StepInPhase).To(BeZero())
			Expect(s.Bounds.Upper).To(Equal(5.0))
			Expect(s.Bounds.Lower).To(Equal(-3.0))
			Expect(s.CurrentSlope).To(Equal(1.0))
		})

		It("shows the band polygon", func() {
			ctrl.Start(2.0)
			band := ctrl.Band()
			Expect(band).To(HaveLen(5))
			Expect(rec.Current().Series[render.SeriesBand]).To(Equal(band))
			Expect(band[0].X).To(Equal(band[3].X))
			Expect(band[1].X).To(Equal(band[2].X))
			Expect(band[0]).To(Equal(band[4]))
		})

		It("is a no-op while a run is in progress", func() {
			ctrl.Start(2.0)
			for i := 0; i < 75; i++ {
				ctrl.Tick()
			}
			before := ctrl.State()
			frames := len(rec.Frames)

			Expect(ctrl.Start(0.5)).To(BeFalse())
			Expect(ctrl.State()).To(Equal(before))
			Expect(rec.Frames).To(HaveLen(frames))
		})

		Context("with the band disabled", func() {
			BeforeEach(func() { opts.ShowBand = false })

			It("does not draw a band", func() {
				ctrl.Start(2.0)
				Expect(ctrl.Band()).To(BeNil())
				Expect(rec.Current().Series).NotTo(HaveKey(render.SeriesBand))
			})
		})

		Context("with se rounded to the readout", func() {
			BeforeEach(func() { opts.RoundSE = true })

			It("derives bounds from the two-decimal value", func() {
				ctrl.Start(0.6325)
				Expect(ctrl.State().Bounds.Upper).To(BeNumerically("~", 2.26, 1e-12))
				Expect(ctrl.State().Bounds.Lower).To(BeNumerically("~", -0.26, 1e-12))
			})
		})
	})

	Describe("a full run", func() {
		It("takes three phases worth of ticks", func() {
			ctrl.Start(2.0)
			Expect(runToEnd()).To(Equal(anim.RunLength(opts.StepsPerPhase)))
			Expect(ctrl.State().Phase).To(Equal(anim.Idle))
		})

		It("pushes a rotated line on every tick but the last", func() {
			ctrl.Start(2.0)
			start := len(rec.Frames)
			runToEnd()

			frames := rec.Frames[start:]
			Expect(frames).To(HaveLen(anim.RunLength(opts.StepsPerPhase)))
			for _, f := range frames[:len(frames)-1] {
				line, ok := f.Line()
				Expect(ok).To(BeTrue())
				mid := line.Midpoint()
				Expect(mid.X).To(Equal(geom.Center.X))
				Expect(mid.Y).To(BeNumerically("~", geom.Center.Y, 1e-12))
				Expect(line.B.X - line.A.X).To(Equal(2 * opts.LineHalfWidth))
			}
		})

		It("shows each bound exactly at the phase boundaries", func() {
			ctrl.Start(2.0)
			start := len(rec.Frames)
			runToEnd()

			atUpper := rec.Frames[start+opts.StepsPerPhase-1]
			atLower := rec.Frames[start+2*opts.StepsPerPhase-1]
			Expect(atUpper.Scene.Readouts[render.ReadoutSlope]).To(Equal("5.00"))
			Expect(atLower.Scene.Readouts[render.ReadoutSlope]).To(Equal("-3.00"))

			up, _ := atUpper.Line()
			Expect(up).To(Equal(geom.Rotated(geom.Center, 5, 1)))
			low, _ := atLower.Line()
			Expect(low).To(Equal(geom.Rotated(geom.Center, -3, 1)))
		})

		It("ends on the baseline with the original slope readout", func() {
			ctrl.Start(2.0)
			runToEnd()

			last := rec.Frames[len(rec.Frames)-1]
			line, ok := last.Line()
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal(baseline))
			Expect(last.Scene.Readouts[render.ReadoutSlope]).To(Equal("1.00"))
		})

		It("leaves the band visible afterwards", func() {
			ctrl.Start(2.0)
			runToEnd()
			Expect(ctrl.Band()).To(HaveLen(5))
			Expect(rec.Current().Series).To(HaveKey(render.SeriesBand))
		})

		It("can be triggered again once finished", func() {
			ctrl.Start(2.0)
			runToEnd()
			Expect(ctrl.Start(1.0)).To(BeTrue())
			Expect(ctrl.State().Bounds.Upper).To(Equal(3.0))
		})

		It("completes its full tick budget when se is zero", func() {
			ctrl.Start(0)
			start := len(rec.Frames)
			Expect(runToEnd()).To(Equal(anim.RunLength(opts.StepsPerPhase)))
			for _, f := range rec.Frames[start:] {
				Expect(f.Scene.Readouts[render.ReadoutSlope]).To(Equal("1.00"))
			}
			Expect(ctrl.Start(0)).To(BeTrue())
		})

		Context("with a wider baseline", func() {
			BeforeEach(func() { baseline = geom.Baseline(2) })

			It("restores that baseline", func() {
				ctrl.Start(1.0)
				runToEnd()
				line, _ := rec.Frames[len(rec.Frames)-1].Line()
				Expect(line).To(Equal(geom.Segment{A: geom.Point{X: 1, Y: 1}, B: geom.Point{X: 5, Y: 5}}))
			})
		})
	})

	Describe("Tick", func() {
		It("does nothing while idle", func() {
			tk := ctrl.Tick()
			Expect(tk.Transition()).To(BeFalse())
			Expect(rec.Frames).To(BeEmpty())
		})
	})

	Describe("Advance", func() {
		BeforeEach(func() { opts.TickPeriod = 30 * time.Millisecond })

		It("runs whole ticks and carries the remainder", func() {
			ctrl.Start(2.0)
			Expect(ctrl.Advance(100 * time.Millisecond)).To(Equal(3))
			Expect(ctrl.State().StepInPhase).To(Equal(3))
			Expect(ctrl.Advance(20 * time.Millisecond)).To(Equal(1))
			Expect(ctrl.Advance(10 * time.Millisecond)).To(Equal(0))
			Expect(ctrl.State().StepInPhase).To(Equal(4))
		})

		It("stops at the end of the run", func() {
			ctrl.Start(2.0)
			n := ctrl.Advance(time.Hour)
			Expect(n).To(Equal(anim.RunLength(opts.StepsPerPhase)))
			Expect(ctrl.Active()).To(BeFalse())
			Expect(ctrl.Advance(time.Second)).To(BeZero())
		})

		It("ignores time while idle", func() {
			Expect(ctrl.Advance(time.Second)).To(BeZero())
			ctrl.Start(2.0)
			Expect(ctrl.Advance(29 * time.Millisecond)).To(BeZero())
		})

		Context("without a tick period", func() {
			BeforeEach(func() { opts.TickPeriod = 0 })

			It("runs one tick per call", func() {
				ctrl.Start(2.0)
				Expect(ctrl.Advance(time.Hour)).To(Equal(1))
			})
		})
	})

	Describe("Cancel", func() {
		It("returns to idle on the baseline and keeps the band", func() {
			ctrl.Start(2.0)
			for i := 0; i < 90; i++ {
				ctrl.Tick()
			}
			Expect(ctrl.Cancel()).To(BeTrue())
			Expect(ctrl.State().Phase).To(Equal(anim.Idle))

			line, _ := rec.Frames[len(rec.Frames)-1].Line()
			Expect(line).To(Equal(baseline))
			Expect(rec.Current().Readouts[render.ReadoutSlope]).To(Equal(stats.Readout(1)))
			Expect(ctrl.Band()).NotTo(BeNil())
		})

		It("reports false when idle", func() {
			Expect(ctrl.Cancel()).To(BeFalse())
		})
	})

	Describe("ClearBand", func() {
		It("removes the band series", func() {
			ctrl.Start(2.0)
			runToEnd()
			ctrl.ClearBand()
			Expect(ctrl.Band()).To(BeNil())
			Expect(rec.Current().Series).NotTo(HaveKey(render.SeriesBand))
		})

		It("is hidden when the band is switched off", func() {
			ctrl.Start(2.0)
			ctrl.SetShowBand(false)
			Expect(ctrl.Band()).To(BeNil())
			Expect(ctrl.Options().ShowBand).To(BeFalse())
		})
	})
})
