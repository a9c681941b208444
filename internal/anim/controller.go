package anim

import (
	"log/slog"
	"time"

	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/stats"
)

const (
	DefaultStepsPerPhase = 60
	DefaultTickPeriod    = 30 * time.Millisecond
	DefaultLineHalfWidth = 1.0
	DefaultBandHalfWidth = 1.5
)

type Options struct {
	StepsPerPhase int
	TickPeriod    time.Duration
	LineHalfWidth float64
	BandHalfWidth float64
	ShowBand      bool
	// RoundSE derives the bounds from se rounded to the two-decimal readout
	// instead of the full-precision value.
	RoundSE bool
}

func DefaultOptions() Options {
	return Options{
		StepsPerPhase: DefaultStepsPerPhase,
		TickPeriod:    DefaultTickPeriod,
		LineHalfWidth: DefaultLineHalfWidth,
		BandHalfWidth: DefaultBandHalfWidth,
		ShowBand:      true,
	}
}

// Controller runs one slope animation at a time and pushes every frame to
// its renderer. It owns the line series while active and the band series
// from the start of a run until ClearBand.
type Controller struct {
	opts     Options
	r        render.Renderer
	log      *slog.Logger
	state    State
	mid      geom.Point
	baseline geom.Segment
	band     []geom.Point
	elapsed  time.Duration
}

func NewController(opts Options, r render.Renderer, logger *slog.Logger) *Controller {
	if r == nil {
		r = render.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		opts:     opts,
		r:        r,
		log:      logger,
		baseline: geom.Baseline(1),
	}
}

func (c *Controller) State() State     { return c.state }
func (c *Controller) Active() bool     { return c.state.Active() }
func (c *Controller) Options() Options { return c.opts }

// Band is the currently shown band polygon, or nil.
func (c *Controller) Band() []geom.Point { return c.band }

// SetBaseline sets the segment restored at the end of a run. It is read,
// never modified.
func (c *Controller) SetBaseline(seg geom.Segment) { c.baseline = seg }

// Start begins a run from the given standard error. It is a no-op returning
// false while a run is in progress.
func (c *Controller) Start(se float64) bool {
	if c.Active() {
		return false
	}
	if c.opts.RoundSE {
		se = stats.Displayed(se)
	}

	b := stats.NewBounds(stats.OriginalSlope, se)
	c.mid = c.baseline.Midpoint()
	c.state = Begin(b)
	c.elapsed = 0

	c.log.Debug("animation started",
		"lower", b.Lower, "original", b.Original, "upper", b.Upper, "se", se)

	if c.opts.ShowBand {
		poly := geom.BandPolygon(c.mid, b.Upper, b.Lower, c.opts.BandHalfWidth)
		c.band = poly[:]
		c.r.SetSeries(render.SeriesBand, c.band)
		c.r.Redraw()
	}
	return true
}

// Tick advances exactly one step and pushes the resulting frame.
func (c *Controller) Tick() Tick {
	if !c.Active() {
		return Tick{From: Idle, To: Idle, Slope: c.state.CurrentSlope}
	}
	next, tk := Step(c.state, c.opts.StepsPerPhase)
	c.state = next

	if tk.Transition() {
		c.log.Debug("phase complete", "phase", tk.From.String(), "slope", tk.Slope)
	}

	if tk.Done {
		c.restore()
		c.log.Debug("animation complete", "lower", next.Bounds.Lower, "upper", next.Bounds.Upper)
		return tk
	}

	seg := geom.Rotated(c.mid, next.CurrentSlope, c.opts.LineHalfWidth)
	c.r.SetSeries(render.SeriesLine, seg.Points())
	render.SetReadout(c.r, render.ReadoutSlope, stats.Readout(next.CurrentSlope))
	c.r.Redraw()
	return tk
}

// Advance converts elapsed wall time into whole ticks and returns how many
// ran. Leftover time carries into the next call; nothing carries across runs.
func (c *Controller) Advance(dt time.Duration) int {
	if !c.Active() {
		c.elapsed = 0
		return 0
	}
	if c.opts.TickPeriod <= 0 {
		c.Tick()
		return 1
	}

	c.elapsed += dt
	n := 0
	for c.elapsed >= c.opts.TickPeriod && c.Active() {
		c.elapsed -= c.opts.TickPeriod
		c.Tick()
		n++
	}
	if !c.Active() {
		c.elapsed = 0
	}
	return n
}

// Cancel stops a run in progress and restores the baseline. The band is
// left alone.
func (c *Controller) Cancel() bool {
	if !c.Active() {
		return false
	}
	c.log.Debug("animation canceled", "phase", c.state.Phase.String(), "step", c.state.StepInPhase)
	c.state = State{Phase: Idle, CurrentSlope: c.state.Bounds.Original, Bounds: c.state.Bounds}
	c.elapsed = 0
	c.restore()
	return true
}

// ClearBand hides the band polygon.
func (c *Controller) ClearBand() {
	if c.band == nil {
		return
	}
	c.band = nil
	c.r.SetSeries(render.SeriesBand, nil)
	c.r.Redraw()
}

// SetShowBand controls whether future runs draw the band; turning it off
// also hides the current one.
func (c *Controller) SetShowBand(show bool) {
	c.opts.ShowBand = show
	if !show {
		c.ClearBand()
	}
}

func (c *Controller) restore() {
	c.r.SetSeries(render.SeriesLine, c.baseline.Points())
	render.SetReadout(c.r, render.ReadoutSlope, stats.Readout(stats.OriginalSlope))
	c.r.Redraw()
}
