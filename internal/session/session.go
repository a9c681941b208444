package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/stats"
)

// Session is one visualization: the current parameters, what is derived from
// them, and the animation controller drawing into a renderer. It is not safe
// for concurrent use.
type Session struct {
	params   stats.Params
	derived  stats.Derived
	baseline geom.Segment
	ctrl     *anim.Controller
	r        render.Renderer
	log      *slog.Logger
}

func New(p stats.Params, opts anim.Options, r render.Renderer, logger *slog.Logger) (*Session, error) {
	if r == nil {
		r = render.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		r:   r,
		log: logger,
	}
	s.ctrl = anim.NewController(opts, r, logger.With("component", "anim"))
	if err := s.SetParams(p); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Params() stats.Params     { return s.params }
func (s *Session) Derived() stats.Derived   { return s.derived }
func (s *Session) Baseline() geom.Segment   { return s.baseline }
func (s *Session) State() anim.State        { return s.ctrl.State() }
func (s *Session) Phase() anim.Phase        { return s.ctrl.State().Phase }
func (s *Session) Active() bool             { return s.ctrl.Active() }
func (s *Session) Band() []geom.Point       { return s.ctrl.Band() }
func (s *Session) BandVisible() bool        { return s.ctrl.Band() != nil }
func (s *Session) ShowBand() bool           { return s.ctrl.Options().ShowBand }
func (s *Session) Options() anim.Options    { return s.ctrl.Options() }
func (s *Session) Coverage() stats.Coverage { return stats.NominalCoverage(s.params.N) }

// Readouts returns the text the slope and SE readouts currently show.
func (s *Session) Readouts() map[string]string {
	slope := stats.OriginalSlope
	if s.ctrl.Active() {
		slope = s.ctrl.State().CurrentSlope
	}
	return map[string]string{
		render.ReadoutSlope: stats.Readout(slope),
		render.ReadoutSE:    stats.Readout(s.derived.SE),
	}
}

// SetParams applies validated input. Invalid input is rejected with a
// *ValidationError and leaves the session untouched. A run in progress keeps
// its bounds and the line; it returns to the new baseline when it ends.
func (s *Session) SetParams(p stats.Params) error {
	if err := Validate(p); err != nil {
		s.log.Warn("rejected parameters", "n", p.N, "var_x", p.VarX, "var_err", p.VarErr, "err", err)
		return err
	}

	s.params = p
	s.derived = stats.Compute(p)
	s.baseline = geom.Baseline(s.derived.V)
	s.ctrl.SetBaseline(s.baseline)

	s.log.Debug("parameters updated",
		"n", p.N, "var_x", p.VarX, "var_err", p.VarErr,
		"v", s.derived.V, "se", s.derived.SE)

	render.SetReadout(s.r, render.ReadoutSE, stats.Readout(s.derived.SE))
	if !s.ctrl.Active() {
		render.SetReadout(s.r, render.ReadoutSlope, stats.Readout(stats.OriginalSlope))
		s.r.SetSeries(render.SeriesLine, s.baseline.Points())
	}
	s.r.Redraw()
	return nil
}

// Start triggers an animation. It reports false if one is already running.
func (s *Session) Start() bool {
	ok := s.ctrl.Start(s.derived.SE)
	if !ok {
		s.log.Debug("start ignored, animation in progress", "phase", s.Phase().String())
	}
	return ok
}

func (s *Session) Tick() anim.Tick { return s.ctrl.Tick() }

func (s *Session) Advance(dt time.Duration) int { return s.ctrl.Advance(dt) }

// Finish runs the current animation to its end without waiting and returns
// the number of ticks taken.
func (s *Session) Finish() int {
	n := 0
	for s.ctrl.Active() {
		s.ctrl.Tick()
		n++
	}
	return n
}

// Play drives the current animation in real time until it ends or ctx is
// done. A canceled run is returned to the baseline.
func (s *Session) Play(ctx context.Context) error {
	period := s.ctrl.Options().TickPeriod
	if period <= 0 {
		s.Finish()
		return nil
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for s.ctrl.Active() {
		select {
		case <-ctx.Done():
			s.ctrl.Cancel()
			return ctx.Err()
		case now := <-ticker.C:
			s.ctrl.Advance(now.Sub(last))
			last = now
		}
	}
	return nil
}

// Reset restores the default parameters, stops any run and clears the band.
func (s *Session) Reset() {
	s.ctrl.Cancel()
	s.ctrl.ClearBand()
	if err := s.SetParams(stats.DefaultParams()); err != nil {
		// defaults are always valid
		panic(err)
	}
	s.log.Info("session reset")
}

// ToggleBand flips whether runs draw the confidence band and returns the
// new setting.
func (s *Session) ToggleBand() bool {
	show := !s.ctrl.Options().ShowBand
	s.ctrl.SetShowBand(show)
	return show
}
