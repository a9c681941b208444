package render

import (
	"maps"

	"github.com/san-kum/slopeviz/internal/geom"
)

// Series identifiers.
const (
	SeriesLine = "line"
	SeriesBand = "band"
)

// Readout identifiers.
const (
	ReadoutSlope = "slope"
	ReadoutSE    = "se"
)

// Renderer is the write-only drawing surface. Implementations must treat a
// nil or empty point slice as clearing the series.
type Renderer interface {
	SetSeries(id string, pts []geom.Point)
	Redraw()
}

// ReadoutSink is implemented by renderers that can show text readouts.
type ReadoutSink interface {
	SetReadout(id, text string)
}

// SetReadout forwards to r if it accepts readouts.
func SetReadout(r Renderer, id, text string) {
	if rs, ok := r.(ReadoutSink); ok {
		rs.SetReadout(id, text)
	}
}

type discard struct{}

func (discard) SetSeries(string, []geom.Point) {}
func (discard) Redraw()                        {}

// Discard drops everything.
var Discard Renderer = discard{}

type multi []Renderer

// Multi fans every call out to each renderer in order.
func Multi(rs ...Renderer) Renderer {
	return multi(rs)
}

func (m multi) SetSeries(id string, pts []geom.Point) {
	for _, r := range m {
		r.SetSeries(id, pts)
	}
}

func (m multi) SetReadout(id, text string) {
	for _, r := range m {
		SetReadout(r, id, text)
	}
}

func (m multi) Redraw() {
	for _, r := range m {
		r.Redraw()
	}
}

// Scene is the last pushed value of every series and readout.
type Scene struct {
	Series   map[string][]geom.Point `json:"series"`
	Readouts map[string]string       `json:"readouts"`
}

func NewScene() *Scene {
	return &Scene{
		Series:   make(map[string][]geom.Point),
		Readouts: make(map[string]string),
	}
}

func (s *Scene) SetSeries(id string, pts []geom.Point) {
	if len(pts) == 0 {
		delete(s.Series, id)
		return
	}
	cp := make([]geom.Point, len(pts))
	copy(cp, pts)
	s.Series[id] = cp
}

func (s *Scene) SetReadout(id, text string) { s.Readouts[id] = text }

func (s *Scene) Redraw() {}

func (s *Scene) Clone() *Scene {
	c := &Scene{
		Series:   make(map[string][]geom.Point, len(s.Series)),
		Readouts: maps.Clone(s.Readouts),
	}
	for id, pts := range s.Series {
		c.Series[id] = append([]geom.Point(nil), pts...)
	}
	return c
}
