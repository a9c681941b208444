package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
)

// Viewport is the visible data window.
type Viewport struct {
	XMin, XMax float64
	YMin, YMax float64
}

func DefaultViewport() Viewport {
	return Viewport{XMin: 0, XMax: 6, YMin: 0, YMax: 6}
}

// Clip cuts the segment a-b to the viewport (Liang-Barsky). ok is false
// when nothing of it is visible or an endpoint is not finite.
func (v Viewport) Clip(a, b geom.Point) (geom.Point, geom.Point, bool) {
	for _, c := range [4]float64{a.X, a.Y, b.X, b.Y} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return a, b, false
		}
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.X - v.XMin},
		{dx, v.XMax - a.X},
		{-dy, a.Y - v.YMin},
		{dy, v.YMax - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, r)
		}
	}

	return geom.Point{X: a.X + t0*dx, Y: a.Y + t0*dy},
		geom.Point{X: a.X + t1*dx, Y: a.Y + t1*dy}, true
}

// Layers are the separately drawn parts of a plot, bottom to top.
type Layers struct {
	Axis, Band, Line *Canvas
}

// Plot is a terminal renderer. It keeps the last pushed scene and draws it
// onto Braille canvases on demand.
type Plot struct {
	Width, Height int
	View          Viewport
	Theme         Theme

	scene   *render.Scene
	redraws int
}

func NewPlot(width, height int, view Viewport, theme Theme) *Plot {
	return &Plot{
		Width:  width,
		Height: height,
		View:   view,
		Theme:  theme,
		scene:  render.NewScene(),
	}
}

func (p *Plot) SetSeries(id string, pts []geom.Point) { p.scene.SetSeries(id, pts) }
func (p *Plot) SetReadout(id, text string)            { p.scene.SetReadout(id, text) }

// Redraw marks a new frame. Drawing itself happens in Render, which
// bubbletea calls once per View.
func (p *Plot) Redraw() { p.redraws++ }

func (p *Plot) Redraws() int             { return p.redraws }
func (p *Plot) Scene() *render.Scene     { return p.scene }
func (p *Plot) Readout(id string) string { return p.scene.Readouts[id] }

func (p *Plot) Resize(width, height int) {
	p.Width, p.Height = width, height
}

// pixel maps a data point to fractional sub-pixel coordinates.
func (p *Plot) pixel(pt geom.Point) (float64, float64) {
	pw, ph := float64(p.Width*2-1), float64(p.Height*4-1)
	x := (pt.X - p.View.XMin) / (p.View.XMax - p.View.XMin) * pw
	y := (p.View.YMax - pt.Y) / (p.View.YMax - p.View.YMin) * ph
	return x, y
}

func (p *Plot) drawSegment(c *Canvas, a, b geom.Point) {
	a, b, ok := p.View.Clip(a, b)
	if !ok {
		return
	}
	x0, y0 := p.pixel(a)
	x1, y1 := p.pixel(b)
	c.DrawLine(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
}

// DrawScene draws s onto fresh layers sized to the plot.
func (p *Plot) DrawScene(s *render.Scene) Layers {
	l := Layers{
		Axis: NewCanvas(p.Width, p.Height),
		Band: NewCanvas(p.Width, p.Height),
		Line: NewCanvas(p.Width, p.Height),
	}
	p.drawAxes(l.Axis)

	if band := s.Series[render.SeriesBand]; len(band) >= 3 {
		xs := make([]float64, len(band))
		ys := make([]float64, len(band))
		for i, pt := range band {
			xs[i], ys[i] = p.pixel(pt)
		}
		l.Band.FillPolygon(xs, ys, Checker)
		for i := 0; i+1 < len(band); i++ {
			p.drawSegment(l.Band, band[i], band[i+1])
		}
	}

	pts := s.Series[render.SeriesLine]
	for i := 0; i+1 < len(pts); i++ {
		p.drawSegment(l.Line, pts[i], pts[i+1])
	}
	return l
}

func (p *Plot) drawAxes(c *Canvas) {
	v := p.View
	origin := geom.Point{X: math.Max(v.XMin, math.Min(0, v.XMax)), Y: math.Max(v.YMin, math.Min(0, v.YMax))}
	p.drawSegment(c, geom.Point{X: v.XMin, Y: origin.Y}, geom.Point{X: v.XMax, Y: origin.Y})
	p.drawSegment(c, geom.Point{X: origin.X, Y: v.YMin}, geom.Point{X: origin.X, Y: v.YMax})

	for x := math.Ceil(v.XMin); x <= v.XMax; x++ {
		px, py := p.pixel(geom.Point{X: x, Y: origin.Y})
		c.Set(int(math.Round(px)), int(math.Round(py))-1)
	}
	for y := math.Ceil(v.YMin); y <= v.YMax; y++ {
		px, py := p.pixel(geom.Point{X: origin.X, Y: y})
		c.Set(int(math.Round(px))+1, int(math.Round(py)))
	}
}

// Render draws the current scene with theme colors.
func (p *Plot) Render() string {
	return p.compose(p.DrawScene(p.scene), true)
}

// Plain draws the current scene without styling.
func (p *Plot) Plain() string {
	return p.compose(p.DrawScene(p.scene), false)
}

func (p *Plot) compose(l Layers, color bool) string {
	styles := map[string]lipgloss.Style{
		"line": lipgloss.NewStyle().Foreground(p.Theme.Line),
		"band": lipgloss.NewStyle().Foreground(p.Theme.Band),
		"axis": lipgloss.NewStyle().Foreground(p.Theme.Axis),
	}

	var b strings.Builder
	for row := 0; row < p.Height; row++ {
		var run []rune
		runKind := ""
		flush := func() {
			if len(run) == 0 {
				return
			}
			if color && runKind != "" {
				b.WriteString(styles[runKind].Render(string(run)))
			} else {
				b.WriteString(string(run))
			}
			run = run[:0]
		}

		for col := 0; col < p.Width; col++ {
			kind := ""
			switch {
			case !l.Line.Empty(col, row):
				kind = "line"
			case !l.Band.Empty(col, row):
				kind = "band"
			case !l.Axis.Empty(col, row):
				kind = "axis"
			}
			cell := l.Axis.Grid[row][col] | l.Band.Grid[row][col] | l.Line.Grid[row][col]
			if kind != runKind {
				flush()
				runKind = kind
			}
			run = append(run, cell)
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}
