package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/slopeviz/internal/config"
	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/viz"
)

// Options controls the size and look of exported images.
type Options struct {
	Width, Height int
	View          viz.Viewport
	Theme         viz.Theme
	Background    string
}

func DefaultOptions() Options {
	return Options{
		Width:      600,
		Height:     600,
		View:       viz.DefaultViewport(),
		Theme:      viz.ThemeClassic,
		Background: "#ffffff",
	}
}

// OptionsFor takes the viewport and theme from cfg.
func OptionsFor(cfg *config.Config) Options {
	o := DefaultOptions()
	o.View = viz.Viewport{
		XMin: cfg.Viewport.XMin, XMax: cfg.Viewport.XMax,
		YMin: cfg.Viewport.YMin, YMax: cfg.Viewport.YMax,
	}
	o.Theme = viz.GetTheme(cfg.Theme)
	return o
}

const svgMargin = 40.0

// svgMapper maps data coordinates into the plot area of an SVG.
type svgMapper struct {
	view         viz.Viewport
	left, top    float64
	width, depth float64
}

func newMapper(o Options) svgMapper {
	return svgMapper{
		view:  o.View,
		left:  svgMargin,
		top:   svgMargin / 2,
		width: float64(o.Width) - 1.5*svgMargin,
		depth: float64(o.Height) - 1.5*svgMargin,
	}
}

func (m svgMapper) xy(p geom.Point) (float64, float64) {
	x := m.left + (p.X-m.view.XMin)/(m.view.XMax-m.view.XMin)*m.width
	y := m.top + (m.view.YMax-p.Y)/(m.view.YMax-m.view.YMin)*m.depth
	return x, y
}

func (m svgMapper) path(pts []geom.Point) string {
	var sb strings.Builder
	for i, p := range pts {
		x, y := m.xy(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("M%.2f,%.2f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.2f,%.2f", x, y))
		}
	}
	return sb.String()
}

func finite(pts []geom.Point) bool {
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// SVG writes scene as a standalone SVG document: axes, the band polygon,
// the line, and the readouts.
func SVG(w io.Writer, scene *render.Scene, o Options) error {
	m := newMapper(o)
	t := o.Theme
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<defs><clipPath id="plot"><rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/></clipPath></defs>
`, o.Width, o.Height, o.Width, o.Height, o.Background, m.left, m.top, m.width, m.depth))

	writeAxes(&sb, m, t)

	sb.WriteString(`<g clip-path="url(#plot)">` + "\n")
	if band := scene.Series[render.SeriesBand]; len(band) >= 3 && finite(band) {
		sb.WriteString(fmt.Sprintf(`<path class="band" d="%s Z" fill="%s" fill-opacity="0.3" stroke="%s" stroke-width="1"/>`+"\n",
			m.path(band), t.Band, t.Band))
	}
	if line := scene.Series[render.SeriesLine]; len(line) >= 2 && finite(line) {
		sb.WriteString(fmt.Sprintf(`<path class="line" d="%s" fill="none" stroke="%s" stroke-width="3" stroke-linecap="round"/>`+"\n",
			m.path(line), t.Line))
	}
	sb.WriteString("</g>\n")

	if len(scene.Readouts) > 0 {
		text := fmt.Sprintf("slope = %s   se = %s", scene.Readouts[render.ReadoutSlope], scene.Readouts[render.ReadoutSE])
		sb.WriteString(fmt.Sprintf(`<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="14" fill="%s">%s</text>`+"\n",
			m.left+8, m.top+18, t.Axis, text))
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeAxes(sb *strings.Builder, m svgMapper, t viz.Theme) {
	v := m.view
	x0, y0 := m.xy(geom.Point{X: v.XMin, Y: v.YMin})
	x1, y1 := m.xy(geom.Point{X: v.XMax, Y: v.YMax})

	sb.WriteString(fmt.Sprintf(`<g class="axes" stroke="%s" stroke-width="1" font-family="sans-serif" font-size="11" fill="%s">`+"\n", t.Axis, t.Axis))
	sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n", x0, y0, x1, y0))
	sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n", x0, y0, x0, y1))

	for x := math.Ceil(v.XMin); x <= v.XMax; x++ {
		px, _ := m.xy(geom.Point{X: x, Y: v.YMin})
		sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n", px, y0, px, y0+4))
		sb.WriteString(fmt.Sprintf(`<text x="%.2f" y="%.2f" stroke="none" text-anchor="middle">%g</text>`+"\n", px, y0+16, x))
	}
	for y := math.Ceil(v.YMin); y <= v.YMax; y++ {
		_, py := m.xy(geom.Point{X: v.XMin, Y: y})
		sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n", x0-4, py, x0, py))
		sb.WriteString(fmt.Sprintf(`<text x="%.2f" y="%.2f" stroke="none" text-anchor="end">%g</text>`+"\n", x0-7, py+4, y))
	}
	sb.WriteString("</g>\n")
}
