package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/viz"
)

var ErrEmptyScene = errors.New("export: nothing visible to draw")

func hexColor(c lipgloss.Color) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(string(c), "#"))
}

func segmentSeries(name string, view viz.Viewport, a, b geom.Point, style chart.Style) (chart.Series, bool) {
	a, b, ok := view.Clip(a, b)
	if !ok {
		return nil, false
	}
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{a.X, b.X},
		YValues: []float64{a.Y, b.Y},
		Style:   style,
	}, true
}

// PNG renders scene as a chart image: the line solid, the band as its two
// bounding lines dashed.
func PNG(w io.Writer, scene *render.Scene, o Options) error {
	var series []chart.Series

	if band := scene.Series[render.SeriesBand]; len(band) == 5 {
		style := chart.Style{
			StrokeColor:     hexColor(o.Theme.Band),
			StrokeWidth:     2,
			StrokeDashArray: []float64{6, 4},
		}
		// [UL, UR, LR, LL, UL]
		if s, ok := segmentSeries("upper", o.View, band[0], band[1], style); ok {
			series = append(series, s)
		}
		if s, ok := segmentSeries("lower", o.View, band[3], band[2], style); ok {
			series = append(series, s)
		}
	}

	if line := scene.Series[render.SeriesLine]; len(line) == 2 {
		style := chart.Style{
			StrokeColor: hexColor(o.Theme.Line),
			StrokeWidth: 3,
		}
		if s, ok := segmentSeries("slope", o.View, line[0], line[1], style); ok {
			series = append(series, s)
		}
	}

	if len(series) == 0 {
		return ErrEmptyScene
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("slope = %s   se = %s", scene.Readouts[render.ReadoutSlope], scene.Readouts[render.ReadoutSE]),
		Width:      o.Width,
		Height:     o.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "x", Range: &chart.ContinuousRange{Min: o.View.XMin, Max: o.View.XMax}},
		YAxis:      chart.YAxis{Name: "y", Range: &chart.ContinuousRange{Min: o.View.YMin, Max: o.View.YMax}},
		Series:     series,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}
