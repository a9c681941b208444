package export

import (
	"bytes"
	"encoding/xml"
	"image/gif"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/config"
	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/session"
	"github.com/san-kum/slopeviz/internal/stats"
)

func recordRun(t *testing.T, steps int) []render.Frame {
	t.Helper()
	rec := render.NewRecorder()
	opts := anim.DefaultOptions()
	opts.StepsPerPhase = steps
	s, err := session.New(stats.DefaultParams(), opts, rec, nil)
	require.NoError(t, err)
	require.True(t, s.Start())
	s.Finish()
	return rec.Frames
}

func bandScene() *render.Scene {
	s := render.NewScene()
	s.SetSeries(render.SeriesLine, geom.Rotated(geom.Center, 1.4, 1).Points())
	poly := geom.BandPolygon(geom.Center, 1.4, 0.6, 1.5)
	s.SetSeries(render.SeriesBand, poly[:])
	s.SetReadout(render.ReadoutSlope, "1.40")
	s.SetReadout(render.ReadoutSE, "0.20")
	return s
}

func TestSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, bandScene(), DefaultOptions()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `class="band"`)
	assert.Contains(t, out, `class="line"`)
	assert.Contains(t, out, "slope = 1.40")
	assert.Contains(t, out, string(DefaultOptions().Theme.Line))

	// well-formed
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestSVGWithoutBand(t *testing.T) {
	s := render.NewScene()
	s.SetSeries(render.SeriesLine, geom.Baseline(1).Points())

	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, s, DefaultOptions()))
	assert.NotContains(t, buf.String(), `class="band"`)
	assert.NotContains(t, buf.String(), "slope =")
}

func TestSVGSkipsNonFiniteSeries(t *testing.T) {
	s := render.NewScene()
	s.SetSeries(render.SeriesLine, geom.Rotated(geom.Center, math.NaN(), 1).Points())
	poly := geom.BandPolygon(geom.Center, math.Inf(1), math.Inf(-1), 1.5)
	s.SetSeries(render.SeriesBand, poly[:])

	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, s, DefaultOptions()))
	out := buf.String()
	assert.NotContains(t, out, "NaN")
	assert.NotContains(t, out, "Inf")
	assert.NotContains(t, out, `class="line"`)
	assert.NotContains(t, out, `class="band"`)
}

func TestSVGMapper(t *testing.T) {
	o := DefaultOptions()
	m := newMapper(o)

	x, y := m.xy(geom.Point{X: 0, Y: 0})
	assert.Equal(t, svgMargin, x)
	assert.Equal(t, float64(o.Height)-svgMargin, y)

	x, y = m.xy(geom.Point{X: 6, Y: 6})
	assert.Equal(t, float64(o.Width)-svgMargin/2, x)
	assert.Equal(t, svgMargin/2, y)
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	o := DefaultOptions()
	o.Width, o.Height = 320, 240
	require.NoError(t, PNG(&buf, bandScene(), o))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestPNGEmptyScene(t *testing.T) {
	s := render.NewScene()
	s.SetSeries(render.SeriesLine, []geom.Point{{X: 10, Y: 10}, {X: 12, Y: 12}})

	err := PNG(&bytes.Buffer{}, s, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyScene)
}

func TestGIF(t *testing.T) {
	frames := recordRun(t, 5)
	require.Len(t, frames, 2+anim.RunLength(5))

	o := DefaultOptions()
	o.Width, o.Height = 160, 160
	var buf bytes.Buffer
	require.NoError(t, GIF(&buf, frames, o, 30*time.Millisecond))

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, len(frames))
	assert.Equal(t, 3, g.Delay[0])
	assert.Equal(t, 160, g.Image[0].Bounds().Dx())
}

func TestGIFNoFrames(t *testing.T) {
	assert.Error(t, GIF(&bytes.Buffer{}, nil, DefaultOptions(), time.Second))
}

func TestOptionsFor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Theme = "retro"
	cfg.Viewport.XMax = 8

	o := OptionsFor(cfg)
	assert.Equal(t, "retro", o.Theme.Name)
	assert.Equal(t, 8.0, o.View.XMax)
}
