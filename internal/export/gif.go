package export

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/viz"
)

// Terminal cell size in image pixels; each Braille dot is 4x4.
const (
	charW = 8
	charH = 16
)

const (
	idxBackground uint8 = iota
	idxAxis
	idxBand
	idxLine
)

// GIF renders each frame the way the terminal plot draws it and writes an
// animated GIF with the given delay between frames.
func GIF(w io.Writer, frames []render.Frame, o Options, delay time.Duration) error {
	if len(frames) == 0 {
		return errors.New("export: no frames to encode")
	}

	cols, rows := max(o.Width/charW, 1), max(o.Height/charH, 1)
	plot := viz.NewPlot(cols, rows, o.View, o.Theme)
	bg := o.Background
	if bg == "" {
		bg = "#000000"
	}
	palette := color.Palette{
		hexColor(lipgloss.Color(bg)),
		hexColor(o.Theme.Axis),
		hexColor(o.Theme.Band),
		hexColor(o.Theme.Line),
	}

	images := rasterize(plot, frames, palette)

	hundredths := max(int(delay/(10*time.Millisecond)), 2)
	anim := gif.GIF{LoopCount: 0}
	for _, img := range images {
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, hundredths)
	}
	return gif.EncodeAll(w, &anim)
}

// rasterize draws frames on GOMAXPROCS workers. DrawScene only reads the
// plot, so the workers can share it.
func rasterize(plot *viz.Plot, frames []render.Frame, palette color.Palette) []*image.Paletted {
	images := make([]*image.Paletted, len(frames))
	next := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < runtime.GOMAXPROCS(0); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				images[i] = captureFrame(plot.DrawScene(frames[i].Scene), plot.Width, plot.Height, palette)
			}
		}()
	}
	for i := range frames {
		next <- i
	}
	close(next)
	wg.Wait()
	return images
}

func captureFrame(l viz.Layers, cols, rows int, palette color.Palette) *image.Paletted {
	imgW, imgH := cols*charW, rows*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), palette)
	dotW, dotH := charW/2, charH/4

	paint := func(c *viz.Canvas, idx uint8) {
		for y := 0; y < c.PixelHeight(); y++ {
			for x := 0; x < c.PixelWidth(); x++ {
				if !c.Lit(x, y) {
					continue
				}
				for py := 0; py < dotH; py++ {
					for px := 0; px < dotW; px++ {
						img.SetColorIndex(x*dotW+px, y*dotH+py, idx)
					}
				}
			}
		}
	}
	paint(l.Axis, idxAxis)
	paint(l.Band, idxBand)
	paint(l.Line, idxLine)
	return img
}
