package viz

import (
	"math"
	"sort"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBase = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells addressed in sub-pixels: Width*2 by
// Height*4, origin top-left.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

// Set lights the sub-pixel at (x, y). Out-of-range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// Lit reports whether the sub-pixel at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

// Empty reports whether cell (col, row) has no dots.
func (c *Canvas) Empty(col, row int) bool {
	return c.Grid[row][col] == brailleBase
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm. Callers clip first;
// the loop runs over every pixel between the endpoints.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// FillPolygon fills the even-odd interior of a closed sub-pixel polygon,
// lighting only pixels where stipple(x, y) is true.
func (c *Canvas) FillPolygon(xs, ys []float64, stipple func(x, y int) bool) {
	n := len(xs)
	if n < 3 || len(ys) != n {
		return
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return
		}
	}

	crossings := make([]float64, 0, n)
	for py := 0; py < c.PixelHeight(); py++ {
		scan := float64(py) + 0.5
		crossings = crossings[:0]
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			y0, y1 := ys[i], ys[j]
			if (y0 <= scan && y1 > scan) || (y1 <= scan && y0 > scan) {
				t := (scan - y0) / (y1 - y0)
				crossings = append(crossings, xs[i]+t*(xs[j]-xs[i]))
			}
		}
		sort.Float64s(crossings)

		for k := 0; k+1 < len(crossings); k += 2 {
			from := int(math.Max(0, math.Ceil(crossings[k]-0.5)))
			to := int(math.Min(float64(c.PixelWidth()-1), math.Floor(crossings[k+1]-0.5)))
			for px := from; px <= to; px++ {
				if stipple == nil || stipple(px, py) {
					c.Set(px, py)
				}
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Checker is a half-density stipple for shaded areas.
func Checker(x, y int) bool { return (x+y)%2 == 0 }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
