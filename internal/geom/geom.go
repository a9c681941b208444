package geom

// Center is the fixed pivot of the reference line.
var Center = Point{X: 3, Y: 3}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Segment struct {
	A, B Point
}

func (s Segment) Points() []Point { return []Point{s.A, s.B} }

func (s Segment) Midpoint() Point {
	return Point{X: (s.A.X + s.B.X) / 2, Y: (s.A.Y + s.B.Y) / 2}
}

func (s Segment) Slope() float64 {
	return (s.B.Y - s.A.Y) / (s.B.X - s.A.X)
}

// Baseline is the slope-1 reference segment of half-extent v centered on Center.
func Baseline(v float64) Segment {
	return Segment{
		A: Point{X: Center.X - v, Y: Center.Y - v},
		B: Point{X: Center.X + v, Y: Center.Y + v},
	}
}

// Rotated is the segment through mid with the given slope, spanning mid.X ± h.
func Rotated(mid Point, slope, h float64) Segment {
	return Segment{
		A: Point{X: mid.X - h, Y: mid.Y - slope*h},
		B: Point{X: mid.X + h, Y: mid.Y + slope*h},
	}
}

// BandPolygon returns the closed quadrilateral between the upper and lower
// bound lines as [upperLeft, upperRight, lowerRight, lowerLeft, upperLeft].
// Fill renderers treat the order as a simple polygon boundary.
func BandPolygon(mid Point, upper, lower, h float64) [5]Point {
	u := Rotated(mid, upper, h)
	l := Rotated(mid, lower, h)
	return [5]Point{u.A, u.B, l.B, l.A, u.A}
}

// Bounds returns the axis-aligned extent of pts.
func Bounds(pts []Point) (min, max Point) {
	if len(pts) == 0 {
		return
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return
}
