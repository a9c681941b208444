package render

import "github.com/san-kum/slopeviz/internal/geom"

// Frame is a scene captured at one redraw.
type Frame struct {
	Index int    `json:"index"`
	Scene *Scene `json:"scene"`
}

// Line returns the displayed line, or ok=false when the frame has none.
func (f Frame) Line() (geom.Segment, bool) {
	pts := f.Scene.Series[SeriesLine]
	if len(pts) != 2 {
		return geom.Segment{}, false
	}
	return geom.Segment{A: pts[0], B: pts[1]}, true
}

// Recorder keeps a copy of the scene at every redraw.
type Recorder struct {
	scene  *Scene
	Frames []Frame
}

func NewRecorder() *Recorder {
	return &Recorder{scene: NewScene()}
}

func (r *Recorder) SetSeries(id string, pts []geom.Point) { r.scene.SetSeries(id, pts) }
func (r *Recorder) SetReadout(id, text string)            { r.scene.SetReadout(id, text) }

func (r *Recorder) Redraw() {
	r.Frames = append(r.Frames, Frame{Index: len(r.Frames), Scene: r.scene.Clone()})
}

// Current is the live scene, including changes not yet redrawn.
func (r *Recorder) Current() *Scene { return r.scene }

func (r *Recorder) Reset() {
	r.scene = NewScene()
	r.Frames = nil
}

// Slopes returns the slope of the line in each frame that has one.
func Slopes(frames []Frame) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		if seg, ok := f.Line(); ok {
			out = append(out, seg.Slope())
		}
	}
	return out
}
