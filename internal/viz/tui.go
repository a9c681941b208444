package viz

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/config"
	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/session"
	"github.com/san-kum/slopeviz/internal/stats"
)

const (
	plotWidth  = 60
	plotHeight = 24
	panelWidth = 44
	traceWidth = 32
)

// TickMsg drives a running animation. Ticks are only scheduled while one is
// in progress.
type TickMsg time.Time

// ConfigMsg carries a reloaded configuration into the program.
type ConfigMsg struct {
	Config *config.Config
}

// RecordFunc stores the frames of a finished recording and returns where
// they went.
type RecordFunc func(frames []render.Frame) (string, error)

type field struct {
	name  string
	label string
	step  float64
}

var fields = []field{
	{session.FieldN, "n", 1},
	{session.FieldVarX, "var(x)", 0.1},
	{session.FieldVarErr, "var(e)", 10},
}

// tap forwards to the plot and, while recording, to a recorder.
type tap struct {
	plot *Plot
	rec  *render.Recorder
}

func (t *tap) SetSeries(id string, pts []geom.Point) {
	t.plot.SetSeries(id, pts)
	if t.rec != nil {
		t.rec.SetSeries(id, pts)
	}
}

func (t *tap) SetReadout(id, text string) {
	t.plot.SetReadout(id, text)
	if t.rec != nil {
		t.rec.SetReadout(id, text)
	}
}

func (t *tap) Redraw() {
	t.plot.Redraw()
	if t.rec != nil {
		t.rec.Redraw()
	}
}

// startRecording seeds a fresh recorder with what is on screen.
func (t *tap) startRecording() {
	t.rec = render.NewRecorder()
	scene := t.plot.Scene()
	for id, pts := range scene.Series {
		t.rec.SetSeries(id, pts)
	}
	for id, text := range scene.Readouts {
		t.rec.SetReadout(id, text)
	}
	t.rec.Redraw()
}

func (t *tap) stopRecording() []render.Frame {
	if t.rec == nil {
		return nil
	}
	frames := t.rec.Frames
	t.rec = nil
	return frames
}

type recordedMsg struct {
	path   string
	frames int
	err    error
}

// Model is the interactive session view.
type Model struct {
	sess   *session.Session
	plot   *Plot
	tap    *tap
	log    *slog.Logger
	theme  Theme
	styles Styles

	input    map[string]string
	invalid  *session.ValidationError
	selected int
	editing  bool
	editBuf  string

	trace    []float64
	lastTick time.Time
	ticking  bool

	OnRecord  RecordFunc
	recording bool
	status    string
	showHelp  bool
}

// NewModel builds a session from cfg drawing into a terminal plot.
func NewModel(cfg *config.Config, logger *slog.Logger) (Model, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	theme := GetTheme(cfg.Theme)
	view := Viewport{
		XMin: cfg.Viewport.XMin, XMax: cfg.Viewport.XMax,
		YMin: cfg.Viewport.YMin, YMax: cfg.Viewport.YMax,
	}
	plot := NewPlot(plotWidth, plotHeight, view, theme)
	t := &tap{plot: plot}

	sess, err := session.New(cfg.Params, cfg.AnimOptions(), t, logger.With("component", "session"))
	if err != nil {
		return Model{}, err
	}

	m := Model{
		sess:   sess,
		plot:   plot,
		tap:    t,
		log:    logger,
		theme:  theme,
		styles: NewStyles(theme),
	}
	m.syncInput()
	return m, nil
}

func (m Model) Session() *session.Session { return m.sess }
func (m Model) Plot() *Plot                { return m.plot }
func (m Model) Theme() Theme               { return m.theme }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) tick() tea.Cmd {
	period := m.sess.Options().TickPeriod
	if period <= 0 {
		period = time.Millisecond
	}
	return tea.Tick(period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and advances the animation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.editKey(msg)
		}
		return m.key(msg)

	case tea.WindowSizeMsg:
		w := min(max(msg.Width-panelWidth-6, 20), 120)
		h := min(max(msg.Height-4, 8), 60)
		m.plot.Resize(w, h)

	case TickMsg:
		now := time.Time(msg)
		if !m.sess.Active() {
			m.ticking = false
			return m, nil
		}
		dt := now.Sub(m.lastTick)
		m.lastTick = now
		if m.sess.Advance(dt) > 0 {
			m.trace = append(m.trace, m.sess.State().CurrentSlope)
		}
		if m.sess.Active() {
			return m, m.tick()
		}
		m.ticking = false
		m.trace = append(m.trace, stats.OriginalSlope)

	case ConfigMsg:
		m.applyConfig(msg.Config)

	case recordedMsg:
		if msg.err != nil {
			m.status = "recording failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("saved %d frames to %s", msg.frames, msg.path)
		}
	}
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "enter", "s":
		return m.start()
	case "r":
		m.sess.Reset()
		m.invalid = nil
		m.trace = nil
		m.syncInput()
		m.status = "reset to defaults"
	case "b":
		if m.sess.ToggleBand() {
			m.status = "band on"
		} else {
			m.status = "band off"
		}
	case "tab":
		m.selected = (m.selected + 1) % len(fields)
	case "shift+tab":
		m.selected = (m.selected + len(fields) - 1) % len(fields)
	case "up", "k":
		m.adjust(1)
	case "down", "j":
		m.adjust(-1)
	case "e":
		m.editing = true
		m.editBuf = m.input[fields[m.selected].name]
	case "t":
		m.setTheme(NextTheme(m.theme.Name))
	case "g":
		return m.toggleRecording()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) editKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.commit(fields[m.selected].name, m.editBuf)
		m.editBuf = ""
	case "esc":
		m.editing = false
		m.editBuf = ""
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		s := msg.String()
		if len(s) == 1 && (s[0] >= '0' && s[0] <= '9' || s[0] == '.' || s[0] == '-' || s[0] == 'e') {
			m.editBuf += s
		}
	}
	return m, nil
}

func (m Model) start() (tea.Model, tea.Cmd) {
	if !m.sess.Start() {
		return m, nil
	}
	m.trace = []float64{stats.OriginalSlope}
	m.status = ""
	if m.ticking {
		return m, nil
	}
	m.ticking = true
	m.lastTick = time.Now()
	return m, m.tick()
}

// commit parses text into the named field and applies the result. Text
// that is not a number is reported like any other out-of-domain value.
func (m *Model) commit(name, text string) {
	m.input[name] = text
	p := m.sess.Params()

	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		m.reject(name, text)
		return
	}
	switch name {
	case session.FieldN:
		if v != float64(int(v)) {
			m.reject(name, text)
			return
		}
		p.N = int(v)
	case session.FieldVarX:
		p.VarX = v
	case session.FieldVarErr:
		p.VarErr = v
	}
	m.apply(p)
}

func (m *Model) reject(name, text string) {
	m.invalid = &session.ValidationError{Fields: []session.FieldError{
		{Field: name, Value: text, Message: session.FieldMessage(name)},
	}}
}

func (m *Model) apply(p stats.Params) {
	err := m.sess.SetParams(p)
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		m.invalid = ve
	case err != nil:
		m.status = err.Error()
	default:
		m.invalid = nil
		m.syncInput()
	}
}

func (m *Model) adjust(dir float64) {
	f := fields[m.selected]
	p := m.sess.Params()
	switch f.name {
	case session.FieldN:
		p.N += int(dir * f.step)
	case session.FieldVarX:
		p.VarX = math.Round((p.VarX+dir*f.step)*10) / 10
	case session.FieldVarErr:
		p.VarErr += dir * f.step
	}
	m.input[f.name] = formatField(f.name, p)
	m.apply(p)
}

func (m *Model) syncInput() {
	p := m.sess.Params()
	m.input = make(map[string]string, len(fields))
	for _, f := range fields {
		m.input[f.name] = formatField(f.name, p)
	}
}

func formatField(name string, p stats.Params) string {
	switch name {
	case session.FieldN:
		return strconv.Itoa(p.N)
	case session.FieldVarX:
		return strconv.FormatFloat(p.VarX, 'g', -1, 64)
	default:
		return strconv.FormatFloat(p.VarErr, 'g', -1, 64)
	}
}

func (m *Model) setTheme(t Theme) {
	m.theme = t
	m.styles = NewStyles(t)
	m.plot.Theme = t
}

// applyConfig takes the parameters, band setting and theme from a reloaded
// config. Timing and geometry options apply to the next session only.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.setTheme(GetTheme(cfg.Theme))
	if cfg.Animation.ShowBand != m.sess.ShowBand() {
		m.sess.ToggleBand()
	}
	m.apply(cfg.Params)
	if m.invalid == nil {
		m.status = "config reloaded"
	}
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if !m.recording {
		m.recording = true
		m.tap.startRecording()
		m.status = ""
		return m, nil
	}

	m.recording = false
	frames := m.tap.stopRecording()
	if m.OnRecord == nil || len(frames) == 0 {
		return m, nil
	}
	save := m.OnRecord
	return m, func() tea.Msg {
		path, err := save(frames)
		return recordedMsg{path: path, frames: len(frames), err: err}
	}
}

// progress is the fraction of the current run already shown.
func progress(s anim.State, stepsPerPhase int) float64 {
	if !s.Active() || stepsPerPhase <= 0 {
		return 0
	}
	done := int(s.Phase-anim.RisingToUpper)*stepsPerPhase + s.StepInPhase
	return float64(done) / float64(anim.RunLength(stepsPerPhase))
}

// View renders the plot beside the session panel.
func (m Model) View() string {
	plotView := m.styles.Panel.Render(m.plot.Render())
	main := lipgloss.JoinHorizontal(lipgloss.Top, plotView, m.styles.Panel.Width(panelWidth).Render(m.panel()))
	if m.showHelp {
		return m.help() + "\n" + main
	}
	return main
}

func (m Model) panel() string {
	st := m.styles
	var s strings.Builder

	row := func(label, value string) {
		s.WriteString(st.Label.Width(12).Render(label) + st.Value.Render(value) + "\n")
	}

	s.WriteString(st.Title.Render("OLS SLOPE VARIABILITY") + "\n\n")

	state := m.sess.State()
	phase := strings.ToUpper(state.Phase.String())
	if m.recording {
		phase += "  " + st.Error.Render("● REC")
	}
	row("Phase", phase)
	bar := ProgressBar(progress(state, m.sess.Options().StepsPerPhase), 20)
	s.WriteString(st.Label.Width(12).Render("") + st.Muted.Render(bar) + "\n")
	row("Slope", m.plot.Readout(render.ReadoutSlope))
	row("SE", m.plot.Readout(render.ReadoutSE))

	if b := state.Bounds; b != (stats.Bounds{}) {
		row("Bounds", fmt.Sprintf("[%s, %s]", stats.Readout(b.Lower), stats.Readout(b.Upper)))
	}

	s.WriteString("\n" + st.Title.Render("PARAMETERS") + "\n")
	for i, f := range fields {
		val := m.input[f.name]
		if m.editing && i == m.selected {
			val = m.editBuf + "▋"
		}
		line := fmt.Sprintf("%-8s %s", f.label, val)
		if i == m.selected {
			s.WriteString(st.Cursor.Render("▸ "+line) + "\n")
		} else {
			s.WriteString("  " + st.Label.Render(line) + "\n")
		}
		if m.invalid != nil {
			if msg := m.invalid.Message(f.name); msg != "" {
				s.WriteString("    " + st.Warning.Render(msg) + "\n")
			}
		}
	}

	d := m.sess.Derived()
	cov := m.sess.Coverage()
	s.WriteString("\n")
	row("v", fmt.Sprintf("%.3f", d.V))
	row("Coverage", fmt.Sprintf("%.1f%% (t%.0f %.1f%%)", cov.Normal*100, cov.DF, cov.StudentT*100))
	band := "on"
	if !m.sess.ShowBand() {
		band = "off"
	}
	row("Band", band)

	if len(m.trace) > 1 {
		chart := asciigraph.Plot(m.trace,
			asciigraph.Height(5),
			asciigraph.Width(traceWidth),
			asciigraph.Precision(2),
			asciigraph.Caption("slope"))
		s.WriteString("\n" + st.Line.Render(chart) + "\n")
	}

	if m.status != "" {
		s.WriteString("\n" + st.Muted.Render(m.status) + "\n")
	}
	s.WriteString("\n" + st.Muted.Render(Separator(panelWidth-4)) + "\n")
	s.WriteString(st.Key.Render("SPC:Start R:Reset B:Band Q:Quit\nTab:Field ↑↓:Adjust E:Edit ?:Help"))
	return s.String()
}

func (m Model) help() string {
	return m.styles.Panel.Render(`KEYBOARD SHORTCUTS

  Space/Enter  Start animation
  R            Reset to defaults
  B            Toggle confidence band
  Tab          Next parameter
  Up/K         Increase parameter
  Down/J       Decrease parameter
  E            Type a value (Enter to apply, Esc to cancel)
  G            Start/stop GIF recording
  T            Cycle themes
  ?            Toggle this help
  Q            Quit`)
}
