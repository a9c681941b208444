package viz

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/config"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/session"
	"github.com/san-kum/slopeviz/internal/stats"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := NewModel(config.DefaultConfig(), nil)
	require.NoError(t, err)
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNewModelShowsBaseline(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, "1.00", m.Plot().Readout(render.ReadoutSlope))
	assert.Equal(t, "2.00", m.Plot().Readout(render.ReadoutSE))
	assert.Len(t, m.Plot().Scene().Series[render.SeriesLine], 2)
	assert.Nil(t, m.Init())
}

func TestNewModelRejectsInvalidParams(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Params.N = 1
	_, err := NewModel(cfg, nil)
	assert.ErrorIs(t, err, session.ErrInvalidParameter)
}

func TestStartSchedulesTicks(t *testing.T) {
	m := newTestModel(t)

	m, cmd := send(m, keys(" "))
	require.NotNil(t, cmd)
	assert.True(t, m.Session().Active())
	assert.Contains(t, m.Plot().Scene().Series, render.SeriesBand)

	// a second start while running does nothing
	_, cmd = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestTickRunsToCompletion(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, keys("s"))

	m, cmd := send(m, TickMsg(m.lastTick.Add(45*time.Millisecond)))
	require.NotNil(t, cmd)
	assert.Equal(t, anim.RisingToUpper, m.Session().Phase())
	assert.Equal(t, 1, m.Session().State().StepInPhase)

	m, cmd = send(m, TickMsg(m.lastTick.Add(time.Minute)))
	assert.Nil(t, cmd)
	assert.False(t, m.Session().Active())
	assert.Equal(t, "1.00", m.Plot().Readout(render.ReadoutSlope))
	assert.Equal(t, stats.OriginalSlope, m.trace[len(m.trace)-1])

	// stray ticks after the run are ignored
	_, cmd = send(m, TickMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestAdjustAndReset(t *testing.T) {
	m := newTestModel(t)

	m, _ = send(m, keys("k"))
	assert.Equal(t, 101, m.Session().Params().N)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.InDelta(t, 0.9, m.Session().Params().VarX, 1e-12)

	m, _ = send(m, keys("r"))
	assert.Equal(t, stats.DefaultParams(), m.Session().Params())
	assert.Equal(t, "100", m.input[session.FieldN])
}

func TestAdjustOutOfDomainKeepsParams(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Params.N = 3
	m, err := NewModel(cfg, nil)
	require.NoError(t, err)

	m, _ = send(m, keys("j"))
	assert.Equal(t, 3, m.Session().Params().N)
	require.NotNil(t, m.invalid)
	assert.Equal(t, "Must be an integer greater than 2", m.invalid.Message(session.FieldN))
	assert.Equal(t, "2", m.input[session.FieldN])
	assert.Contains(t, m.View(), "Must be an integer greater than 2")
}

func TestEditField(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(m, keys("e"))
	require.True(t, m.editing)

	for range m.editBuf {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	for _, r := range "16" {
		m, _ = send(m, keys(string(r)))
	}
	m, _ = send(m, keys("x"))
	assert.Equal(t, "16", m.editBuf)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.editing)
	assert.Equal(t, 16.0, m.Session().Params().VarErr)
	assert.Equal(t, "0.40", m.Plot().Readout(render.ReadoutSE))
}

func TestEditRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		field int
		text  string
		msg   string
	}{
		{"fractional n", 0, "3.5", "Must be an integer greater than 2"},
		{"not a number", 0, "-", "Must be an integer greater than 2"},
		{"var_x too big", 1, "6", "Must be greater than 0 and less than 6"},
		{"var_err zero", 2, "0", "Must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			before := m.Session().Derived()
			m.selected = tt.field
			m, _ = send(m, keys("e"))
			m.editBuf = tt.text
			m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, m.invalid)
			assert.Equal(t, tt.msg, m.invalid.Message(fields[tt.field].name))
			assert.Equal(t, before, m.Session().Derived())
		})
	}
}

func TestEditEscape(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, keys("e"))
	m.editBuf = "7"
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.editing)
	assert.Equal(t, 100, m.Session().Params().N)
}

func TestToggleBandAndTheme(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, keys("b"))
	assert.False(t, m.Session().ShowBand())

	m, _ = send(m, keys("t"))
	assert.Equal(t, NextTheme(ThemeClassic.Name).Name, m.Theme().Name)
	assert.Equal(t, m.Theme().Name, m.Plot().Theme.Name)
}

func TestConfigMsg(t *testing.T) {
	m := newTestModel(t)
	cfg := config.DefaultConfig()
	cfg.Params = stats.Params{N: 4, VarX: 4, VarErr: 16}
	cfg.Theme = "sunset"
	cfg.Animation.ShowBand = false

	m, _ = send(m, ConfigMsg{Config: cfg})
	assert.Equal(t, cfg.Params, m.Session().Params())
	assert.Equal(t, "sunset", m.Theme().Name)
	assert.False(t, m.Session().ShowBand())
	assert.Equal(t, "1.00", m.Plot().Readout(render.ReadoutSE))
}

func TestRecording(t *testing.T) {
	m := newTestModel(t)
	var got []render.Frame
	m.OnRecord = func(frames []render.Frame) (string, error) {
		got = frames
		return "out.gif", nil
	}

	m, _ = send(m, keys("g"))
	assert.True(t, m.recording)
	m, _ = send(m, keys("s"))
	m, _ = send(m, TickMsg(m.lastTick.Add(time.Minute)))
	m, cmd := send(m, keys("g"))
	require.NotNil(t, cmd)

	m, _ = send(m, cmd())
	// seed frame, band, one frame per tick
	assert.Len(t, got, 2+anim.RunLength(anim.DefaultStepsPerPhase))
	assert.Contains(t, m.status, "out.gif")
	assert.Contains(t, got[0].Scene.Series, render.SeriesLine)
	assert.NotContains(t, got[0].Scene.Series, render.SeriesBand)
}

func TestRecordingError(t *testing.T) {
	m := newTestModel(t)
	m.OnRecord = func([]render.Frame) (string, error) { return "", errors.New("disk full") }

	m, _ = send(m, keys("g"))
	m, cmd := send(m, keys("g"))
	require.NotNil(t, cmd)
	m, _ = send(m, cmd())
	assert.Contains(t, m.status, "disk full")
}

func TestProgress(t *testing.T) {
	assert.Zero(t, progress(anim.State{}, 60))
	s := anim.State{Phase: anim.FallingToLower, StepInPhase: 30}
	assert.InDelta(t, 0.5, progress(s, 60), 1e-12)
}

func TestViewHelp(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, keys("?"))
	assert.Contains(t, m.View(), "KEYBOARD SHORTCUTS")
	m, _ = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 70, m.Plot().Width)
	assert.Equal(t, 36, m.Plot().Height)
}
