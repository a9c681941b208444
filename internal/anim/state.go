package anim

import (
	"math"

	"github.com/san-kum/slopeviz/internal/stats"
)

type Phase int

const (
	Idle Phase = iota
	RisingToUpper
	FallingToLower
	ReturningToOriginal
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case RisingToUpper:
		return "rising"
	case FallingToLower:
		return "falling"
	case ReturningToOriginal:
		return "returning"
	default:
		return "unknown"
	}
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(name string) (Phase, bool) {
	for p := Idle; p <= ReturningToOriginal; p++ {
		if p.String() == name {
			return p, true
		}
	}
	return Idle, false
}

// State is the whole animation state. The zero value is Idle.
type State struct {
	Phase        Phase        `json:"phase"`
	StepInPhase  int          `json:"step_in_phase"`
	CurrentSlope float64      `json:"current_slope"`
	Bounds       stats.Bounds `json:"bounds"`
}

// Active reports whether s is in one of the running phases. Unknown phase
// values count as inactive.
func (s State) Active() bool { return s.Phase >= RisingToUpper && s.Phase <= ReturningToOriginal }

// Tick reports what a single Step did.
type Tick struct {
	From, To Phase
	Slope    float64
	Done     bool
}

func (t Tick) Transition() bool { return t.From != t.To }

// Begin returns the first active state for a run between the given bounds.
func Begin(b stats.Bounds) State {
	return State{
		Phase:        RisingToUpper,
		CurrentSlope: b.Original,
		Bounds:       b,
	}
}

// Step advances s by one tick. Inactive states are returned unchanged.
// The slope lands exactly on each bound at the phase boundary.
func Step(s State, stepsPerPhase int) (State, Tick) {
	if !s.Active() {
		return s, Tick{From: s.Phase, To: s.Phase, Slope: s.CurrentSlope}
	}
	if stepsPerPhase < 1 {
		stepsPerPhase = 1
	}

	b := s.Bounds
	from := s.Phase
	s.StepInPhase++
	progress := math.Min(1, float64(s.StepInPhase)/float64(stepsPerPhase))

	switch s.Phase {
	case RisingToUpper:
		s.CurrentSlope = b.Original + progress*(b.Upper-b.Original)
		if progress >= 1 {
			s.CurrentSlope = b.Upper
			s.StepInPhase = 0
			s.Phase = FallingToLower
		}
	case FallingToLower:
		s.CurrentSlope = b.Upper - progress*(b.Upper-b.Lower)
		if progress >= 1 {
			s.CurrentSlope = b.Lower
			s.StepInPhase = 0
			s.Phase = ReturningToOriginal
		}
	case ReturningToOriginal:
		s.CurrentSlope = b.Lower + progress*(b.Original-b.Lower)
		if progress >= 1 {
			s.CurrentSlope = b.Original
			s.StepInPhase = 0
			s.Phase = Idle
		}
	}

	return s, Tick{
		From:  from,
		To:    s.Phase,
		Slope: s.CurrentSlope,
		Done:  s.Phase == Idle,
	}
}

// RunLength is the number of ticks in one full run.
func RunLength(stepsPerPhase int) int {
	if stepsPerPhase < 1 {
		stepsPerPhase = 1
	}
	return 3 * stepsPerPhase
}
