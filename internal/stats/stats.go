package stats

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultN      = 100
	DefaultVarX   = 1.0
	DefaultVarErr = 400.0

	OriginalSlope = 1.0
	BoundWidth    = 2.0
)

// Params are the three user-chosen scalars that drive the picture.
type Params struct {
	N      int     `yaml:"n" json:"n" validate:"gte=3"`
	VarX   float64 `yaml:"var_x" json:"var_x" validate:"gt=0,lt=6"`
	VarErr float64 `yaml:"var_err" json:"var_err" validate:"finite,gt=0"`
}

func DefaultParams() Params {
	return Params{N: DefaultN, VarX: DefaultVarX, VarErr: DefaultVarErr}
}

// Derived holds v = sqrt(VarX) and the slope standard error.
type Derived struct {
	V  float64 `json:"v"`
	SE float64 `json:"se"`
}

// Compute assumes p has already been validated.
func Compute(p Params) Derived {
	return Derived{
		V:  math.Sqrt(p.VarX),
		SE: math.Sqrt(p.VarErr / (float64(p.N) * p.VarX)),
	}
}

type Bounds struct {
	Original float64 `json:"original"`
	Upper    float64 `json:"upper"`
	Lower    float64 `json:"lower"`
}

// NewBounds returns original ± 2·se. Lower is not clamped.
func NewBounds(original, se float64) Bounds {
	return Bounds{
		Original: original,
		Upper:    original + BoundWidth*se,
		Lower:    original - BoundWidth*se,
	}
}

func (b Bounds) Width() float64 { return b.Upper - b.Lower }

// Readout formats a value the way the readouts show it.
func Readout(x float64) string {
	return fmt.Sprintf("%.2f", x)
}

// Displayed is se as it appears in the two-decimal readout.
func Displayed(se float64) float64 {
	r, err := mstats.Round(se, 2)
	if err != nil {
		return se
	}
	return r
}

// Coverage is the nominal two-sided probability mass inside ±2 standard errors.
type Coverage struct {
	Normal   float64 `json:"normal"`
	StudentT float64 `json:"student_t"`
	DF       float64 `json:"df"`
}

func NominalCoverage(n int) Coverage {
	norm := distuv.UnitNormal
	c := Coverage{Normal: norm.CDF(BoundWidth) - norm.CDF(-BoundWidth)}

	df := float64(n - 2)
	if df < 1 {
		return c
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	c.DF = df
	c.StudentT = t.CDF(BoundWidth) - t.CDF(-BoundWidth)
	return c
}
