package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/stats"
)

const (
	DefaultTickMillis = 30
	DefaultTheme      = "classic"

	DefaultXMin = 0.0
	DefaultXMax = 6.0
	DefaultYMin = 0.0
	DefaultYMax = 6.0

	// Axis ticks sit on every integer, so the window stays small and near zero.
	MaxViewportSpan   = 1000.0
	MaxViewportExtent = 1e6
)

type Config struct {
	Params    stats.Params    `yaml:"params"`
	Animation AnimationConfig `yaml:"animation"`
	Viewport  ViewportConfig  `yaml:"viewport"`
	Parity    ParityConfig    `yaml:"parity"`
	Theme     string          `yaml:"theme"`
}

type AnimationConfig struct {
	StepsPerPhase int     `yaml:"steps_per_phase"`
	TickMillis    int     `yaml:"tick_ms"`
	LineHalfWidth float64 `yaml:"line_half_width"`
	BandHalfWidth float64 `yaml:"band_half_width"`
	ShowBand      bool    `yaml:"show_band"`
}

// ViewportConfig is the visible data window of the plot.
type ViewportConfig struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

type ParityConfig struct {
	// RoundSE reuses the two-decimal SE readout for the slope bounds.
	RoundSE bool `yaml:"round_se"`
}

func DefaultConfig() *Config {
	return &Config{
		Params: stats.DefaultParams(),
		Animation: AnimationConfig{
			StepsPerPhase: anim.DefaultStepsPerPhase,
			TickMillis:    DefaultTickMillis,
			LineHalfWidth: anim.DefaultLineHalfWidth,
			BandHalfWidth: anim.DefaultBandHalfWidth,
			ShowBand:      true,
		},
		Viewport: ViewportConfig{
			XMin: DefaultXMin,
			XMax: DefaultXMax,
			YMin: DefaultYMin,
			YMax: DefaultYMax,
		},
		Theme: DefaultTheme,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Check rejects settings that cannot drive an animation or a plot. The
// statistical parameters are validated by the session, not here.
func (c *Config) Check() error {
	if c.Animation.StepsPerPhase < 1 {
		return fmt.Errorf("steps_per_phase must be positive, got %d", c.Animation.StepsPerPhase)
	}
	if c.Animation.TickMillis < 0 {
		return fmt.Errorf("tick_ms must not be negative, got %d", c.Animation.TickMillis)
	}
	if c.Animation.LineHalfWidth <= 0 || c.Animation.BandHalfWidth <= 0 {
		return fmt.Errorf("half widths must be positive")
	}
	v := c.Viewport
	for _, x := range []float64{v.XMin, v.XMax, v.YMin, v.YMax} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("viewport must be finite, got %+v", v)
		}
	}
	if v.XMax <= v.XMin || v.YMax <= v.YMin {
		return fmt.Errorf("empty viewport %+v", v)
	}
	if v.XMax-v.XMin > MaxViewportSpan || v.YMax-v.YMin > MaxViewportSpan ||
		math.Abs(v.XMin) > MaxViewportExtent || math.Abs(v.XMax) > MaxViewportExtent ||
		math.Abs(v.YMin) > MaxViewportExtent || math.Abs(v.YMax) > MaxViewportExtent {
		return fmt.Errorf("viewport too large %+v", v)
	}
	return nil
}

func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Animation.TickMillis) * time.Millisecond
}

func (c *Config) AnimOptions() anim.Options {
	return anim.Options{
		StepsPerPhase: c.Animation.StepsPerPhase,
		TickPeriod:    c.TickPeriod(),
		LineHalfWidth: c.Animation.LineHalfWidth,
		BandHalfWidth: c.Animation.BandHalfWidth,
		ShowBand:      c.Animation.ShowBand,
		RoundSE:       c.Parity.RoundSE,
	}
}
