package config

import (
	"sort"

	"github.com/san-kum/slopeviz/internal/stats"
)

var Presets = map[string]stats.Params{
	"default":      {N: 100, VarX: 1, VarErr: 400},
	"small-sample": {N: 4, VarX: 4, VarErr: 16},
	"textbook":     {N: 30, VarX: 2, VarErr: 60},
	"precise":      {N: 1000, VarX: 4, VarErr: 25},
	"noisy":        {N: 10, VarX: 0.5, VarErr: 400},
	"spread-x":     {N: 50, VarX: 5.5, VarErr: 100},
}

// GetPreset returns the default config with the preset's parameters, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Params = p
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
