package config

import (
	"sort"

	"github.com/san-kum/sootsim/internal/reactor"
)

const DefaultPreset = "caltech-1700K"

var Presets = map[string]*Config{
	// methane pyrolysis at the conditions of the reference flow reactor
	DefaultPreset: DefaultConfig(),

	"caltech-1700K-feedback": with(func(c *Config) {
		c.Coupling.Feedback = true
	}),

	"lean-1500K": with(func(c *Config) {
		c.Reactor.Temperature = 1500
		c.Reactor.Pressure = reactor.OneAtmosphere
		c.Reactor.Composition = map[string]float64{"CH4": 0.2, "N2": 0.8}
		c.Reactor.Energy = true
	}),

	"constant-state": with(func(c *Config) {
		c.Reactor.Kind = "fixed"
		c.Reactor.Composition = map[string]float64{"A4R5": 1e-6, "N2": 1 - 1e-6}
	}),

	"no-precursor": with(func(c *Config) {
		c.Reactor.Kind = "fixed"
		c.Reactor.Composition = map[string]float64{"A4R5": 0, "N2": 1}
	}),
}

func with(mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	mutate(cfg)
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
