package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/reactor"
)

// loadConfig layers defaults, then a preset, then a config file, then any
// flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := config.DefaultPreset

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = "config"
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Coupling.StepSize = stepSize
	}
	if flags.Changed("time") {
		cfg.Coupling.EndTime = endTime
	}
	if flags.Changed("temperature") {
		cfg.Reactor.Temperature = temperature
	}
	if flags.Changed("pressure") {
		cfg.Reactor.Pressure = pressureAtm * reactor.OneAtmosphere
	}
	if flags.Changed("precursor") {
		cfg.Coupling.Precursor = precursor
	}
	if flags.Changed("policy") {
		cfg.Coupling.Policy = policy
	}
	if flags.Changed("feedback") {
		cfg.Coupling.Feedback = feedback
	}
	if flags.Changed("integrator") {
		cfg.Reactor.Integrator = integrator
	}
	if flags.Changed("reactor") {
		cfg.Reactor.Kind = reactorKind
	}
	if flags.Changed("energy") {
		cfg.Reactor.Energy = energy
	}

	if !flags.Changed("log") && cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, "", err
		}
		logrus.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}
