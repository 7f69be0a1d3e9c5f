package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/sootsim/internal/coupling"
	"github.com/san-kum/sootsim/internal/particle"
	"github.com/san-kum/sootsim/internal/reactor"
)

const (
	DefaultTemperature         = 1700.0
	DefaultPressure            = 12 * reactor.OneAtmosphere
	DefaultStepSize            = 1e-4
	DefaultSteps               = 1000
	DefaultPrecursor           = "A4R5"
	DefaultCarbonsPerInception = 36.0
	DefaultReactorKind         = "constp"
	DefaultIntegrator          = "rk45"
	DefaultLogLevel            = "info"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Reactor   ReactorConfig      `yaml:"reactor"`
	Coupling  CouplingConfig     `yaml:"coupling"`
	Constants particle.Constants `yaml:"constants"`
	LogLevel  string             `yaml:"log_level"`
}

type ReactorConfig struct {
	// Kind is "constp" for the mechanism reactor or "fixed" for a frozen
	// gas state.
	Kind        string             `yaml:"kind"`
	Temperature float64            `yaml:"temperature"` // K
	Pressure    float64            `yaml:"pressure"`    // Pa
	Composition map[string]float64 `yaml:"composition"`
	Energy      bool               `yaml:"energy"`
	Integrator  string             `yaml:"integrator"`
	// Mechanism is a YAML mechanism file; empty selects the built-in one.
	Mechanism string `yaml:"mechanism,omitempty"`

	reactor.Limits `yaml:",inline"`
}

type CouplingConfig struct {
	StepSize            float64 `yaml:"step_size"`
	EndTime             float64 `yaml:"end_time"`
	Precursor           string  `yaml:"precursor"`
	CarbonsPerInception float64 `yaml:"carbons_per_inception"`
	Policy              string  `yaml:"policy"`
	Feedback            bool    `yaml:"feedback"`
}

func DefaultConfig() *Config {
	return &Config{
		Reactor: ReactorConfig{
			Kind:        DefaultReactorKind,
			Temperature: DefaultTemperature,
			Pressure:    DefaultPressure,
			Composition: map[string]float64{"CH4": 1, "N2": 1},
			Integrator:  DefaultIntegrator,
			Limits:      reactor.DefaultLimits(),
		},
		Coupling: CouplingConfig{
			StepSize:            DefaultStepSize,
			EndTime:             DefaultSteps * DefaultStepSize,
			Precursor:           DefaultPrecursor,
			CarbonsPerInception: DefaultCarbonsPerInception,
			Policy:              coupling.PolicyLagged.String(),
		},
		Constants: particle.DefaultConstants(),
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults. A composition given in the file
// replaces the default one instead of merging with it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.Reactor.Composition
	cfg.Reactor.Composition = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Reactor.Composition == nil {
		cfg.Reactor.Composition = defaults
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

func (c *Config) Clone() *Config {
	out := *c
	out.Reactor.Composition = make(map[string]float64, len(c.Reactor.Composition))
	for k, v := range c.Reactor.Composition {
		out.Reactor.Composition[k] = v
	}
	return &out
}

func (c *Config) Validate() error {
	r := c.Reactor
	switch r.Kind {
	case "constp", "fixed":
	default:
		return fmt.Errorf("%w: unknown reactor kind %q", ErrInvalid, r.Kind)
	}
	switch r.Integrator {
	case "euler", "rk4", "rk45":
	default:
		return fmt.Errorf("%w: unknown integrator %q", ErrInvalid, r.Integrator)
	}
	if !(r.Temperature > 0) {
		return fmt.Errorf("%w: temperature must be positive, got %g", ErrInvalid, r.Temperature)
	}
	if !(r.Pressure > 0) {
		return fmt.Errorf("%w: pressure must be positive, got %g", ErrInvalid, r.Pressure)
	}
	if len(r.Composition) == 0 {
		return fmt.Errorf("%w: empty composition", ErrInvalid)
	}
	for _, name := range c.Species() {
		if v := r.Composition[name]; !(v >= 0) {
			return fmt.Errorf("%w: composition of %s is %g", ErrInvalid, name, v)
		}
	}
	if _, ok := r.Composition[c.Coupling.Precursor]; !ok && r.Kind == "fixed" {
		return fmt.Errorf("%w: fixed composition lacks precursor %s", ErrInvalid, c.Coupling.Precursor)
	}
	if !(r.MaxStep > 0) || r.MinStep < 0 || r.MinStep >= r.MaxStep || !(r.Tolerance > 0) || r.MaxTemperatureDelta < 0 {
		return fmt.Errorf("%w: reactor limits %+v", ErrInvalid, r.Limits)
	}

	if _, err := c.CouplingConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Constants.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Species returns the composition keys in sorted order.
func (c *Config) Species() []string {
	names := make([]string, 0, len(c.Reactor.Composition))
	for name := range c.Reactor.Composition {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CouplingConfig translates the file settings into a stepper configuration.
// The particle size comes from the constants table.
func (c *Config) CouplingConfig() (coupling.Config, error) {
	policy, err := coupling.ParsePolicy(c.Coupling.Policy)
	if err != nil {
		return coupling.Config{}, err
	}
	cc := coupling.Config{
		StepSize:            c.Coupling.StepSize,
		EndTime:             c.Coupling.EndTime,
		Precursor:           c.Coupling.Precursor,
		CarbonsPerInception: c.Coupling.CarbonsPerInception,
		CarbonsPerParticle:  c.Constants.CarbonsPerParticle,
		Policy:              policy,
	}
	if err := coupling.ValidateConfig(cc); err != nil {
		return coupling.Config{}, err
	}
	return cc, nil
}

// Steps is the number of coupled steps the run will take.
func (c *Config) Steps() int {
	return coupling.StepCount(c.Coupling.EndTime, c.Coupling.StepSize)
}
