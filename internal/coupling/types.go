package coupling

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/sootsim/internal/particle"
	"github.com/san-kum/sootsim/internal/reactor"
)

type Phase int

const (
	Initializing Phase = iota
	Stepping
	Finished
	Failed
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Stepping:
		return "stepping"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Policy selects the precursor mole fraction fed to the inception rate.
type Policy int

const (
	// PolicyLagged uses the residual left by the previous step.
	PolicyLagged Policy = iota
	// PolicyReactor uses the reactor's precursor fraction after it advanced.
	PolicyReactor
)

func (p Policy) String() string {
	switch p {
	case PolicyLagged:
		return "lagged"
	case PolicyReactor:
		return "reactor"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lagged":
		return PolicyLagged, nil
	case "reactor":
		return PolicyReactor, nil
	}
	return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, s)
}

type Config struct {
	StepSize  float64
	EndTime   float64
	Precursor string

	// CarbonsPerInception/CarbonsPerParticle scales the inception rate into
	// new particles of the lumped population.
	CarbonsPerInception float64
	CarbonsPerParticle  float64

	Policy Policy
}

func DefaultConfig() Config {
	return Config{
		StepSize:            1e-4,
		EndTime:             0.1,
		Precursor:           "A4R5",
		CarbonsPerInception: 36,
		CarbonsPerParticle:  500,
		Policy:              PolicyLagged,
	}
}

// ValidateConfig reports ErrInvalidConfig for settings New would reject,
// without needing a reactor.
func ValidateConfig(c Config) error { return c.validate() }

func (c Config) validate() error {
	if !(c.StepSize > 0) || math.IsInf(c.StepSize, 0) {
		return fmt.Errorf("%w: step size must be positive, got %g", ErrInvalidConfig, c.StepSize)
	}
	if !(c.EndTime > 0) || math.IsInf(c.EndTime, 0) {
		return fmt.Errorf("%w: end time must be positive, got %g", ErrInvalidConfig, c.EndTime)
	}
	if c.Precursor == "" {
		return fmt.Errorf("%w: precursor species not named", ErrInvalidConfig)
	}
	if !(c.CarbonsPerInception > 0) || !(c.CarbonsPerParticle > 0) {
		return fmt.Errorf("%w: carbon counts must be positive, got %g/%g",
			ErrInvalidConfig, c.CarbonsPerInception, c.CarbonsPerParticle)
	}
	if c.Policy != PolicyLagged && c.Policy != PolicyReactor {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Policy)
	}
	return nil
}

// Feedback receives the scrubbed precursor fraction after every step.
// reactor.ConstPressure and reactor.Fixed both satisfy it.
type Feedback interface {
	SetMoleFraction(species string, x float64) error
}

// StepRecord describes one completed coupled step.
type StepRecord struct {
	Step     int
	Time     float64
	Reactor  reactor.State
	Input    particle.ThermoState // state the inception rate was evaluated at
	Upstream float64              // reactor precursor fraction before scrubbing
	Rate     float64              // #/(cc s)
	Entry    particle.Entry
	Floored  bool
}

type Observer interface {
	OnStep(rec StepRecord)
}

type ObserverFunc func(rec StepRecord)

func (f ObserverFunc) OnStep(rec StepRecord) { f(rec) }

type Metric interface {
	Name() string
	Observe(rec StepRecord)
	Value() float64
	Reset()
}

// Result holds positionally aligned output sequences; index 0 is the state
// the run started from.
type Result struct {
	Times            []float64
	Temperature      []float64
	Pressure         []float64
	InternalEnergy   []float64
	NumberDensity    []float64
	VolumeFraction   []float64
	Residual         []float64
	ReactorPrecursor []float64
	Steps            int
	Metrics          map[string]float64
}

func (r *Result) Len() int { return len(r.Times) }

// Column returns the named output sequence. Names match the storage CSV
// header.
func (r *Result) Column(name string) ([]float64, bool) {
	switch name {
	case "time":
		return r.Times, true
	case "temperature":
		return r.Temperature, true
	case "pressure":
		return r.Pressure, true
	case "internal_energy":
		return r.InternalEnergy, true
	case "number_density":
		return r.NumberDensity, true
	case "volume_fraction":
		return r.VolumeFraction, true
	case "residual":
		return r.Residual, true
	case "precursor":
		return r.ReactorPrecursor, true
	}
	return nil, false
}
