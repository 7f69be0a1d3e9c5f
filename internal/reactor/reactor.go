package reactor

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownSpecies = errors.New("reactor: unknown species")
	ErrTargetInPast   = errors.New("reactor: advance target earlier than current time")
	ErrComposition    = errors.New("reactor: invalid composition")
)

// OneAtmosphere in Pa.
const OneAtmosphere = 101325.0

// State is a snapshot of the reactor at one simulated time.
type State struct {
	Time           float64   // s
	Temperature    float64   // K
	Pressure       float64   // Pa
	InternalEnergy float64   // J/kg
	Species        []string  // shared, never mutated
	X              []float64 // mole fractions, aligned with Species
}

func (s State) MoleFraction(name string) (float64, bool) {
	for i, sp := range s.Species {
		if sp == name {
			return s.X[i], true
		}
	}
	return 0, false
}

func (s State) Clone() State {
	c := s
	c.X = make([]float64, len(s.X))
	copy(c.X, s.X)
	return c
}

// Reactor is the gas-phase collaborator of the particle coupling.
type Reactor interface {
	// Time returns the current simulated time in seconds.
	Time() float64
	// State returns the current state without advancing.
	State() State
	// Advance integrates up to target and returns the state exactly there.
	Advance(ctx context.Context, target float64) (State, error)
}

// Limits bounds the internal sub-steps a reactor takes inside one Advance.
type Limits struct {
	// MaxTemperatureDelta is the largest temperature change (K) accepted in
	// a single sub-step. Zero disables the check.
	MaxTemperatureDelta float64 `yaml:"max_temperature_delta"`
	MaxStep             float64 `yaml:"max_step"`
	MinStep             float64 `yaml:"min_step"`
	Tolerance           float64 `yaml:"tolerance"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxTemperatureDelta: 20,
		MaxStep:             1e-4,
		MinStep:             1e-14,
		Tolerance:           1e-6,
	}
}

// normalize converts a composition map into species-aligned mole fractions
// that sum to one.
func normalize(species []string, composition map[string]float64) ([]float64, error) {
	index := make(map[string]int, len(species))
	for i, sp := range species {
		index[sp] = i
	}
	x := make([]float64, len(species))
	total := 0.0
	for _, name := range sortedKeys(composition) {
		v := composition[name]
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: negative amount of %s", ErrComposition, name)
		}
		x[i] = v
		total += v
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: empty composition", ErrComposition)
	}
	for i := range x {
		x[i] /= total
	}
	return x, nil
}
