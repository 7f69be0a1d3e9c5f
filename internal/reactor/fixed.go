package reactor

import (
	"context"
	"fmt"
)

// Fixed is a reactor whose thermodynamic state never changes; Advance only
// moves its clock. Mole fractions are taken exactly as given until
// SetMoleFraction renormalises them.
type Fixed struct {
	t              float64
	temperature    float64
	pressure       float64
	internalEnergy float64
	species        []string
	x              []float64
}

func NewFixed(temperature, pressure float64, composition map[string]float64) (*Fixed, error) {
	if !(temperature > 0) {
		return nil, fmt.Errorf("%w: temperature %g", ErrComposition, temperature)
	}
	if !(pressure > 0) {
		return nil, fmt.Errorf("%w: pressure %g", ErrComposition, pressure)
	}
	species := sortedKeys(composition)
	x := make([]float64, len(species))
	total := 0.0
	for i, name := range species {
		v := composition[name]
		if !(v >= 0 && v <= 1) {
			return nil, fmt.Errorf("%w: mole fraction %g for %s", ErrComposition, v, name)
		}
		x[i] = v
		total += v
	}
	if total > 1+1e-9 {
		return nil, fmt.Errorf("%w: mole fractions sum to %g", ErrComposition, total)
	}
	return &Fixed{
		temperature: temperature,
		pressure:    pressure,
		species:     species,
		x:           x,
	}, nil
}

// SetInternalEnergy sets the specific internal energy reported in snapshots.
func (f *Fixed) SetInternalEnergy(u float64) { f.internalEnergy = u }

func (f *Fixed) Time() float64 { return f.t }

func (f *Fixed) State() State {
	x := make([]float64, len(f.x))
	copy(x, f.x)
	return State{
		Time:           f.t,
		Temperature:    f.temperature,
		Pressure:       f.pressure,
		InternalEnergy: f.internalEnergy,
		Species:        f.species,
		X:              x,
	}
}

func (f *Fixed) Advance(ctx context.Context, target float64) (State, error) {
	if err := ctx.Err(); err != nil {
		return f.State(), err
	}
	if target < f.t {
		return f.State(), fmt.Errorf("%w: %g < %g", ErrTargetInPast, target, f.t)
	}
	f.t = target
	return f.State(), nil
}

// SetMoleFraction overwrites the mole fraction of one species and rescales
// the others so the composition sums to one, as ConstPressure does.
func (f *Fixed) SetMoleFraction(name string, value float64) error {
	idx := -1
	for i, sp := range f.species {
		if sp == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
	}
	if !(value >= 0 && value < 1) {
		return fmt.Errorf("%w: mole fraction %g for %s", ErrComposition, value, name)
	}

	rest := 0.0
	for i, v := range f.x {
		if i != idx {
			rest += v
		}
	}
	if rest <= 0 {
		return fmt.Errorf("%w: %s is the only species present", ErrComposition, name)
	}
	scale := (1 - value) / rest
	for i := range f.x {
		f.x[i] *= scale
	}
	f.x[idx] = value
	return nil
}
