package reactor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/sootsim/internal/dynamo"
	"github.com/san-kum/sootsim/internal/integrators"
)

// ConstPressure is an ideal-gas, constant-pressure, homogeneous reactor.
// Its state vector holds the species mass fractions followed by the
// temperature. With energy off the temperature is held fixed.
type ConstPressure struct {
	mech     *Mechanism
	species  []string
	rhs      *constPressureRHS
	integ    dynamo.Integrator
	limits   Limits
	t        float64
	x        dynamo.State
	dtNext   float64
	substeps int
}

func NewConstPressure(mech *Mechanism, temperature, pressure float64, composition map[string]float64) (*ConstPressure, error) {
	if !(temperature > 0) {
		return nil, fmt.Errorf("%w: temperature %g", ErrComposition, temperature)
	}
	if !(pressure > 0) {
		return nil, fmt.Errorf("%w: pressure %g", ErrComposition, pressure)
	}
	species := mech.SpeciesNames()
	moles, err := normalize(species, composition)
	if err != nil {
		return nil, err
	}

	n := len(species)
	x := make(dynamo.State, n+1)
	copy(x, massFractions(mech, moles))
	x[n] = temperature

	return &ConstPressure{
		mech:    mech,
		species: species,
		rhs:     newConstPressureRHS(mech, pressure),
		integ:   integrators.NewRK45(),
		limits:  DefaultLimits(),
		x:       x,
	}, nil
}

func (r *ConstPressure) SetIntegrator(integ dynamo.Integrator) { r.integ = integ }

// SetEnergy switches the energy equation on or off.
func (r *ConstPressure) SetEnergy(on bool) { r.rhs.energy = on }

func (r *ConstPressure) SetLimits(l Limits) error {
	if !(l.MaxStep > 0) {
		return fmt.Errorf("%w: max step must be positive, got %g", dynamo.ErrParameterBounds, l.MaxStep)
	}
	if l.MinStep < 0 || l.MinStep >= l.MaxStep {
		return fmt.Errorf("%w: min step %g must lie in [0, max step)", dynamo.ErrParameterBounds, l.MinStep)
	}
	if !(l.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance must be positive, got %g", dynamo.ErrParameterBounds, l.Tolerance)
	}
	if l.MaxTemperatureDelta < 0 {
		return fmt.Errorf("%w: max temperature delta must be non-negative, got %g", dynamo.ErrParameterBounds, l.MaxTemperatureDelta)
	}
	r.limits = l
	return nil
}

func (r *ConstPressure) Limits() Limits        { return r.limits }
func (r *ConstPressure) Mechanism() *Mechanism { return r.mech }
func (r *ConstPressure) Time() float64         { return r.t }

// Substeps returns the number of accepted internal steps so far.
func (r *ConstPressure) Substeps() int { return r.substeps }

func (r *ConstPressure) State() State {
	n := len(r.species)
	temp := r.x[n]
	moles, wmix := moleFractions(r.mech, r.x[:n])

	h := 0.0
	for k, sp := range r.mech.Species {
		h += math.Max(r.x[k], 0) * sp.Enthalpy(temp) / sp.MolarMass
	}

	return State{
		Time:           r.t,
		Temperature:    temp,
		Pressure:       r.rhs.pressure,
		InternalEnergy: h - GasConstant*temp/wmix,
		Species:        r.species,
		X:              moles,
	}
}

func (r *ConstPressure) Advance(ctx context.Context, target float64) (State, error) {
	if target < r.t {
		return r.State(), fmt.Errorf("%w: %g < %g", ErrTargetInPast, target, r.t)
	}

	n := len(r.species)
	dt := r.dtNext
	if !(dt > 0) || dt > r.limits.MaxStep {
		dt = r.limits.MaxStep
	}

	for r.t < target {
		if err := ctx.Err(); err != nil {
			return r.State(), err
		}

		h := math.Min(dt, r.limits.MaxStep)
		landing := false
		if remaining := target - r.t; h >= remaining {
			h = remaining
			landing = true
		}

		xNew, suggested, err := r.substep(h)
		if errors.Is(err, dynamo.ErrStepRejected) {
			logrus.Tracef("reactor: step %.3e rejected at t=%.6e, retrying with %.3e", h, r.t, suggested)
			dt = suggested
			if dt < r.limits.MinStep {
				return r.State(), r.fail(dt, dynamo.ErrStepTooSmall)
			}
			continue
		}
		if err != nil {
			return r.State(), r.fail(h, err)
		}
		if !xNew.IsValid() {
			return r.State(), r.fail(h, dynamo.ErrInvalidState)
		}

		if r.rhs.energy && r.limits.MaxTemperatureDelta > 0 &&
			math.Abs(xNew[n]-r.x[n]) > r.limits.MaxTemperatureDelta {
			logrus.Tracef("reactor: dT=%.2f K over %.3e s exceeds limit, halving", xNew[n]-r.x[n], h)
			dt = h / 2
			if dt < r.limits.MinStep {
				return r.State(), r.fail(dt, dynamo.ErrStepTooSmall)
			}
			continue
		}

		clampFractions(xNew[:n])
		r.x = xNew
		r.substeps++
		if landing {
			r.t = target
			r.dtNext = dt
		} else {
			r.t += h
			dt = suggested
			r.dtNext = dt
		}
	}

	return r.State(), nil
}

func (r *ConstPressure) substep(h float64) (dynamo.State, float64, error) {
	if adaptive, ok := r.integ.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(r.rhs, r.x, r.t, h, r.limits.Tolerance)
	}
	return r.integ.Step(r.rhs, r.x, r.t, h), h, nil
}

func (r *ConstPressure) fail(dt float64, err error) error {
	return &dynamo.IntegrationError{Time: r.t, Dt: dt, State: r.x.Clone(), Wrapped: err}
}

// SetMoleFraction overwrites the mole fraction of one species and rescales
// the others so the composition still sums to one.
func (r *ConstPressure) SetMoleFraction(name string, value float64) error {
	idx, ok := r.mech.Index(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
	}
	if !(value >= 0 && value < 1) {
		return fmt.Errorf("%w: mole fraction %g for %s", ErrComposition, value, name)
	}

	n := len(r.species)
	moles, _ := moleFractions(r.mech, r.x[:n])
	rest := 1 - moles[idx]
	if rest <= 0 {
		return fmt.Errorf("%w: %s is the only species present", ErrComposition, name)
	}
	scale := (1 - value) / rest
	for k := range moles {
		moles[k] *= scale
	}
	moles[idx] = value
	copy(r.x, massFractions(r.mech, moles))
	return nil
}

type constPressureRHS struct {
	mech     *Mechanism
	pressure float64
	energy   bool
	conc     []float64
	omega    []float64
}

func newConstPressureRHS(mech *Mechanism, pressure float64) *constPressureRHS {
	return &constPressureRHS{
		mech:     mech,
		pressure: pressure,
		conc:     make([]float64, len(mech.Species)),
		omega:    make([]float64, len(mech.Species)),
	}
}

func (f *constPressureRHS) StateDim() int { return len(f.mech.Species) + 1 }

// Derive returns dY/dt = W*omega/rho and, with energy on,
// dT/dt = -sum(h*omega)/(rho*cp).
func (f *constPressureRHS) Derive(x dynamo.State, t float64) dynamo.State {
	n := len(f.mech.Species)
	temp := x[n]

	inv := 0.0
	for k, sp := range f.mech.Species {
		inv += math.Max(x[k], 0) / sp.MolarMass
	}
	wmix := 1 / inv
	rho := f.pressure * wmix / (GasConstant * temp)

	for k, sp := range f.mech.Species {
		f.conc[k] = rho * math.Max(x[k], 0) / sp.MolarMass
	}
	f.mech.ProductionRates(f.conc, temp, f.omega)

	dx := make(dynamo.State, n+1)
	for k, sp := range f.mech.Species {
		dx[k] = sp.MolarMass * f.omega[k] / rho
	}

	if f.energy {
		cp, hdot := 0.0, 0.0
		for k, sp := range f.mech.Species {
			cp += math.Max(x[k], 0) * sp.Cp / sp.MolarMass
			hdot += sp.Enthalpy(temp) * f.omega[k]
		}
		dx[n] = -hdot / (rho * cp)
	}
	return dx
}

func massFractions(mech *Mechanism, moles []float64) []float64 {
	y := make([]float64, len(moles))
	total := 0.0
	for k, sp := range mech.Species {
		y[k] = moles[k] * sp.MolarMass
		total += y[k]
	}
	for k := range y {
		y[k] /= total
	}
	return y
}

func moleFractions(mech *Mechanism, y []float64) ([]float64, float64) {
	moles := make([]float64, len(y))
	inv := 0.0
	for k, sp := range mech.Species {
		moles[k] = math.Max(y[k], 0) / sp.MolarMass
		inv += moles[k]
	}
	for k := range moles {
		moles[k] /= inv
	}
	return moles, 1 / inv
}

// clampFractions removes round-off negatives left by the integrator.
func clampFractions(y []float64) {
	for k := range y {
		if y[k] < 0 {
			y[k] = 0
		}
	}
}
