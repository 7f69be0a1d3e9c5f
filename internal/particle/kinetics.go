package particle

import "math"

// InceptionRate returns the volumetric particle inception rate in #/(cc s)
// for PAH dimer collisions at mole fraction x, pressure p (Pa) and
// temperature t (K). The caller guarantees p > 0 and t > 0.
func InceptionRate(c *Constants, x, p, t float64) float64 {
	// mol/cc of the colliding species; 1e6 converts mol/m3 to mol/cc
	molCon := (x * p) / (c.GasConstant * t) / 1e6

	n := c.PAHCarbons
	mC := c.CarbonMass()
	d := 2*c.PAHRadius + 2*c.PAHRadius

	// hard-sphere forward rate constant, cc/(mol s)
	kfr := c.Enhancement * c.CollisionFactor * c.Avogadro *
		math.Sqrt(8.0*c.Pi*c.Boltzmann*(n+n)/(mC*n*n)) *
		d * d * math.Sqrt(t)

	return c.NucleationEff * kfr * molCon * molCon * c.Avogadro
}

// VolumeFraction converts a particle number density (#/cc) to a volume
// fraction in ppm.
func VolumeFraction(c *Constants, numberDensity float64) float64 {
	return numberDensity * c.CarbonsPerParticle * c.CarbonMass() / c.ParticleDensity * 1e6
}

// ConsumedFraction returns the precursor mole fraction locked into a particle
// population of the given number density.
func ConsumedFraction(c *Constants, numberDensity, p, t float64) float64 {
	// PAH molecules per cc, to mol/cc, to mol/m3, to mole fraction
	return numberDensity * c.CarbonsPerParticle / c.PAHCarbons * c.AtomicMassUnit() * 1e6 * c.GasConstant * t / p
}

// GasScrub returns the precursor mole fraction left in the gas once the
// particle population has been accounted for. When the particles would need
// more precursor than upstream holds, ScrubFloor is returned instead of a
// negative value.
func GasScrub(c *Constants, numberDensity, upstream, p, t float64) float64 {
	consumed := ConsumedFraction(c, numberDensity, p, t)
	if upstream-consumed >= 0 {
		return upstream - consumed
	}
	return ScrubFloor
}

// Kinetics is the per-step particle model the coupling drives. It is
// expressed over ThermoState so the coupling can change where the precursor
// fraction comes from without touching the kinetics.
type Kinetics interface {
	InceptionRate(ts ThermoState) float64
	VolumeFraction(numberDensity float64) float64
	GasScrub(numberDensity float64, upstream ThermoState) float64
}

// Model implements Kinetics over a fixed Constants table.
type Model struct {
	c Constants
}

func NewModel(c Constants) (*Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Model{c: c}, nil
}

func (m *Model) Constants() Constants { return m.c }

func (m *Model) InceptionRate(ts ThermoState) float64 {
	return InceptionRate(&m.c, ts.PrecursorFraction, ts.Pressure, ts.Temperature)
}

func (m *Model) VolumeFraction(numberDensity float64) float64 {
	return VolumeFraction(&m.c, numberDensity)
}

func (m *Model) GasScrub(numberDensity float64, upstream ThermoState) float64 {
	return GasScrub(&m.c, numberDensity, upstream.PrecursorFraction, upstream.Pressure, upstream.Temperature)
}
