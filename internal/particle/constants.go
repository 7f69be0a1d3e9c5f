package particle

import (
	"fmt"
	"math"
)

// ScrubFloor is the residual precursor mole fraction reported when the
// particle population would consume more precursor than is available.
const ScrubFloor = 1e-10

// Constants is the immutable parameter table of the particle model.
type Constants struct {
	Avogadro        float64 `yaml:"avogadro" json:"avogadro"`         // 1/mol
	Boltzmann       float64 `yaml:"boltzmann" json:"boltzmann"`       // erg/K
	CarbonMW        float64 `yaml:"carbon_mw" json:"carbon_mw"`       // g/mol
	PAHRadius       float64 `yaml:"pah_radius" json:"pah_radius"`     // cm
	GasConstant     float64 `yaml:"gas_constant" json:"gas_constant"` // J/(mol K)
	NucleationEff   float64 `yaml:"nucleation_efficiency" json:"nucleation_efficiency"`
	PAHCarbons      float64 `yaml:"pah_carbons" json:"pah_carbons"`           // C atoms per colliding PAH
	ParticleDensity float64 `yaml:"particle_density" json:"particle_density"` // g/cc
	// CarbonsPerParticle is the assumed size of every particle.
	CarbonsPerParticle float64 `yaml:"carbons_per_particle" json:"carbons_per_particle"`
	// Pi is the value of pi used in the collision rate, 3.14 in the
	// published mechanism.
	Pi              float64 `yaml:"pi" json:"pi"`
	Enhancement     float64 `yaml:"enhancement" json:"enhancement"`           // van der Waals enhancement
	CollisionFactor float64 `yaml:"collision_factor" json:"collision_factor"` // collision probability pre-factor
}

func DefaultConstants() Constants {
	return Constants{
		Avogadro:           6.022e23,
		Boltzmann:          1.3806488e-16,
		CarbonMW:           12.011,
		PAHRadius:          7.24 * 1e-8 / 2,
		GasConstant:        8.314,
		NucleationEff:      1.0e-6,
		PAHCarbons:         18,
		ParticleDensity:    1.9,
		CarbonsPerParticle: 500,
		Pi:                 3.14,
		Enhancement:        2.2,
		CollisionFactor:    0.1,
	}
}

// AtomicMassUnit returns the mass of one atomic mass unit in grams.
func (c *Constants) AtomicMassUnit() float64 {
	return 1.0 / c.Avogadro
}

// CarbonMass returns the mass of a single carbon atom in grams.
func (c *Constants) CarbonMass() float64 {
	return c.CarbonMW * c.AtomicMassUnit()
}

func (c *Constants) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"avogadro", c.Avogadro},
		{"boltzmann", c.Boltzmann},
		{"carbon_mw", c.CarbonMW},
		{"pah_radius", c.PAHRadius},
		{"gas_constant", c.GasConstant},
		{"pah_carbons", c.PAHCarbons},
		{"particle_density", c.ParticleDensity},
		{"carbons_per_particle", c.CarbonsPerParticle},
		{"pi", c.Pi},
		{"enhancement", c.Enhancement},
		{"collision_factor", c.CollisionFactor},
	}
	for _, f := range fields {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("constant %s must be positive, got %g", f.name, f.v)
		}
	}
	if c.NucleationEff < 0 || math.IsNaN(c.NucleationEff) {
		return fmt.Errorf("constant nucleation_efficiency must be non-negative, got %g", c.NucleationEff)
	}
	return nil
}
