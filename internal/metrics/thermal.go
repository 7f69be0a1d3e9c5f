package metrics

import (
	"math"

	"github.com/san-kum/sootsim/internal/coupling"
)

// TemperatureDrift is the largest excursion of the reactor temperature from
// the first observed step, in K.
type TemperatureDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewTemperatureDrift() *TemperatureDrift {
	return &TemperatureDrift{name: "temperature_drift"}
}

func (d *TemperatureDrift) Name() string { return d.name }

func (d *TemperatureDrift) Observe(rec coupling.StepRecord) {
	temp := rec.Reactor.Temperature
	if d.samples == 0 {
		d.initial = temp
	}
	d.samples++
	d.maxDrift = math.Max(d.maxDrift, math.Abs(temp-d.initial))
}

func (d *TemperatureDrift) Value() float64 { return d.maxDrift }

func (d *TemperatureDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// EnergyDrift is the largest relative change of the reactor's specific
// internal energy from the first observed step.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(rec coupling.StepRecord) {
	u := rec.Reactor.InternalEnergy
	if e.samples == 0 {
		e.initial = u
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(u-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
