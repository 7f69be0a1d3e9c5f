package particle

import (
	"fmt"
	"math"
)

// ThermoState is the reactor snapshot the kinetics read at one instant.
type ThermoState struct {
	Pressure          float64 // Pa
	Temperature       float64 // K
	PrecursorFraction float64
}

// Validate reports ErrInvalidPhysicalInput for states the kinetics would
// turn into NaN or negative rates.
func (ts ThermoState) Validate() error {
	if !(ts.Pressure > 0) || math.IsInf(ts.Pressure, 0) {
		return fmt.Errorf("%w: pressure %g", ErrInvalidPhysicalInput, ts.Pressure)
	}
	if !(ts.Temperature > 0) || math.IsInf(ts.Temperature, 0) {
		return fmt.Errorf("%w: temperature %g", ErrInvalidPhysicalInput, ts.Temperature)
	}
	if !(ts.PrecursorFraction >= 0 && ts.PrecursorFraction <= 1) {
		return fmt.Errorf("%w: precursor mole fraction %g", ErrInvalidPhysicalInput, ts.PrecursorFraction)
	}
	return nil
}
