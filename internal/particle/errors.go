package particle

import "errors"

var (
	// ErrInvalidPhysicalInput indicates a non-positive pressure or
	// temperature, or a mole fraction outside [0, 1].
	ErrInvalidPhysicalInput = errors.New("particle: invalid physical input")

	// ErrNonMonotonic indicates an append that would lower the number density.
	ErrNonMonotonic = errors.New("particle: number density must not decrease")

	// ErrNegativeResidual indicates an append with a negative residual fraction.
	ErrNegativeResidual = errors.New("particle: residual precursor fraction must be non-negative")
)
