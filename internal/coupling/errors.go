package coupling

import (
	"errors"
	"fmt"
)

var (
	// ErrReactorAdvance marks a step aborted because the reactor could not
	// reach the requested time.
	ErrReactorAdvance = errors.New("coupling: reactor advance failed")

	ErrFinished      = errors.New("coupling: run already finished")
	ErrInvalidConfig = errors.New("coupling: invalid configuration")
)

// StepError records which coupled step failed. The particle series is left
// as it was after step Step-1.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6e): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
