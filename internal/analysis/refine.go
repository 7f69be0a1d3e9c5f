package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/sootsim/internal/coupling"
)

var ErrRefinement = errors.New("analysis: invalid refinement")

// Runner performs one complete run with outer step size dt.
type Runner func(ctx context.Context, dt float64) (*coupling.Result, error)

type RefinementLevel struct {
	StepSize float64
	Steps    int
	// Final is the number density at the end of the run.
	Final float64
	// Difference is the max-norm distance of the number density from the
	// previous level on the coarsest grid, relative to that level's peak.
	// It is zero for the first level.
	Difference float64
}

type Refinement struct {
	Factor int
	Levels []RefinementLevel
}

// Refine runs the same problem at dt0, dt0/factor, dt0/factor^2, ... and
// compares successive levels at the times of the coarsest grid.
func Refine(ctx context.Context, run Runner, dt0 float64, levels, factor int) (*Refinement, error) {
	if levels < 2 || factor < 2 || !(dt0 > 0) {
		return nil, fmt.Errorf("%w: levels=%d factor=%d dt=%g", ErrRefinement, levels, factor, dt0)
	}

	ref := &Refinement{Factor: factor, Levels: make([]RefinementLevel, 0, levels)}
	var prev []float64
	stride := 1
	dt := dt0

	for k := 0; k < levels; k++ {
		res, err := run(ctx, dt)
		if err != nil {
			return ref, fmt.Errorf("level %d (dt=%g): %w", k, dt, err)
		}

		coarse, err := sample(res.NumberDensity, stride)
		if err != nil {
			return ref, fmt.Errorf("level %d (dt=%g): %w", k, dt, err)
		}
		level := RefinementLevel{
			StepSize: dt,
			Steps:    res.Steps,
			Final:    res.NumberDensity[len(res.NumberDensity)-1],
		}
		if prev != nil {
			if len(prev) != len(coarse) {
				return ref, fmt.Errorf("%w: level %d has %d coarse points, want %d", ErrRefinement, k, len(coarse), len(prev))
			}
			level.Difference = floats.Distance(coarse, prev, math.Inf(1))
			if scale := floats.Norm(prev, math.Inf(1)); scale > 0 {
				level.Difference /= scale
			}
		}
		ref.Levels = append(ref.Levels, level)

		prev = coarse
		stride *= factor
		dt /= float64(factor)
	}
	return ref, nil
}

// sample picks every stride-th value, which must include the last one.
func sample(xs []float64, stride int) ([]float64, error) {
	if (len(xs)-1)%stride != 0 {
		return nil, fmt.Errorf("%w: %d steps not divisible by %d", ErrRefinement, len(xs)-1, stride)
	}
	out := make([]float64, 0, (len(xs)-1)/stride+1)
	for i := 0; i < len(xs); i += stride {
		out = append(out, xs[i])
	}
	return out, nil
}

// Converging reports whether every refinement shrank the difference.
func (r *Refinement) Converging() bool {
	if len(r.Levels) < 3 {
		return len(r.Levels) == 2
	}
	for k := 2; k < len(r.Levels); k++ {
		if !(r.Levels[k].Difference < r.Levels[k-1].Difference) {
			return false
		}
	}
	return true
}

// Order is the observed order of accuracy from the last two differences,
// NaN with fewer than three levels.
func (r *Refinement) Order() float64 {
	n := len(r.Levels)
	if n < 3 {
		return math.NaN()
	}
	d1, d2 := r.Levels[n-2].Difference, r.Levels[n-1].Difference
	if d1 <= 0 || d2 <= 0 {
		return math.NaN()
	}
	return math.Log(d1/d2) / math.Log(float64(r.Factor))
}
