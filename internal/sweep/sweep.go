package sweep

import (
	"context"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/experiment"
)

// Outcome is the end state of one grid point. Err is set when that run
// failed; the other points still complete.
type Outcome struct {
	Params         map[string]float64
	Steps          int
	NumberDensity  float64
	VolumeFraction float64
	Residual       float64
	Metrics        map[string]float64
	Err            error
}

// Value reads a named quantity: number_density, volume_fraction, residual
// or any metric name.
func (o Outcome) Value(name string) (float64, bool) {
	switch name {
	case "number_density":
		return o.NumberDensity, true
	case "volume_fraction":
		return o.VolumeFraction, true
	case "residual":
		return o.Residual, true
	}
	v, ok := o.Metrics[name]
	return v, ok
}

type Sweep struct {
	grid    *Grid
	workers int
}

// New runs at most workers points at once; workers <= 0 means GOMAXPROCS.
func New(grid *Grid, workers int) *Sweep {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sweep{grid: grid, workers: workers}
}

// Run builds and runs an independent experiment per grid point. Outcomes are
// in grid order. Only context cancellation aborts the sweep.
func (s *Sweep) Run(ctx context.Context, base *config.Config) ([]Outcome, error) {
	return RunPoints(ctx, base, s.grid.Points(), s.workers)
}

// RunPoints runs base with each point's parameters applied, at most workers
// at a time. A failed point is reported in its Outcome.
func RunPoints(ctx context.Context, base *config.Config, points []map[string]float64, workers int) ([]Outcome, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]Outcome, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, point := range points {
		g.Go(func() error {
			outcomes[i] = runPoint(gctx, base, point)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func runPoint(ctx context.Context, base *config.Config, point map[string]float64) Outcome {
	out := Outcome{Params: point}

	cfg, err := Apply(base, point)
	if err != nil {
		out.Err = err
		return out
	}
	exp, err := experiment.Build(cfg)
	if err != nil {
		out.Err = err
		return out
	}
	res, err := exp.Run(ctx)
	if err != nil {
		out.Err = err
		logrus.Warnf("sweep: point %v failed: %v", point, err)
		return out
	}

	last := res.Len() - 1
	out.Steps = res.Steps
	out.NumberDensity = res.NumberDensity[last]
	out.VolumeFraction = res.VolumeFraction[last]
	out.Residual = res.Residual[last]
	out.Metrics = res.Metrics
	logrus.Debugf("sweep: point %v N=%.4e", point, out.NumberDensity)
	return out
}

// Best returns the index of the successful outcome with the smallest (or
// largest) value of name, or -1 when none has it.
func Best(outcomes []Outcome, name string, maximize bool) int {
	best, bestVal := -1, math.Inf(1)
	if maximize {
		bestVal = math.Inf(-1)
	}
	for i, o := range outcomes {
		if o.Err != nil {
			continue
		}
		v, ok := o.Value(name)
		if !ok {
			continue
		}
		if (maximize && v > bestVal) || (!maximize && v < bestVal) {
			best, bestVal = i, v
		}
	}
	return best
}
