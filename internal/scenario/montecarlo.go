package scenario

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/sweep"
)

// Range is a uniform interval a parameter is drawn from.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// MonteCarloConfig draws every parameter in Vary independently for each
// trial.
type MonteCarloConfig struct {
	Vary    map[string]Range
	Trials  int
	Seed    uint64
	Workers int
}

type MonteCarloResult struct {
	Outcomes []sweep.Outcome
	// Failed counts trials whose run returned an error.
	Failed int
}

// Samples draws the trial points. The same seed gives the same points.
func (c MonteCarloConfig) Samples() []map[string]float64 {
	names := make([]string, 0, len(c.Vary))
	for name := range c.Vary {
		names = append(names, name)
	}
	sort.Strings(names)

	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	points := make([]map[string]float64, c.Trials)
	for i := range points {
		p := make(map[string]float64, len(names))
		for _, name := range names {
			r := c.Vary[name]
			p[name] = r.Min + rng.Float64()*(r.Max-r.Min)
		}
		points[i] = p
	}
	return points
}

// RunMonteCarlo runs base under random parameter draws.
func RunMonteCarlo(ctx context.Context, base *config.Config, c MonteCarloConfig) (*MonteCarloResult, error) {
	if c.Trials <= 0 {
		return nil, fmt.Errorf("monte carlo: trials must be positive, got %d", c.Trials)
	}
	if len(c.Vary) == 0 {
		return nil, fmt.Errorf("monte carlo: no parameters to vary")
	}
	for name, r := range c.Vary {
		if r.Max < r.Min {
			return nil, fmt.Errorf("monte carlo: %s range [%g, %g] is empty", name, r.Min, r.Max)
		}
		if _, err := sweep.NewGrid(sweep.Param{Name: name, Values: []float64{r.Min}}); err != nil {
			return nil, err
		}
	}

	outcomes, err := sweep.RunPoints(ctx, base, c.Samples(), c.Workers)
	if err != nil {
		return nil, err
	}

	res := &MonteCarloResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			res.Failed++
		}
	}
	logrus.Infof("monte carlo: %d/%d trials complete", len(outcomes)-res.Failed, len(outcomes))
	return res, nil
}

// Stats is the spread of one quantity over the successful trials.
type Stats struct {
	Mean   float64
	StdDev float64
	// P05 and P95 are the 5th and 95th percentiles.
	P05, P95 float64
	N        int
}

// Stats summarizes name (see sweep.Outcome.Value) over successful trials.
func (r *MonteCarloResult) Stats(name string) (Stats, bool) {
	xs := make([]float64, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Err != nil {
			continue
		}
		if v, ok := o.Value(name); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return Stats{}, false
	}
	sort.Float64s(xs)

	s := Stats{N: len(xs)}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	s.P05 = stat.Quantile(0.05, stat.Empirical, xs, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, xs, nil)
	return s, true
}
