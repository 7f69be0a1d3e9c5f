package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/sootsim/internal/coupling"
)

type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Final  float64
}

// Summarize returns the zero Summary for an empty series.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	s := Summary{
		Min:   floats.Min(xs),
		Max:   floats.Max(xs),
		Final: xs[len(xs)-1],
	}
	if len(xs) == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	return s
}

// SummarizeResult summarizes every output column keyed by its CSV name.
func SummarizeResult(res *coupling.Result) map[string]Summary {
	return map[string]Summary{
		"temperature":     Summarize(res.Temperature),
		"pressure":        Summarize(res.Pressure),
		"internal_energy": Summarize(res.InternalEnergy),
		"number_density":  Summarize(res.NumberDensity),
		"volume_fraction": Summarize(res.VolumeFraction),
		"residual":        Summarize(res.Residual),
		"precursor":       Summarize(res.ReactorPrecursor),
	}
}
