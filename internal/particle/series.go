package particle

import "fmt"

// Entry is one time-aligned row of a Series.
type Entry struct {
	NumberDensity  float64 // #/cc
	VolumeFraction float64 // ppm
	Residual       float64 // precursor mole fraction after scrubbing
}

// Series is the append-only particle population history. Index 0 is the
// zero seed; every later index corresponds to one completed coupled step.
type Series struct {
	numberDensity  []float64
	volumeFraction []float64
	residual       []float64
}

func NewSeries() *Series {
	return NewSeriesWithCapacity(0)
}

// NewSeriesWithCapacity preallocates room for steps appends after the seed.
func NewSeriesWithCapacity(steps int) *Series {
	s := &Series{
		numberDensity:  make([]float64, 1, steps+1),
		volumeFraction: make([]float64, 1, steps+1),
		residual:       make([]float64, 1, steps+1),
	}
	return s
}

func (s *Series) Len() int { return len(s.numberDensity) }

func (s *Series) At(i int) Entry {
	return Entry{
		NumberDensity:  s.numberDensity[i],
		VolumeFraction: s.volumeFraction[i],
		Residual:       s.residual[i],
	}
}

// Current returns the most recent entry.
func (s *Series) Current() Entry {
	return s.At(s.Len() - 1)
}

// Previous returns the entry before the most recent one. ok is false while
// only the seed exists.
func (s *Series) Previous() (Entry, bool) {
	if s.Len() < 2 {
		return Entry{}, false
	}
	return s.At(s.Len() - 2), true
}

// Append adds one entry, enforcing that particles are never destroyed and
// that the residual stays non-negative.
func (s *Series) Append(e Entry) error {
	cur := s.Current()
	if !(e.NumberDensity >= cur.NumberDensity) {
		return fmt.Errorf("%w: %g after %g", ErrNonMonotonic, e.NumberDensity, cur.NumberDensity)
	}
	if !(e.Residual >= 0) {
		return fmt.Errorf("%w: %g", ErrNegativeResidual, e.Residual)
	}
	s.numberDensity = append(s.numberDensity, e.NumberDensity)
	s.volumeFraction = append(s.volumeFraction, e.VolumeFraction)
	s.residual = append(s.residual, e.Residual)
	return nil
}

func (s *Series) NumberDensities() []float64 { return cloneFloats(s.numberDensity) }
func (s *Series) VolumeFractions() []float64 { return cloneFloats(s.volumeFraction) }
func (s *Series) Residuals() []float64       { return cloneFloats(s.residual) }

func cloneFloats(xs []float64) []float64 {
	c := make([]float64, len(xs))
	copy(c, xs)
	return c
}
