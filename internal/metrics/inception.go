package metrics

import (
	"math"

	"github.com/san-kum/sootsim/internal/coupling"
)

// PeakInception tracks the largest inception rate seen, in #/(cc s).
type PeakInception struct {
	name string
	peak float64
}

func NewPeakInception() *PeakInception {
	return &PeakInception{name: "peak_inception_rate"}
}

func (p *PeakInception) Name() string { return p.name }

func (p *PeakInception) Observe(rec coupling.StepRecord) {
	p.peak = math.Max(p.peak, rec.Rate)
}

func (p *PeakInception) Value() float64 { return p.peak }

func (p *PeakInception) Reset() { p.peak = 0 }

// MeanInception is the time-averaged inception rate over the observed steps.
type MeanInception struct {
	name    string
	sum     float64
	samples int
}

func NewMeanInception() *MeanInception {
	return &MeanInception{name: "mean_inception_rate"}
}

func (m *MeanInception) Name() string { return m.name }

func (m *MeanInception) Observe(rec coupling.StepRecord) {
	m.sum += rec.Rate
	m.samples++
}

func (m *MeanInception) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanInception) Reset() {
	m.sum = 0
	m.samples = 0
}
