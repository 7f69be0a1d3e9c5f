package metrics

import (
	"math"

	"github.com/san-kum/sootsim/internal/coupling"
)

// FloorHits counts the steps whose residual was clamped to the scrub floor.
type FloorHits struct {
	name string
	hits int
}

func NewFloorHits() *FloorHits {
	return &FloorHits{name: "floor_hits"}
}

func (f *FloorHits) Name() string { return f.name }

func (f *FloorHits) Observe(rec coupling.StepRecord) {
	if rec.Floored {
		f.hits++
	}
}

func (f *FloorHits) Value() float64 { return float64(f.hits) }

func (f *FloorHits) Reset() { f.hits = 0 }

// Depletion is the largest share of the upstream precursor that the
// particles have locked away, 1 - residual/upstream.
type Depletion struct {
	name string
	max  float64
}

func NewDepletion() *Depletion {
	return &Depletion{name: "max_depletion"}
}

func (d *Depletion) Name() string { return d.name }

func (d *Depletion) Observe(rec coupling.StepRecord) {
	if rec.Upstream <= 0 {
		return
	}
	d.max = math.Max(d.max, 1-rec.Entry.Residual/rec.Upstream)
}

func (d *Depletion) Value() float64 { return d.max }

func (d *Depletion) Reset() { d.max = 0 }
