package coupling

import "math"

// stepTolerance is the relative slack under which end/dt counts as a whole
// number of steps.
const stepTolerance = 1e-9

// StepCount returns how many steps of size dt cover [0, end]. A ratio within
// stepTolerance of an integer rounds to it; anything else rounds up so the
// last step is taken in full.
func StepCount(end, dt float64) int {
	ratio := end / dt
	nearest := math.Round(ratio)
	if nearest > 0 && math.Abs(ratio-nearest) <= stepTolerance*nearest {
		return int(nearest)
	}
	return int(math.Ceil(ratio))
}

// Clock counts fixed coupling steps. Times are derived from the step index
// so they never accumulate round-off.
type Clock struct {
	Start    float64
	StepSize float64
	Steps    int

	step int
}

func NewClock(start, stepSize float64, steps int) *Clock {
	return &Clock{Start: start, StepSize: stepSize, Steps: steps}
}

// Step returns the number of completed steps.
func (c *Clock) Step() int { return c.step }

func (c *Clock) Time() float64 { return c.TimeAt(c.step) }

// Next is the time the next step advances to.
func (c *Clock) Next() float64 { return c.TimeAt(c.step + 1) }

func (c *Clock) TimeAt(i int) float64 { return c.Start + float64(i)*c.StepSize }

func (c *Clock) Done() bool { return c.step >= c.Steps }

func (c *Clock) Advance() {
	if !c.Done() {
		c.step++
	}
}
