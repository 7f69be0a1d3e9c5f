package coupling

import (
	"math"
	"testing"
)

func TestStepCount(t *testing.T) {
	tests := []struct {
		name    string
		end, dt float64
		want    int
	}{
		{"1000 steps of 1e-4", 1000 * 1e-4, 1e-4, 1000},
		{"0.1 s at 1e-4", 0.1, 1e-4, 1000},
		{"exact small ratio", 1.0, 0.25, 4},
		{"half step rounds up", 0.00105, 1e-4, 11},
		{"non-multiple rounds up", 0.1, 0.03, 4},
		{"end shorter than one step", 0.5e-4, 1e-4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepCount(tt.end, tt.dt); got != tt.want {
				t.Errorf("StepCount(%v, %v) = %d, want %d", tt.end, tt.dt, got, tt.want)
			}
		})
	}
}

func TestClockTimes(t *testing.T) {
	c := NewClock(0, 1e-4, 1000)
	if c.Time() != 0 || c.Next() != 1e-4 {
		t.Errorf("initial Time/Next = %v/%v, want 0/1e-4", c.Time(), c.Next())
	}

	for !c.Done() {
		c.Advance()
	}
	if c.Step() != 1000 {
		t.Errorf("expected 1000 steps, got %d", c.Step())
	}
	if math.Abs(c.Time()-0.1) > 1e-15 {
		t.Errorf("final time %v, want 0.1", c.Time())
	}
	if math.Abs(c.TimeAt(437)-0.0437) > 1e-15 {
		t.Errorf("TimeAt(437) = %v, want 0.0437", c.TimeAt(437))
	}
}

func TestClockStopsAtLastStep(t *testing.T) {
	c := NewClock(2, 0.5, 2)
	c.Advance()
	c.Advance()
	c.Advance()

	if c.Step() != 2 {
		t.Errorf("expected step 2, got %d", c.Step())
	}
	if c.Time() != 3.0 {
		t.Errorf("expected time 3, got %v", c.Time())
	}
}
