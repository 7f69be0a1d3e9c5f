package reactor

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/san-kum/sootsim/internal/dynamo"
	"github.com/san-kum/sootsim/internal/integrators"
)

func newMethaneReactor(t *testing.T) *ConstPressure {
	t.Helper()
	r, err := NewConstPressure(DefaultMechanism(), 1700, 12*OneAtmosphere, map[string]float64{"CH4": 1, "N2": 1})
	if err != nil {
		t.Fatalf("NewConstPressure failed: %v", err)
	}
	return r
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestConstPressureInitialState(t *testing.T) {
	r := newMethaneReactor(t)
	s := r.State()

	if s.Time != 0 || s.Temperature != 1700 || s.Pressure != 12*OneAtmosphere {
		t.Errorf("unexpected initial state t=%v T=%v P=%v", s.Time, s.Temperature, s.Pressure)
	}

	ch4, ok := s.MoleFraction("CH4")
	if !ok || math.Abs(ch4-0.5) > 1e-12 {
		t.Errorf("CH4 = %v (ok %t), want normalised 0.5", ch4, ok)
	}
	a4r5, ok := s.MoleFraction("A4R5")
	if !ok || a4r5 != 0 {
		t.Errorf("A4R5 = %v (ok %t), want 0", a4r5, ok)
	}
}

func TestConstPressureAdvanceLandsOnTarget(t *testing.T) {
	r := newMethaneReactor(t)
	ctx := context.Background()

	dt := 1e-4
	for i := 1; i <= 50; i++ {
		target := float64(i) * dt
		s, err := r.Advance(ctx, target)
		if err != nil {
			t.Fatalf("advance to %v failed: %v", target, err)
		}
		if s.Time != target || r.Time() != target {
			t.Fatalf("landed at %v (reactor %v), want %v", s.Time, r.Time(), target)
		}
		for _, x := range s.X {
			if x < 0 {
				t.Fatalf("negative mole fraction %v at %v", x, target)
			}
		}
		if math.Abs(sum(s.X)-1) > 1e-9 {
			t.Errorf("mole fractions sum to %v at %v", sum(s.X), target)
		}
		// energy is off by default
		if s.Temperature != 1700 {
			t.Errorf("temperature drifted to %v", s.Temperature)
		}
	}
	if r.Substeps() <= 0 {
		t.Error("no substeps recorded")
	}
}

func TestConstPressureFormsPrecursor(t *testing.T) {
	r := newMethaneReactor(t)

	s, err := r.Advance(context.Background(), 0.02)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	ch4, _ := s.MoleFraction("CH4")
	a1, _ := s.MoleFraction("A1")
	a4r5, _ := s.MoleFraction("A4R5")
	if ch4 >= 0.5 || a1 <= 0 || a4r5 <= 0 {
		t.Errorf("expected CH4 consumed into A1 and A4R5, got CH4=%v A1=%v A4R5=%v", ch4, a1, a4r5)
	}
}

func TestConstPressureEnergy(t *testing.T) {
	loose := newMethaneReactor(t)
	loose.SetEnergy(true)
	limits := DefaultLimits()
	limits.MaxTemperatureDelta = 1000
	if err := loose.SetLimits(limits); err != nil {
		t.Fatalf("SetLimits failed: %v", err)
	}

	tight := newMethaneReactor(t)
	tight.SetEnergy(true)
	limits.MaxTemperatureDelta = 0.5
	if err := tight.SetLimits(limits); err != nil {
		t.Fatalf("SetLimits failed: %v", err)
	}

	sLoose, err := loose.Advance(context.Background(), 0.01)
	if err != nil {
		t.Fatalf("loose advance failed: %v", err)
	}
	sTight, err := tight.Advance(context.Background(), 0.01)
	if err != nil {
		t.Fatalf("tight advance failed: %v", err)
	}

	// methane pyrolysis is endothermic
	if sLoose.Temperature >= 1700 {
		t.Errorf("temperature %v did not drop", sLoose.Temperature)
	}
	if math.Abs(sLoose.Temperature-sTight.Temperature) > 1 {
		t.Errorf("loose %v and tight %v temperatures disagree", sLoose.Temperature, sTight.Temperature)
	}
	if tight.Substeps() < loose.Substeps() {
		t.Errorf("tight limit took %d substeps, loose %d", tight.Substeps(), loose.Substeps())
	}
}

func TestConstPressureFixedStepIntegrator(t *testing.T) {
	r := newMethaneReactor(t)
	r.SetIntegrator(integrators.NewRK4())
	limits := DefaultLimits()
	limits.MaxStep = 1e-5
	if err := r.SetLimits(limits); err != nil {
		t.Fatalf("SetLimits failed: %v", err)
	}

	s, err := r.Advance(context.Background(), 1e-3)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if s.Time != 1e-3 {
		t.Errorf("landed at %v, want 1e-3", s.Time)
	}
	if n := r.Substeps(); n < 99 || n > 101 {
		t.Errorf("expected about 100 substeps, got %d", n)
	}
}

func TestConstPressureAdvanceErrors(t *testing.T) {
	t.Run("target in past", func(t *testing.T) {
		r := newMethaneReactor(t)
		if _, err := r.Advance(context.Background(), 1e-4); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		if _, err := r.Advance(context.Background(), 5e-5); !errors.Is(err, ErrTargetInPast) {
			t.Errorf("expected ErrTargetInPast, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		r := newMethaneReactor(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := r.Advance(ctx, 1e-4); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("step too small", func(t *testing.T) {
		r := newMethaneReactor(t)
		if err := r.SetLimits(Limits{MaxStep: 0.1, MinStep: 0.05, Tolerance: 1e-12}); err != nil {
			t.Fatalf("SetLimits failed: %v", err)
		}
		_, err := r.Advance(context.Background(), 0.1)
		if !errors.Is(err, dynamo.ErrStepTooSmall) {
			t.Fatalf("expected ErrStepTooSmall, got %v", err)
		}

		var ie *dynamo.IntegrationError
		if !errors.As(err, &ie) {
			t.Fatalf("expected *dynamo.IntegrationError, got %T", err)
		}
		if ie.Time != 0 {
			t.Errorf("failure reported at t=%v, want 0", ie.Time)
		}
	})
}

func TestConstPressureSetLimitsValidation(t *testing.T) {
	r := newMethaneReactor(t)
	bad := []Limits{
		{MaxStep: 0, Tolerance: 1e-6},
		{MaxStep: 1e-4, MinStep: 1e-3, Tolerance: 1e-6},
		{MaxStep: 1e-4, Tolerance: 0},
		{MaxStep: 1e-4, Tolerance: 1e-6, MaxTemperatureDelta: -1},
	}
	for _, l := range bad {
		if err := r.SetLimits(l); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("SetLimits(%+v) = %v, want ErrParameterBounds", l, err)
		}
	}
	if r.Limits() != DefaultLimits() {
		t.Errorf("rejected limits were applied: %+v", r.Limits())
	}
}

func TestConstPressureSetMoleFraction(t *testing.T) {
	r := newMethaneReactor(t)

	if err := r.SetMoleFraction("A4R5", 1e-6); err != nil {
		t.Fatalf("SetMoleFraction failed: %v", err)
	}
	s := r.State()

	a4r5, _ := s.MoleFraction("A4R5")
	ch4, _ := s.MoleFraction("CH4")
	n2, _ := s.MoleFraction("N2")
	if math.Abs(a4r5-1e-6) > 1e-18 {
		t.Errorf("A4R5 = %v, want 1e-6", a4r5)
	}
	if math.Abs(ch4-n2) > 1e-15 {
		t.Errorf("CH4 %v and N2 %v should stay equal", ch4, n2)
	}
	if math.Abs(ch4+n2+a4r5-1) > 1e-12 {
		t.Errorf("composition sums to %v", ch4+n2+a4r5)
	}

	if err := r.SetMoleFraction("OH", 0.1); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
	if err := r.SetMoleFraction("A4R5", 1.5); !errors.Is(err, ErrComposition) {
		t.Errorf("expected ErrComposition, got %v", err)
	}
}

func TestNewConstPressureErrors(t *testing.T) {
	m := DefaultMechanism()

	tests := []struct {
		name        string
		temperature float64
		pressure    float64
		composition map[string]float64
		want        error
	}{
		{"unknown species", 1700, OneAtmosphere, map[string]float64{"XYZ": 1}, ErrUnknownSpecies},
		{"empty composition", 1700, OneAtmosphere, map[string]float64{}, ErrComposition},
		{"zero temperature", 0, OneAtmosphere, map[string]float64{"N2": 1}, nil},
		{"negative pressure", 1700, -1, map[string]float64{"N2": 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConstPressure(m, tt.temperature, tt.pressure, tt.composition)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInternalEnergyFinite(t *testing.T) {
	r := newMethaneReactor(t)
	u := r.State().InternalEnergy
	if math.IsNaN(u) || math.IsInf(u, 0) {
		t.Errorf("internal energy %v is not finite", u)
	}
}

func TestFixed(t *testing.T) {
	f, err := NewFixed(1700, 12*OneAtmosphere, map[string]float64{"A4R5": 1e-6, "N2": 0.999999})
	if err != nil {
		t.Fatalf("NewFixed failed: %v", err)
	}

	s, err := f.Advance(context.Background(), 0.5)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if s.Time != 0.5 || s.Temperature != 1700 {
		t.Errorf("unexpected state t=%v T=%v", s.Time, s.Temperature)
	}

	x, ok := s.MoleFraction("A4R5")
	if !ok || x != 1e-6 {
		t.Errorf("A4R5 = %v (ok %t), want 1e-6", x, ok)
	}

	s.X[0] = 42
	if f.State().X[0] == 42 {
		t.Error("snapshots must not alias reactor state")
	}

	if _, err := f.Advance(context.Background(), 0.1); !errors.Is(err, ErrTargetInPast) {
		t.Errorf("expected ErrTargetInPast, got %v", err)
	}
}

func TestFixedSetMoleFraction(t *testing.T) {
	f, err := NewFixed(1700, 12*OneAtmosphere, map[string]float64{"A4R5": 1e-6, "N2": 1 - 1e-6})
	if err != nil {
		t.Fatalf("NewFixed failed: %v", err)
	}

	if err := f.SetMoleFraction("A4R5", 5e-7); err != nil {
		t.Fatalf("SetMoleFraction failed: %v", err)
	}
	s := f.State()
	a4r5, _ := s.MoleFraction("A4R5")
	n2, _ := s.MoleFraction("N2")
	if a4r5 != 5e-7 {
		t.Errorf("A4R5 = %v, want 5e-7", a4r5)
	}
	if math.Abs(n2-(1-5e-7)) > 1e-15 {
		t.Errorf("N2 = %v, want the remainder %v", n2, 1-5e-7)
	}
	if math.Abs(sum(s.X)-1) > 1e-15 {
		t.Errorf("composition sums to %v, want 1", sum(s.X))
	}

	tests := []struct {
		name    string
		species string
		value   float64
		want    error
	}{
		{"unknown species", "OH", 0.1, ErrUnknownSpecies},
		{"whole mixture", "A4R5", 1, ErrComposition},
		{"negative", "A4R5", -1e-9, ErrComposition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.SetMoleFraction(tt.species, tt.value); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	lone, err := NewFixed(1700, OneAtmosphere, map[string]float64{"A4R5": 1e-7})
	if err != nil {
		t.Fatalf("NewFixed failed: %v", err)
	}
	if err := lone.SetMoleFraction("A4R5", 5e-8); !errors.Is(err, ErrComposition) {
		t.Errorf("expected ErrComposition with nothing to rescale, got %v", err)
	}
}

func TestFixedRejectsBadComposition(t *testing.T) {
	tests := []struct {
		name        string
		composition map[string]float64
	}{
		{"sum above one", map[string]float64{"A": 0.7, "B": 0.7}},
		{"negative", map[string]float64{"A": -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFixed(1700, OneAtmosphere, tt.composition); !errors.Is(err, ErrComposition) {
				t.Errorf("expected ErrComposition, got %v", err)
			}
		})
	}
}

func TestStateLog(t *testing.T) {
	f, err := NewFixed(1500, OneAtmosphere, map[string]float64{"A4R5": 1e-7})
	if err != nil {
		t.Fatalf("NewFixed failed: %v", err)
	}
	f.SetInternalEnergy(-2.5e5)

	log := NewStateLog()
	log.Append(f.State())
	for i := 1; i <= 3; i++ {
		s, err := f.Advance(context.Background(), float64(i)*0.1)
		if err != nil {
			t.Fatalf("advance %d failed: %v", i, err)
		}
		log.Append(s)
	}

	if log.Len() != 4 {
		t.Fatalf("expected 4 states, got %d", log.Len())
	}
	if got, want := log.Times(), []float64{0, 0.1, 0.2, 0.30000000000000004}; !slices.Equal(got, want) {
		t.Errorf("Times() = %v, want %v", got, want)
	}
	if got := log.Temperatures(); !slices.Equal(got, []float64{1500, 1500, 1500, 1500}) {
		t.Errorf("Temperatures() = %v", got)
	}
	p := OneAtmosphere
	if got := log.Pressures(); !slices.Equal(got, []float64{p, p, p, p}) {
		t.Errorf("Pressures() = %v", got)
	}
	if u := log.InternalEnergies()[2]; u != -2.5e5 {
		t.Errorf("internal energy %v, want -2.5e5", u)
	}

	xs, err := log.MoleFractions("A4R5")
	if err != nil {
		t.Fatalf("MoleFractions failed: %v", err)
	}
	if !slices.Equal(xs, []float64{1e-7, 1e-7, 1e-7, 1e-7}) {
		t.Errorf("MoleFractions(A4R5) = %v", xs)
	}
	if _, err := log.MoleFractions("OH"); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
}
