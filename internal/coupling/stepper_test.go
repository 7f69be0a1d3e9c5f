package coupling

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/sootsim/internal/particle"
	"github.com/san-kum/sootsim/internal/reactor"
)

const oneAtm = 101325.0

var errBoom = errors.New("solver diverged")

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

// flakyReactor fails its failAt-th Advance.
type flakyReactor struct {
	*reactor.Fixed
	failAt int
	calls  int
}

func (f *flakyReactor) Advance(ctx context.Context, target float64) (reactor.State, error) {
	f.calls++
	if f.calls == f.failAt {
		return f.State(), errBoom
	}
	return f.Fixed.Advance(ctx, target)
}

// coolingReactor reports a temperature that drops by 500 K per advance.
type coolingReactor struct {
	*reactor.Fixed
	temperature float64
}

func (c *coolingReactor) State() reactor.State {
	s := c.Fixed.State()
	s.Temperature = c.temperature
	return s
}

func (c *coolingReactor) Advance(ctx context.Context, target float64) (reactor.State, error) {
	if _, err := c.Fixed.Advance(ctx, target); err != nil {
		return c.State(), err
	}
	c.temperature -= 500
	return c.State(), nil
}

type countingMetric struct {
	n     int
	reset int
}

func (m *countingMetric) Name() string           { return "count" }
func (m *countingMetric) Observe(rec StepRecord) { m.n++ }
func (m *countingMetric) Value() float64         { return float64(m.n) }
func (m *countingMetric) Reset()                 { m.n = 0; m.reset++ }

func fixedReactor(t *testing.T, x float64) *reactor.Fixed {
	t.Helper()
	r, err := reactor.NewFixed(1700, 12*oneAtm, map[string]float64{"A4R5": x, "N2": 1 - x})
	if err != nil {
		t.Fatalf("NewFixed failed: %v", err)
	}
	return r
}

func newModel(t *testing.T) *particle.Model {
	t.Helper()
	m, err := particle.NewModel(particle.DefaultConstants())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

func run(t *testing.T, s *Stepper) *Result {
	t.Helper()
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return res
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero step", func(c *Config) { c.StepSize = 0 }},
		{"negative end", func(c *Config) { c.EndTime = -1 }},
		{"unnamed precursor", func(c *Config) { c.Precursor = "" }},
		{"unknown precursor", func(c *Config) { c.Precursor = "A5R6" }},
		{"zero particle carbons", func(c *Config) { c.CarbonsPerParticle = 0 }},
		{"unknown policy", func(c *Config) { c.Policy = Policy(7) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(fixedReactor(t, 1e-6), newModel(t), cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNewSeeds(t *testing.T) {
	log := reactor.NewStateLog()
	s, err := New(fixedReactor(t, 1e-6), newModel(t), DefaultConfig(), WithStateLog(log))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if s.Phase() != Initializing {
		t.Errorf("expected Initializing, got %v", s.Phase())
	}
	if s.Series().Len() != 1 || s.Series().Current() != (particle.Entry{}) {
		t.Errorf("expected a single zero seed, got len %d current %+v", s.Series().Len(), s.Series().Current())
	}
	if log.Len() != 1 {
		t.Errorf("expected the initial reactor state in the log, got %d", log.Len())
	}
	if s.Clock().Steps != 1000 {
		t.Errorf("expected 1000 steps, got %d", s.Clock().Steps)
	}
}

func TestNoPrecursor(t *testing.T) {
	s, err := New(fixedReactor(t, 0), newModel(t), DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res := run(t, s)

	if res.Steps != 1000 {
		t.Errorf("expected 1000 steps, got %d", res.Steps)
	}
	for i := range res.NumberDensity {
		if res.NumberDensity[i] != 0 || res.VolumeFraction[i] != 0 {
			t.Fatalf("step %d: N=%v FV=%v, want 0", i, res.NumberDensity[i], res.VolumeFraction[i])
		}
		if res.Residual[i] != res.ReactorPrecursor[i] {
			t.Fatalf("step %d: residual %v != upstream %v", i, res.Residual[i], res.ReactorPrecursor[i])
		}
	}
}

func constantStateRun(t *testing.T, opts ...func(r *reactor.Fixed) Option) (*Stepper, *Result) {
	t.Helper()
	r := fixedReactor(t, 1e-6)
	var options []Option
	for _, o := range opts {
		options = append(options, o(r))
	}
	s, err := New(r, newModel(t), DefaultConfig(), options...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, run(t, s)
}

func TestConstantState(t *testing.T) {
	s, res := constantStateRun(t)

	if s.Phase() != Finished {
		t.Errorf("expected Finished, got %v", s.Phase())
	}
	if res.Steps != 1000 || res.Len() != 1001 {
		t.Fatalf("expected 1000 steps and 1001 entries, got %d and %d", res.Steps, res.Len())
	}
	for name, col := range map[string][]float64{
		"number_density":  res.NumberDensity,
		"volume_fraction": res.VolumeFraction,
		"residual":        res.Residual,
		"temperature":     res.Temperature,
	} {
		if len(col) != 1001 {
			t.Errorf("%s has %d entries, want 1001", name, len(col))
		}
	}
	if math.Abs(res.Times[1000]-0.1) > 1e-15 {
		t.Errorf("final time %v, want 0.1", res.Times[1000])
	}

	// The lagged residual is the zero seed on step 1.
	if res.NumberDensity[1] != 0 || res.Residual[1] != 1e-6 {
		t.Errorf("step 1: N=%v residual=%v, want 0 and 1e-6", res.NumberDensity[1], res.Residual[1])
	}
	if math.Abs(res.NumberDensity[2]-16154259.78) > 1e-2 {
		t.Errorf("step 2: N=%v, want 16154259.78", res.NumberDensity[2])
	}

	for i := 2; i < res.Len(); i++ {
		if res.NumberDensity[i] <= res.NumberDensity[i-1] || res.VolumeFraction[i] <= res.VolumeFraction[i-1] {
			t.Fatalf("step %d: N or FV did not increase", i)
		}
	}
	for i := 1; i < res.Len(); i++ {
		if res.Residual[i] > res.ReactorPrecursor[i] || res.Residual[i] < particle.ScrubFloor {
			t.Fatalf("step %d: residual %v outside [floor, upstream %v]", i, res.Residual[i], res.ReactorPrecursor[i])
		}
	}

	last := res.Len() - 1
	if math.Abs(res.NumberDensity[last]-1.5999796e10) > 1e4 {
		t.Errorf("final N=%v, want 1.5999796e10", res.NumberDensity[last])
	}
	if math.Abs(res.Residual[last]-9.9142e-07) > 1e-10 {
		t.Errorf("final residual=%v, want 9.9142e-07", res.Residual[last])
	}
	if math.Abs(res.VolumeFraction[last]-8.3979e-05) > 1e-8 {
		t.Errorf("final FV=%v, want 8.3979e-05", res.VolumeFraction[last])
	}
}

func TestLengthsAfterEveryStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndTime = 20 * cfg.StepSize
	log := reactor.NewStateLog()
	s, err := New(fixedReactor(t, 1e-6), newModel(t), cfg, WithStateLog(log))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	for k := 1; k <= 20; k++ {
		if err := s.Step(ctx); err != nil {
			t.Fatalf("step %d failed: %v", k, err)
		}
		if s.Series().Len() != k+1 || log.Len() != k+1 || s.Result().Len() != k+1 {
			t.Fatalf("after %d steps: series %d log %d result %d, want %d",
				k, s.Series().Len(), log.Len(), s.Result().Len(), k+1)
		}
	}
	if s.Phase() != Finished {
		t.Errorf("expected Finished, got %v", s.Phase())
	}
	if err := s.Step(ctx); !errors.Is(err, ErrFinished) {
		t.Errorf("expected ErrFinished, got %v", err)
	}
}

func TestPolicyReactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyReactor
	cfg.EndTime = 2 * cfg.StepSize
	s, err := New(fixedReactor(t, 1e-6), newModel(t), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := s.Step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if n := s.Series().Current().NumberDensity; math.Abs(n-16154259.78) > 1e-2 {
		t.Errorf("step 1: N=%v, want 16154259.78", n)
	}
}

func TestFeedbackWritesResidual(t *testing.T) {
	r := fixedReactor(t, 1e-6)
	cfg := DefaultConfig()
	cfg.EndTime = 50 * cfg.StepSize
	s, err := New(r, newModel(t), cfg, WithFeedback(r))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	run(t, s)

	x, ok := r.State().MoleFraction("A4R5")
	if !ok {
		t.Fatal("reactor lost the precursor")
	}
	if x != s.Series().Current().Residual {
		t.Errorf("reactor precursor %v, want residual %v", x, s.Series().Current().Residual)
	}
	if x >= 1e-6 {
		t.Errorf("reactor precursor %v was not depleted", x)
	}
}

func TestFeedbackScrubsEachParticleOnce(t *testing.T) {
	_, oneWay := constantStateRun(t)
	_, fed := constantStateRun(t, func(r *reactor.Fixed) Option { return WithFeedback(r) })

	if fed.Len() != oneWay.Len() {
		t.Fatalf("feedback run has %d entries, one-way run %d", fed.Len(), oneWay.Len())
	}

	// On a frozen gas state the reactor only changes through the feedback,
	// so both runs must agree.
	for i := range fed.NumberDensity {
		if math.Abs(fed.NumberDensity[i]-oneWay.NumberDensity[i]) > 1e-9*oneWay.NumberDensity[i] {
			t.Fatalf("step %d: N=%v with feedback, %v without", i, fed.NumberDensity[i], oneWay.NumberDensity[i])
		}
		if math.Abs(fed.Residual[i]-oneWay.Residual[i]) > 1e-9*oneWay.Residual[i] {
			t.Fatalf("step %d: residual=%v with feedback, %v without", i, fed.Residual[i], oneWay.Residual[i])
		}
	}

	c := particle.DefaultConstants()
	last := fed.Len() - 1
	consumed := particle.ConsumedFraction(&c, fed.NumberDensity[last], 12*oneAtm, 1700)
	if math.Abs(fed.Residual[last]-(1e-6-consumed)) > 1e-15 {
		t.Errorf("final residual %v, want 1e-6 minus consumed %v", fed.Residual[last], consumed)
	}
	if math.Abs(fed.Residual[last]-9.9142e-07) > 1e-10 {
		t.Errorf("final residual %v, want 9.9142e-07", fed.Residual[last])
	}
	if fed.ReactorPrecursor[last] <= particle.ScrubFloor {
		t.Errorf("reactor precursor fell to the floor")
	}
}

func TestObserversAndMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndTime = 10 * cfg.StepSize
	s, err := New(fixedReactor(t, 1e-6), newModel(t), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var steps []int
	s.AddObserver(ObserverFunc(func(rec StepRecord) {
		steps = append(steps, rec.Step)
		if rec.Upstream != 1e-6 {
			t.Errorf("step %d: upstream %v, want 1e-6", rec.Step, rec.Upstream)
		}
	}))
	m := &countingMetric{}
	s.AddMetric(m)

	res := run(t, s)
	if len(steps) != 10 || steps[0] != 1 || steps[9] != 10 {
		t.Errorf("observer saw steps %v, want 1..10", steps)
	}
	if m.reset != 1 {
		t.Errorf("metric reset %d times, want 1", m.reset)
	}
	if res.Metrics["count"] != 10 {
		t.Errorf("count metric %v, want 10", res.Metrics["count"])
	}
}

func TestReactorFailure(t *testing.T) {
	r := &flakyReactor{Fixed: fixedReactor(t, 1e-6), failAt: 3}
	s, err := New(r, newModel(t), DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := s.Run(context.Background())
	if !errors.Is(err, ErrReactorAdvance) || !errors.Is(err, errBoom) {
		t.Fatalf("expected ErrReactorAdvance wrapping the reactor error, got %v", err)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Step != 3 || math.Abs(stepErr.Time-3e-4) > 1e-18 {
		t.Errorf("StepError at step %d t=%v, want step 3 t=3e-4", stepErr.Step, stepErr.Time)
	}

	if s.Phase() != Failed {
		t.Errorf("expected Failed, got %v", s.Phase())
	}
	if s.Series().Len() != 3 || res.Len() != 3 {
		t.Errorf("expected the 3 entries before the failure, got series %d result %d", s.Series().Len(), res.Len())
	}
	if err := s.Step(context.Background()); !errors.Is(err, ErrReactorAdvance) {
		t.Errorf("failed stepper should keep returning its error, got %v", err)
	}
}

func TestNonPhysicalReactorState(t *testing.T) {
	r := &coolingReactor{Fixed: fixedReactor(t, 1e-6), temperature: 1700}
	s, err := New(r, newModel(t), DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = s.Run(context.Background())
	if !errors.Is(err, particle.ErrInvalidPhysicalInput) {
		t.Fatalf("expected ErrInvalidPhysicalInput, got %v", err)
	}
	if errors.Is(err, ErrReactorAdvance) {
		t.Error("kinetics input failure must not be reported as a reactor failure")
	}
	if s.Series().Len() != 4 {
		t.Errorf("expected 4 entries, got %d", s.Series().Len())
	}
}

func TestCancelAndResume(t *testing.T) {
	s, err := New(fixedReactor(t, 1e-6), newModel(t), DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.AddObserver(ObserverFunc(func(rec StepRecord) {
		if rec.Step == 5 {
			cancel()
		}
	}))

	res, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Len() != 6 {
		t.Errorf("expected 6 entries, got %d", res.Len())
	}
	if s.Phase() != Stepping {
		t.Errorf("expected Stepping after cancellation, got %v", s.Phase())
	}

	res = run(t, s)
	if res.Steps != 1000 {
		t.Errorf("resumed run reached %d steps, want 1000", res.Steps)
	}
}

func TestDrivesMechanismReactor(t *testing.T) {
	r, err := reactor.NewConstPressure(reactor.DefaultMechanism(), 1700, 12*oneAtm,
		map[string]float64{"CH4": 1, "N2": 1})
	if err != nil {
		t.Fatalf("NewConstPressure failed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.EndTime = 100 * cfg.StepSize

	s, err := New(r, newModel(t), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res := run(t, s)

	if res.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", res.Steps)
	}
	if res.ReactorPrecursor[0] != 0 || res.ReactorPrecursor[100] <= 0 {
		t.Errorf("precursor %v -> %v, want 0 -> positive", res.ReactorPrecursor[0], res.ReactorPrecursor[100])
	}
	for i := 1; i < res.Len(); i++ {
		if res.NumberDensity[i] < res.NumberDensity[i-1] {
			t.Fatalf("step %d: N decreased", i)
		}
		if res.Temperature[i] != 1700 {
			t.Fatalf("step %d: T=%v, want isothermal 1700", i, res.Temperature[i])
		}
	}
}
