package coupling

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/sootsim/internal/particle"
	"github.com/san-kum/sootsim/internal/reactor"
)

type Stepper struct {
	reactor  reactor.Reactor
	kinetics particle.Kinetics
	cfg      Config

	clock  *Clock
	series *particle.Series
	log    *reactor.StateLog
	// logOffset is where this run's states start in log.
	logOffset int

	feedback  Feedback
	metrics   []Metric
	observers []Observer

	phase Phase
	err   error
}

type Option func(*Stepper)

// WithStateLog appends every reactor state the stepper sees to log,
// including the initial one.
func WithStateLog(log *reactor.StateLog) Option {
	return func(s *Stepper) { s.log = log }
}

// WithFeedback writes each step's residual back through f.
func WithFeedback(f Feedback) Option {
	return func(s *Stepper) { s.feedback = f }
}

func New(r reactor.Reactor, k particle.Kinetics, cfg Config, opts ...Option) (*Stepper, error) {
	if r == nil || k == nil {
		return nil, fmt.Errorf("%w: reactor and kinetics are required", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	initial := r.State()
	if _, ok := initial.MoleFraction(cfg.Precursor); !ok {
		return nil, fmt.Errorf("%w: reactor has no species %q", ErrInvalidConfig, cfg.Precursor)
	}
	start := r.Time()
	if !(cfg.EndTime > start) {
		return nil, fmt.Errorf("%w: end time %g not after reactor time %g", ErrInvalidConfig, cfg.EndTime, start)
	}
	steps := StepCount(cfg.EndTime-start, cfg.StepSize)

	s := &Stepper{
		reactor:   r,
		kinetics:  k,
		cfg:       cfg,
		clock:     NewClock(start, cfg.StepSize, steps),
		series:    particle.NewSeriesWithCapacity(steps),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		phase:     Initializing,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = reactor.NewStateLog()
	}
	s.logOffset = s.log.Len()
	s.log.Append(initial)

	if cfg.Policy == PolicyReactor && s.feedback == nil {
		logrus.Warnf("coupling: policy %v without feedback counts the precursor once per step", cfg.Policy)
	}
	return s, nil
}

func (s *Stepper) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Stepper) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Stepper) Phase() Phase                { return s.phase }
func (s *Stepper) Clock() Clock                { return *s.clock }
func (s *Stepper) Config() Config              { return s.cfg }
func (s *Stepper) Series() *particle.Series    { return s.series }
func (s *Stepper) StateLog() *reactor.StateLog { return s.log }

// Err returns the error that moved the stepper to Failed, if any.
func (s *Stepper) Err() error { return s.err }

// Step performs one coupled step. A reactor failure moves the stepper to
// Failed and every later call returns the same error. Context cancellation
// does not: the step can be retried.
func (s *Stepper) Step(ctx context.Context) error {
	switch s.phase {
	case Finished:
		return ErrFinished
	case Failed:
		return s.err
	}
	s.phase = Stepping

	step := s.clock.Step() + 1
	target := s.clock.Next()
	dt := s.clock.StepSize

	state, err := s.reactor.Advance(ctx, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		return s.fail(step, target, fmt.Errorf("%w: %w", ErrReactorAdvance, err))
	}

	upstream, ok := state.MoleFraction(s.cfg.Precursor)
	if !ok {
		return s.fail(step, target, fmt.Errorf("%w: reactor lost species %q", ErrReactorAdvance, s.cfg.Precursor))
	}

	prev := s.series.Current()
	input := particle.ThermoState{
		Pressure:          state.Pressure,
		Temperature:       state.Temperature,
		PrecursorFraction: prev.Residual,
	}
	if s.cfg.Policy == PolicyReactor {
		input.PrecursorFraction = upstream
	}
	gas := input
	gas.PrecursorFraction = upstream
	if err := input.Validate(); err != nil {
		return s.fail(step, target, err)
	}
	if err := gas.Validate(); err != nil {
		return s.fail(step, target, err)
	}

	rate := s.kinetics.InceptionRate(input)
	n := prev.NumberDensity + rate*s.cfg.CarbonsPerInception/s.cfg.CarbonsPerParticle*dt

	// With feedback the reactor already carries the depletion of every
	// earlier step, so only the particles formed this step are scrubbed.
	scrubbed := n
	if s.feedback != nil {
		scrubbed = n - prev.NumberDensity
	}
	entry := particle.Entry{
		NumberDensity:  n,
		VolumeFraction: s.kinetics.VolumeFraction(n),
		Residual:       s.kinetics.GasScrub(scrubbed, gas),
	}
	floored := entry.Residual == particle.ScrubFloor && upstream != particle.ScrubFloor
	if floored {
		logrus.Debugf("coupling: step %d residual clamped to %g (upstream %g)", step, particle.ScrubFloor, upstream)
	}

	if err := s.series.Append(entry); err != nil {
		return s.fail(step, target, err)
	}
	s.log.Append(state)
	s.clock.Advance()

	if s.feedback != nil {
		if err := s.feedback.SetMoleFraction(s.cfg.Precursor, entry.Residual); err != nil {
			return s.fail(step, target, fmt.Errorf("feedback: %w", err))
		}
	}

	rec := StepRecord{
		Step:     step,
		Time:     target,
		Reactor:  state,
		Input:    input,
		Upstream: upstream,
		Rate:     rate,
		Entry:    entry,
		Floored:  floored,
	}
	for _, m := range s.metrics {
		m.Observe(rec)
	}
	for _, obs := range s.observers {
		obs.OnStep(rec)
	}

	logrus.Debugf("coupling: step %d t=%.4e T=%.1f P=%.4e N=%.4e FV=%.4e res=%.4e",
		step, target, state.Temperature, state.Pressure, entry.NumberDensity, entry.VolumeFraction, entry.Residual)

	if s.clock.Done() {
		s.phase = Finished
	}
	return nil
}

func (s *Stepper) fail(step int, t float64, err error) error {
	s.phase = Failed
	s.err = &StepError{Step: step, Time: t, Wrapped: err}
	logrus.Errorf("coupling: %v", s.err)
	return s.err
}

// Run steps until the clock is exhausted. The returned Result covers every
// completed step even when err is non-nil.
func (s *Stepper) Run(ctx context.Context) (*Result, error) {
	for _, m := range s.metrics {
		m.Reset()
	}

	logrus.Infof("coupling: running %d steps of %.3e s (policy %v, feedback %t)",
		s.clock.Steps-s.clock.Step(), s.clock.StepSize, s.cfg.Policy, s.feedback != nil)

	for s.phase != Finished {
		select {
		case <-ctx.Done():
			return s.Result(), ctx.Err()
		default:
		}

		if err := s.Step(ctx); err != nil {
			return s.Result(), err
		}
	}

	res := s.Result()
	last := res.Len() - 1
	logrus.Infof("coupling: finished at t=%.4e, N=%.4e #/cc, FV=%.4e ppm",
		res.Times[last], res.NumberDensity[last], res.VolumeFraction[last])
	return res, nil
}

// Result snapshots the series gathered so far.
func (s *Stepper) Result() *Result {
	n := s.series.Len()
	res := &Result{
		Times:            make([]float64, n),
		Temperature:      make([]float64, n),
		Pressure:         make([]float64, n),
		InternalEnergy:   make([]float64, n),
		ReactorPrecursor: make([]float64, n),
		NumberDensity:    s.series.NumberDensities(),
		VolumeFraction:   s.series.VolumeFractions(),
		Residual:         s.series.Residuals(),
		Steps:            n - 1,
		Metrics:          make(map[string]float64, len(s.metrics)),
	}
	for i := 0; i < n; i++ {
		st := s.log.At(s.logOffset + i)
		res.Times[i] = s.clock.TimeAt(i)
		res.Temperature[i] = st.Temperature
		res.Pressure[i] = st.Pressure
		res.InternalEnergy[i] = st.InternalEnergy
		res.ReactorPrecursor[i], _ = st.MoleFraction(s.cfg.Precursor)
	}
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}
