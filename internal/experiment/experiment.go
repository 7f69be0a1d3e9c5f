package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/coupling"
	"github.com/san-kum/sootsim/internal/particle"
	"github.com/san-kum/sootsim/internal/reactor"
)

// Experiment wires a reactor, the particle model and a stepper from one
// run configuration.
type Experiment struct {
	cfg     *config.Config
	reactor reactor.Reactor
	log     *reactor.StateLog
	stepper *coupling.Stepper
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Build is New followed by Setup with the default registry.
func Build(cfg *config.Config) (*Experiment, error) {
	e := New(cfg)
	if err := e.Setup(NewRegistry()); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	r, err := reg.BuildReactor(e.cfg.Reactor)
	if err != nil {
		return fmt.Errorf("build reactor: %w", err)
	}
	model, err := particle.NewModel(e.cfg.Constants)
	if err != nil {
		return err
	}
	cc, err := e.cfg.CouplingConfig()
	if err != nil {
		return err
	}

	e.log = reactor.NewStateLog()
	opts := []coupling.Option{coupling.WithStateLog(e.log)}
	if e.cfg.Coupling.Feedback {
		fb, ok := r.(coupling.Feedback)
		if !ok {
			return fmt.Errorf("%w: reactor %s does not accept feedback", coupling.ErrInvalidConfig, e.cfg.Reactor.Kind)
		}
		opts = append(opts, coupling.WithFeedback(fb))
	}

	stepper, err := coupling.New(r, model, cc, opts...)
	if err != nil {
		return err
	}
	for _, m := range reg.DefaultMetrics(e.cfg.Reactor.Kind) {
		stepper.AddMetric(m)
	}

	e.reactor = r
	e.stepper = stepper
	logrus.Debugf("experiment: %s reactor at %.1f K, %.4e Pa, %d steps", e.cfg.Reactor.Kind,
		e.cfg.Reactor.Temperature, e.cfg.Reactor.Pressure, stepper.Clock().Steps)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*coupling.Result, error) {
	if e.stepper == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.stepper.Run(ctx)
}

func (e *Experiment) Config() *config.Config      { return e.cfg }
func (e *Experiment) Reactor() reactor.Reactor    { return e.reactor }
func (e *Experiment) StateLog() *reactor.StateLog { return e.log }
func (e *Experiment) Stepper() *coupling.Stepper  { return e.stepper }
