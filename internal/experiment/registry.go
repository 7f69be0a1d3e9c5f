package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/coupling"
	"github.com/san-kum/sootsim/internal/dynamo"
	"github.com/san-kum/sootsim/internal/integrators"
	"github.com/san-kum/sootsim/internal/metrics"
	"github.com/san-kum/sootsim/internal/reactor"
)

type reactorFactory func(rc config.ReactorConfig, integ dynamo.Integrator) (reactor.Reactor, error)

type Registry struct {
	reactors    map[string]reactorFactory
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		reactors:    make(map[string]reactorFactory),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.reactors["constp"] = newConstPressure
	r.reactors["fixed"] = func(rc config.ReactorConfig, _ dynamo.Integrator) (reactor.Reactor, error) {
		return reactor.NewFixed(rc.Temperature, rc.Pressure, rc.Composition)
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func newConstPressure(rc config.ReactorConfig, integ dynamo.Integrator) (reactor.Reactor, error) {
	mech := reactor.DefaultMechanism()
	if rc.Mechanism != "" {
		var err error
		if mech, err = reactor.LoadMechanism(rc.Mechanism); err != nil {
			return nil, err
		}
	}
	r, err := reactor.NewConstPressure(mech, rc.Temperature, rc.Pressure, rc.Composition)
	if err != nil {
		return nil, err
	}
	r.SetIntegrator(integ)
	r.SetEnergy(rc.Energy)
	if err := r.SetLimits(rc.Limits); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) BuildReactor(rc config.ReactorConfig) (reactor.Reactor, error) {
	fn, ok := r.reactors[rc.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown reactor kind: %s", rc.Kind)
	}
	integ, err := r.GetIntegrator(rc.Integrator)
	if err != nil {
		return nil, err
	}
	return fn(rc, integ)
}

func (r *Registry) ListReactors() []string    { return sortedNames(r.reactors) }
func (r *Registry) ListIntegrators() []string { return sortedNames(r.integrators) }

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metrics worth recording for a reactor kind. A
// fixed reactor has no thermal history to summarize.
func (r *Registry) DefaultMetrics(kind string) []coupling.Metric {
	ms := []coupling.Metric{
		metrics.NewPeakInception(),
		metrics.NewMeanInception(),
		metrics.NewFloorHits(),
		metrics.NewDepletion(),
	}
	if kind != "fixed" {
		ms = append(ms, metrics.NewTemperatureDrift(), metrics.NewEnergyDrift())
	}
	return ms
}
