package sweep

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/reactor"
)

var ErrUnknownParameter = errors.New("sweep: unknown parameter")

// setters maps a sweepable parameter name to the config field it sets.
var setters = map[string]func(c *config.Config, v float64){
	"temperature":           func(c *config.Config, v float64) { c.Reactor.Temperature = v },
	"pressure_atm":          func(c *config.Config, v float64) { c.Reactor.Pressure = v * reactor.OneAtmosphere },
	"step_size":             func(c *config.Config, v float64) { c.Coupling.StepSize = v },
	"end_time":              func(c *config.Config, v float64) { c.Coupling.EndTime = v },
	"carbons_per_inception": func(c *config.Config, v float64) { c.Coupling.CarbonsPerInception = v },
	"nucleation_efficiency": func(c *config.Config, v float64) { c.Constants.NucleationEff = v },
	"carbons_per_particle":  func(c *config.Config, v float64) { c.Constants.CarbonsPerParticle = v },
	"max_temperature_delta": func(c *config.Config, v float64) { c.Reactor.MaxTemperatureDelta = v },
	// precursor_fraction sets the precursor and gives the rest to the
	// largest other species; meant for fixed reactors.
	"precursor_fraction": setPrecursorFraction,
}

func setPrecursorFraction(c *config.Config, v float64) {
	comp := c.Reactor.Composition
	precursor := c.Coupling.Precursor
	bath, most := "", -1.0
	for _, name := range c.Species() {
		if name != precursor && comp[name] > most {
			bath, most = name, comp[name]
		}
	}
	prev := comp[precursor]
	comp[precursor] = v
	if bath != "" {
		comp[bath] += prev - v
	}
}

func Parameters() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Param struct {
	Name   string
	Values []float64
}

// Grid is the cartesian product of its parameters' values.
type Grid struct {
	params []Param
}

func NewGrid(params ...Param) (*Grid, error) {
	for _, p := range params {
		if _, ok := setters[p.Name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, p.Name)
		}
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("sweep: parameter %s has no values", p.Name)
		}
	}
	return &Grid{params: params}, nil
}

func (g *Grid) Size() int {
	if len(g.params) == 0 {
		return 0
	}
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

// Points enumerates the grid with the last parameter varying fastest.
func (g *Grid) Points() []map[string]float64 {
	points := make([]map[string]float64, 0, g.Size())
	if len(g.params) > 0 {
		g.collect(0, make(map[string]float64), &points)
	}
	return points
}

func (g *Grid) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.params) {
		*out = append(*out, current)
		return
	}
	p := g.params[depth]
	for _, val := range p.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[p.Name] = val
		g.collect(depth+1, next, out)
	}
}

// Apply returns a copy of base with point's parameters set.
func Apply(base *config.Config, point map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	names := make([]string, 0, len(point))
	for name := range point {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set, ok := setters[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
		}
		set(cfg, point[name])
	}
	return cfg, nil
}
