package reactor

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed lumped.yaml
var lumpedMechanism []byte

// GasConstant is the universal gas constant in J/(mol K).
const GasConstant = 8.314462618

// ReferenceTemperature is the temperature at which formation enthalpies are given.
const ReferenceTemperature = 298.15

type Species struct {
	Name       string  `yaml:"name"`
	MolarMass  float64 `yaml:"molar_mass"`  // kg/mol
	Cp         float64 `yaml:"cp"`          // J/(mol K), constant
	HFormation float64 `yaml:"h_formation"` // J/mol at ReferenceTemperature
}

// Enthalpy returns the molar enthalpy at temperature t in J/mol.
func (s Species) Enthalpy(t float64) float64 {
	return s.HFormation + s.Cp*(t-ReferenceTemperature)
}

// Reaction is an irreversible Arrhenius reaction. Orders default to the
// reactant stoichiometric coefficients.
type Reaction struct {
	Equation  string             `yaml:"equation"`
	Reactants map[string]float64 `yaml:"reactants"`
	Products  map[string]float64 `yaml:"products"`
	Orders    map[string]float64 `yaml:"orders"`
	A         float64            `yaml:"a"`
	B         float64            `yaml:"b"`
	Ea        float64            `yaml:"ea"` // J/mol
}

// RateConstant returns k(T) = A T^b exp(-Ea/(R T)).
func (r Reaction) RateConstant(t float64) float64 {
	return r.A * math.Pow(t, r.B) * math.Exp(-r.Ea/(GasConstant*t))
}

type Mechanism struct {
	Name      string     `yaml:"name"`
	Species   []Species  `yaml:"species"`
	Reactions []Reaction `yaml:"reactions"`

	index map[string]int
	terms []reactionTerms
}

// reactionTerms is a reaction resolved to species indices.
type reactionTerms struct {
	orders []indexed
	net    []indexed
}

type indexed struct {
	i int
	v float64
}

func DefaultMechanism() *Mechanism {
	m, err := ParseMechanism(lumpedMechanism)
	if err != nil {
		panic(fmt.Sprintf("embedded mechanism: %v", err))
	}
	return m
}

func LoadMechanism(path string) (*Mechanism, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseMechanism(data)
	if err != nil {
		return nil, fmt.Errorf("mechanism %s: %w", path, err)
	}
	return m, nil
}

func ParseMechanism(data []byte) (*Mechanism, error) {
	var m Mechanism
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Mechanism) compile() error {
	if len(m.Species) == 0 {
		return fmt.Errorf("no species defined")
	}
	m.index = make(map[string]int, len(m.Species))
	for i, sp := range m.Species {
		if _, dup := m.index[sp.Name]; dup {
			return fmt.Errorf("duplicate species %q", sp.Name)
		}
		if !(sp.MolarMass > 0) {
			return fmt.Errorf("species %q: molar mass must be positive", sp.Name)
		}
		m.index[sp.Name] = i
	}

	m.terms = make([]reactionTerms, len(m.Reactions))
	for ri, rx := range m.Reactions {
		if len(rx.Reactants) == 0 {
			return fmt.Errorf("reaction %d (%s): no reactants", ri, rx.Equation)
		}
		if rx.A < 0 {
			return fmt.Errorf("reaction %d (%s): negative pre-exponential factor", ri, rx.Equation)
		}

		orders := rx.Orders
		if len(orders) == 0 {
			orders = rx.Reactants
		}
		var terms reactionTerms
		for _, name := range sortedKeys(orders) {
			i, ok := m.index[name]
			if !ok {
				return fmt.Errorf("reaction %d (%s): unknown species %q", ri, rx.Equation, name)
			}
			terms.orders = append(terms.orders, indexed{i, orders[name]})
		}

		net := make(map[int]float64)
		massIn, massOut := 0.0, 0.0
		for name, nu := range rx.Reactants {
			i, ok := m.index[name]
			if !ok {
				return fmt.Errorf("reaction %d (%s): unknown species %q", ri, rx.Equation, name)
			}
			net[i] -= nu
			massIn += nu * m.Species[i].MolarMass
		}
		for name, nu := range rx.Products {
			i, ok := m.index[name]
			if !ok {
				return fmt.Errorf("reaction %d (%s): unknown species %q", ri, rx.Equation, name)
			}
			net[i] += nu
			massOut += nu * m.Species[i].MolarMass
		}
		if math.Abs(massIn-massOut) > 1e-6*massIn {
			return fmt.Errorf("reaction %d (%s): mass not balanced (%g in, %g out)", ri, rx.Equation, massIn, massOut)
		}
		for i := 0; i < len(m.Species); i++ {
			if v, ok := net[i]; ok && v != 0 {
				terms.net = append(terms.net, indexed{i, v})
			}
		}
		m.terms[ri] = terms
	}
	return nil
}

// Index returns the position of a species in composition vectors.
func (m *Mechanism) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

func (m *Mechanism) SpeciesNames() []string {
	names := make([]string, len(m.Species))
	for i, sp := range m.Species {
		names[i] = sp.Name
	}
	return names
}

// ProductionRates fills omega with the molar production rate of every
// species in mol/(m3 s) for concentrations conc (mol/m3) at temperature t.
func (m *Mechanism) ProductionRates(conc []float64, t float64, omega []float64) {
	for i := range omega {
		omega[i] = 0
	}
	for ri, rx := range m.Reactions {
		q := rx.RateConstant(t)
		for _, o := range m.terms[ri].orders {
			if o.v == 0 {
				continue
			}
			c := conc[o.i]
			if c <= 0 {
				q = 0
				break
			}
			q *= math.Pow(c, o.v)
		}
		if q == 0 {
			continue
		}
		for _, n := range m.terms[ri].net {
			omega[n.i] += n.v * q
		}
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
