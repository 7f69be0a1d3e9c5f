package reactor

import "fmt"

// StateLog is the append-only time series of reactor snapshots.
type StateLog struct {
	states []State
}

func NewStateLog() *StateLog {
	return &StateLog{}
}

func (l *StateLog) Append(s State) { l.states = append(l.states, s.Clone()) }
func (l *StateLog) Len() int       { return len(l.states) }
func (l *StateLog) At(i int) State { return l.states[i] }

func (l *StateLog) Times() []float64 {
	return l.column(func(s State) float64 { return s.Time })
}

func (l *StateLog) Temperatures() []float64 {
	return l.column(func(s State) float64 { return s.Temperature })
}

func (l *StateLog) Pressures() []float64 {
	return l.column(func(s State) float64 { return s.Pressure })
}

func (l *StateLog) InternalEnergies() []float64 {
	return l.column(func(s State) float64 { return s.InternalEnergy })
}

func (l *StateLog) MoleFractions(name string) ([]float64, error) {
	out := make([]float64, len(l.states))
	for i, s := range l.states {
		x, ok := s.MoleFraction(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
		}
		out[i] = x
	}
	return out, nil
}

func (l *StateLog) column(get func(State) float64) []float64 {
	out := make([]float64, len(l.states))
	for i, s := range l.states {
		out[i] = get(s)
	}
	return out
}
