package scenario

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/coupling"
	"github.com/san-kum/sootsim/internal/experiment"
	"github.com/san-kum/sootsim/internal/storage"
	"github.com/san-kum/sootsim/internal/sweep"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run. Preset and Config are mutually exclusive; with neither
// the default configuration is used. Set holds sweep parameters applied on
// top.
type Step struct {
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Set    map[string]float64 `yaml:"set"`
	SaveAs string             `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i, st := range sc.Steps {
		if st.Preset != "" && st.Config != "" {
			return nil, fmt.Errorf("step %d: preset and config are mutually exclusive", i+1)
		}
	}
	return &sc, nil
}

func (st Step) config() (*config.Config, error) {
	var base *config.Config
	switch {
	case st.Preset != "":
		base = config.GetPreset(st.Preset)
		if base == nil {
			return nil, fmt.Errorf("unknown preset: %s", st.Preset)
		}
	case st.Config != "":
		var err error
		if base, err = config.Load(st.Config); err != nil {
			return nil, err
		}
	default:
		base = config.DefaultConfig()
	}
	return sweep.Apply(base, st.Set)
}

// StepResult is the outcome of one scenario step. RunID is set when the
// step was saved.
type StepResult struct {
	Step   Step
	Result *coupling.Result
	RunID  string
}

// Run executes the steps in order and stops at the first failure. Steps
// with SaveAs are written to st when it is non-nil.
func Run(ctx context.Context, sc *Scenario, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		logrus.Infof("scenario %s: step %d/%d", sc.Name, i+1, len(sc.Steps))

		cfg, err := step.config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.Build(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Step: step, Result: res}
		if step.SaveAs != "" && st != nil {
			if out.RunID, err = st.Save(step.SaveAs, cfg, res); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, out)
	}

	return results, nil
}
