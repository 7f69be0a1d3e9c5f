package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/coupling"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	seriesFile   = "series.csv"
)

// Columns is the header of series.csv.
var Columns = []string{
	"time", "temperature", "pressure", "internal_energy",
	"number_density", "volume_fraction", "residual", "precursor",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	ReactorKind string             `json:"reactor_kind"`
	Integrator  string             `json:"integrator"`
	Temperature float64            `json:"temperature"`
	Pressure    float64            `json:"pressure"`
	StepSize    float64            `json:"step_size"`
	EndTime     float64            `json:"end_time"`
	Steps       int                `json:"steps"`
	Precursor   string             `json:"precursor"`
	Policy      string             `json:"policy"`
	Feedback    bool               `json:"feedback"`
	Final       Final              `json:"final"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Final is the particle state at the end of the run.
type Final struct {
	NumberDensity  float64 `json:"number_density"`
	VolumeFraction float64 `json:"volume_fraction"`
	Residual       float64 `json:"residual"`
}

func newMetadata(id, name string, cfg *config.Config, res *coupling.Result) RunMetadata {
	meta := RunMetadata{
		ID:          id,
		Name:        name,
		Timestamp:   time.Now(),
		ReactorKind: cfg.Reactor.Kind,
		Integrator:  cfg.Reactor.Integrator,
		Temperature: cfg.Reactor.Temperature,
		Pressure:    cfg.Reactor.Pressure,
		StepSize:    cfg.Coupling.StepSize,
		EndTime:     cfg.Coupling.EndTime,
		Steps:       res.Steps,
		Precursor:   cfg.Coupling.Precursor,
		Policy:      cfg.Coupling.Policy,
		Feedback:    cfg.Coupling.Feedback,
		Metrics:     res.Metrics,
	}
	if n := res.Len(); n > 0 {
		meta.Final = Final{
			NumberDensity:  res.NumberDensity[n-1],
			VolumeFraction: res.VolumeFraction[n-1],
			Residual:       res.Residual[n-1],
		}
	}
	return meta
}

// Save writes a run under a fresh directory and returns its ID.
func (s *Store) Save(name string, cfg *config.Config, res *coupling.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newMetadata(runID, name, cfg, res)); err != nil {
		return "", err
	}

	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, res); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadSeries reads series.csv back into a Result. Metrics come from the
// run's metadata.
func (s *Store) LoadSeries(runID string) (*coupling.Result, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	res, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if meta, err := s.Load(runID); err == nil {
		res.Metrics = meta.Metrics
	}
	return res, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
