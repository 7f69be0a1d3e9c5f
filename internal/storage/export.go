package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/sootsim/internal/coupling"
)

type ExportData struct {
	Run              RunMetadata `json:"run"`
	Times            []float64   `json:"times"`
	Temperature      []float64   `json:"temperature"`
	Pressure         []float64   `json:"pressure"`
	InternalEnergy   []float64   `json:"internal_energy"`
	NumberDensity    []float64   `json:"number_density"`
	VolumeFraction   []float64   `json:"volume_fraction"`
	Residual         []float64   `json:"residual"`
	ReactorPrecursor []float64   `json:"precursor"`
}

func NewExportData(meta RunMetadata, res *coupling.Result) ExportData {
	return ExportData{
		Run:              meta,
		Times:            res.Times,
		Temperature:      res.Temperature,
		Pressure:         res.Pressure,
		InternalEnergy:   res.InternalEnergy,
		NumberDensity:    res.NumberDensity,
		VolumeFraction:   res.VolumeFraction,
		Residual:         res.Residual,
		ReactorPrecursor: res.ReactorPrecursor,
	}
}

func WriteJSON(w io.Writer, meta RunMetadata, res *coupling.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, res))
}

// ExportJSON writes a stored run to path, or to stdout when path is empty.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	res, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	if path == "" {
		return WriteJSON(os.Stdout, *meta, res)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, *meta, res)
}

// ExportCSV copies a stored run's series to path.
func (s *Store) ExportCSV(runID, path string) error {
	res, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, res)
}
