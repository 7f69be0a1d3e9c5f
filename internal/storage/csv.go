package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/sootsim/internal/coupling"
)

func columns(res *coupling.Result) [][]float64 {
	return [][]float64{
		res.Times, res.Temperature, res.Pressure, res.InternalEnergy,
		res.NumberDensity, res.VolumeFraction, res.Residual, res.ReactorPrecursor,
	}
}

// WriteCSV writes the result with a Columns header, one row per time.
func WriteCSV(w io.Writer, res *coupling.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	cols := columns(res)
	row := make([]string, len(cols))
	for i := 0; i < res.Len(); i++ {
		for j, col := range cols {
			row[j] = formatFloat(col[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses what WriteCSV wrote. Columns may come in any order but all
// of them must be present.
func ReadCSV(r io.Reader) (*coupling.Result, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}
	for _, name := range Columns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	n := len(records) - 1
	res := &coupling.Result{
		Times:            make([]float64, n),
		Temperature:      make([]float64, n),
		Pressure:         make([]float64, n),
		InternalEnergy:   make([]float64, n),
		NumberDensity:    make([]float64, n),
		VolumeFraction:   make([]float64, n),
		Residual:         make([]float64, n),
		ReactorPrecursor: make([]float64, n),
		Steps:            max(n-1, 0),
	}
	cols := columns(res)
	for i, record := range records[1:] {
		for j, name := range Columns {
			v, err := strconv.ParseFloat(record[index[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, name, err)
			}
			cols[j][i] = v
		}
	}
	return res, nil
}
