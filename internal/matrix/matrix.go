// Package matrix loads time-major probability matrices from JSON and CSV
// files and validates their shape before decoding.
package matrix

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Matrix is a dense time-major probability matrix. Data holds TimeDim rows
// of ClassDim posteriors each, row-contiguous.
type Matrix struct {
	Data     []float64
	TimeDim  int
	ClassDim int
}

// Row returns the t-th timestep as a slice into Data.
func (m *Matrix) Row(t int) []float64 {
	return m.Data[t*m.ClassDim : (t+1)*m.ClassDim]
}

// Load reads a matrix file, dispatching on the file extension. Supported
// extensions are .json and .csv.
func Load(path string) (*Matrix, error) {
	return load(path, true)
}

// LoadFeatures reads a matrix file without the probability range check.
// Feature matrices fed to an acoustic model may hold arbitrary finite
// values.
func LoadFeatures(path string) (*Matrix, error) {
	return load(path, false)
}

func load(path string, probs bool) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix file: %w", err)
	}
	defer f.Close()

	var rows [][]float64
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		rows, err = parseJSON(f)
	case ".csv":
		rows, err = parseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported matrix format %q (want .json or .csv)", ext)
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows, probs)
}

// LoadJSON parses a matrix from a JSON 2D array of rows, one row per
// timestep.
func LoadJSON(r io.Reader) (*Matrix, error) {
	rows, err := parseJSON(r)
	if err != nil {
		return nil, err
	}
	return fromRows(rows, true)
}

func parseJSON(r io.Reader) ([][]float64, error) {
	var rows [][]float64
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse matrix JSON: %w", err)
	}
	return rows, nil
}

// LoadCSV parses a matrix from CSV, one timestep per record.
func LoadCSV(r io.Reader) (*Matrix, error) {
	rows, err := parseCSV(r)
	if err != nil {
		return nil, err
	}
	return fromRows(rows, true)
}

func parseCSV(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for lineNo := 1; ; lineNo++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read matrix CSV: %w", err)
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q at row %d, column %d: %w", field, lineNo, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func fromRows(rows [][]float64, probs bool) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	classDim := len(rows[0])
	if classDim == 0 {
		return nil, fmt.Errorf("matrix row 1 is empty")
	}
	data := make([]float64, 0, len(rows)*classDim)
	for i, row := range rows {
		if len(row) != classDim {
			return nil, fmt.Errorf("ragged matrix: row %d has %d columns, expected %d", i+1, len(row), classDim)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite value at row %d, column %d", i+1, j+1)
			}
			if probs && v < 0 {
				return nil, fmt.Errorf("negative probability %g at row %d, column %d", v, i+1, j+1)
			}
		}
		data = append(data, row...)
	}
	return &Matrix{Data: data, TimeDim: len(rows), ClassDim: classDim}, nil
}

// distributionTolerance bounds how far a row sum may drift from 1 before
// CheckDistributions flags it.
const distributionTolerance = 1e-3

// CheckDistributions warns about rows whose probabilities do not sum to 1.
// Drifted rows still decode; the warning points at upstream softmax issues.
func (m *Matrix) CheckDistributions(logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	flagged := 0
	for t := 0; t < m.TimeDim; t++ {
		sum := 0.0
		for _, v := range m.Row(t) {
			sum += v
		}
		if math.Abs(sum-1) > distributionTolerance {
			if flagged == 0 {
				logger.Warn("matrix row is not a probability distribution",
					"row", t,
					"sum", sum)
			}
			flagged++
		}
	}
	if flagged > 1 {
		logger.Warn("additional non-normalized rows", "count", flagged-1)
	}
	return flagged
}
