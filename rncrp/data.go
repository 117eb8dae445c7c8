package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// readObservations loads a headerless CSV of floats, one observation
// per row.
func readObservations(fn string) (*mat.Dense, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseObservations(f)
}

func parseObservations(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	var data []float64
	rows, cols := 0, 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if cols == 0 {
			cols = len(record)
		} else if len(record) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", rows+1, len(record), cols)
		}
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %v", rows+1, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, fmt.Errorf("no observations")
	}
	return mat.NewDense(rows, cols, data), nil
}

// readTimes loads a single-column CSV of observation arrival times.
func readTimes(fn string, numObs int) ([]float64, error) {
	m, err := readObservations(fn)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Dims()
	if cols != 1 {
		return nil, fmt.Errorf("times file must have a single column, got %d", cols)
	}
	if rows != numObs {
		return nil, fmt.Errorf("got %d times for %d observations", rows, numObs)
	}
	times := make([]float64, rows)
	mat.Col(times, 0, m)
	return times, nil
}
