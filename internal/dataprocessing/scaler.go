package dataprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each column and divides by its population
// standard deviation. Constant columns keep a scale of 1.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Fit learns per-column mean and scale. Input must contain no NaN.
func (s *StandardScaler) Fit(cols [][]float64) error {
	s.Mean = make([]float64, len(cols))
	s.Scale = make([]float64, len(cols))
	for j, col := range cols {
		if len(col) == 0 {
			s.Mean[j], s.Scale[j] = 0, 1
			continue
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Scale[j] = mean, std
	}
	return nil
}

// Transform returns (x - mean) / scale per column.
func (s *StandardScaler) Transform(cols [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	if len(cols) != len(s.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.Mean), len(cols))
	}
	out := make([][]float64, len(cols))
	for j, col := range cols {
		scaled := make([]float64, len(col))
		for i, v := range col {
			scaled[i] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[j] = scaled
	}
	return out, nil
}
