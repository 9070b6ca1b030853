package dataprocessing

import (
	"fmt"
	"math"
	"strings"
)

// ImputeStrategy names how missing values are filled.
type ImputeStrategy string

const (
	StrategyMedian       ImputeStrategy = "median"
	StrategyMean         ImputeStrategy = "mean"
	StrategyMostFrequent ImputeStrategy = "most_frequent"
	StrategyConstant     ImputeStrategy = "constant"
)

// ErrNotFitted is returned when Transform runs before Fit.
var ErrNotFitted = fmt.Errorf("transformer is not fitted")

// NumericImputer learns one fill statistic per column.
type NumericImputer struct {
	Strategy  ImputeStrategy
	FillValue float64

	Statistics []float64
}

// NewNumericImputer validates the strategy.
func NewNumericImputer(strategy ImputeStrategy, fill float64) (*NumericImputer, error) {
	switch strategy {
	case StrategyMedian, StrategyMean, StrategyMostFrequent, StrategyConstant:
	default:
		return nil, fmt.Errorf("unsupported numeric imputer strategy %q", strategy)
	}
	return &NumericImputer{Strategy: strategy, FillValue: fill}, nil
}

// Fit learns statistics from column-major data. A column with no present
// values falls back to 0 so Transform never emits NaN.
func (imp *NumericImputer) Fit(cols [][]float64) error {
	stats := make([]float64, len(cols))
	for j, col := range cols {
		var v float64
		switch imp.Strategy {
		case StrategyMedian:
			v = Median(col)
		case StrategyMean:
			v = Mean(col)
		case StrategyMostFrequent:
			v = MostFrequentFloat(col)
		case StrategyConstant:
			v = imp.FillValue
		}
		if math.IsNaN(v) {
			v = 0
		}
		stats[j] = v
	}
	imp.Statistics = stats
	return nil
}

// Transform returns a filled copy of cols.
func (imp *NumericImputer) Transform(cols [][]float64) ([][]float64, error) {
	if imp.Statistics == nil {
		return nil, ErrNotFitted
	}
	if len(cols) != len(imp.Statistics) {
		return nil, fmt.Errorf("numeric imputer fitted on %d columns, got %d", len(imp.Statistics), len(cols))
	}
	out := make([][]float64, len(cols))
	for j, col := range cols {
		filled := make([]float64, len(col))
		for i, v := range col {
			if math.IsNaN(v) {
				v = imp.Statistics[j]
			}
			filled[i] = v
		}
		out[j] = filled
	}
	return out, nil
}

// DefaultCategoricalFill is the constant used for categorical gaps.
const DefaultCategoricalFill = "missing"

// CategoricalImputer learns one fill label per column.
type CategoricalImputer struct {
	Strategy  ImputeStrategy
	FillValue string

	Statistics []string
}

// NewCategoricalImputer validates the strategy.
func NewCategoricalImputer(strategy ImputeStrategy, fill string) (*CategoricalImputer, error) {
	switch strategy {
	case StrategyMostFrequent, StrategyConstant:
	default:
		return nil, fmt.Errorf("unsupported categorical imputer strategy %q", strategy)
	}
	if fill == "" {
		fill = DefaultCategoricalFill
	}
	return &CategoricalImputer{Strategy: strategy, FillValue: fill}, nil
}

// Fit learns the fill label for each column.
func (imp *CategoricalImputer) Fit(cols [][]string) error {
	stats := make([]string, len(cols))
	for j, col := range cols {
		v := imp.FillValue
		if imp.Strategy == StrategyMostFrequent {
			if mode := MostFrequent(col); mode != "" {
				v = mode
			}
		}
		stats[j] = v
	}
	imp.Statistics = stats
	return nil
}

// Transform returns a filled copy of cols.
func (imp *CategoricalImputer) Transform(cols [][]string) ([][]string, error) {
	if imp.Statistics == nil {
		return nil, ErrNotFitted
	}
	if len(cols) != len(imp.Statistics) {
		return nil, fmt.Errorf("categorical imputer fitted on %d columns, got %d", len(imp.Statistics), len(cols))
	}
	out := make([][]string, len(cols))
	for j, col := range cols {
		filled := make([]string, len(col))
		for i, v := range col {
			if strings.TrimSpace(v) == "" {
				v = imp.Statistics[j]
			}
			filled[i] = v
		}
		out[j] = filled
	}
	return out, nil
}
