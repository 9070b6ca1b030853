package dataprocessing

import (
	"fmt"
	"sort"
)

// OneHotEncoder expands categorical columns into indicator columns.
// Categories are sorted; values unseen during Fit encode as all zeros.
type OneHotEncoder struct {
	Categories [][]string
}

// Fit records the sorted distinct values of each column.
func (e *OneHotEncoder) Fit(cols [][]string) error {
	e.Categories = make([][]string, len(cols))
	for j, col := range cols {
		seen := make(map[string]bool)
		for _, v := range col {
			seen[v] = true
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}
	return nil
}

// Width is the number of output columns.
func (e *OneHotEncoder) Width() int {
	n := 0
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

// Transform returns column-major indicator columns.
func (e *OneHotEncoder) Transform(cols [][]string) ([][]float64, error) {
	if e.Categories == nil {
		return nil, ErrNotFitted
	}
	if len(cols) != len(e.Categories) {
		return nil, fmt.Errorf("encoder fitted on %d columns, got %d", len(e.Categories), len(cols))
	}
	out := make([][]float64, 0, e.Width())
	for j, col := range cols {
		index := make(map[string]int, len(e.Categories[j]))
		block := make([][]float64, len(e.Categories[j]))
		for k, c := range e.Categories[j] {
			index[c] = k
			block[k] = make([]float64, len(col))
		}
		for i, v := range col {
			if k, ok := index[v]; ok {
				block[k][i] = 1
			}
		}
		out = append(out, block...)
	}
	return out, nil
}

// FeatureNames returns "<input>_<category>" for every output column.
func (e *OneHotEncoder) FeatureNames(inputs []string) []string {
	var names []string
	for j, cats := range e.Categories {
		for _, c := range cats {
			names = append(names, fmt.Sprintf("%s_%s", inputs[j], c))
		}
	}
	return names
}
