package oilwell

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"

	"mlprep/internal/dataprocessing"
	"mlprep/internal/seed"
)

// Default column names of a region survey.
const (
	IDColumn      = "id"
	ProductColumn = "product"
)

// FeatureColumns are the anonymised geological measurements.
var FeatureColumns = []string{"f0", "f1", "f2"}

// LoadRegion reads one region's survey; features and product become floats.
func LoadRegion(path string) (dataframe.DataFrame, error) {
	df, err := dataprocessing.ReadTable(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load region: %w", err)
	}
	df = dataprocessing.NormalizeColumnNames(df)
	return dataprocessing.CoerceFloat(df, append(FeatureColumns, ProductColumn)...), nil
}

// CleanDeduplicateAndShuffle drops rows without a target or an id, keeps
// the row with the largest target for every id and shuffles the survivors
// with a generator seeded by seedValue. Among equal targets the first row
// wins. When nothing survives the result has df's columns and no rows.
func CleanDeduplicateAndShuffle(df dataframe.DataFrame, idCol, targetCol string, seedValue int64) (dataframe.DataFrame, error) {
	if err := dataprocessing.RequireColumns(df, idCol, targetCol); err != nil {
		return dataframe.DataFrame{}, err
	}

	ids := dataprocessing.StringValues(df, idCol)
	target := dataprocessing.FloatValues(df, targetCol)
	noID := dataprocessing.MissingMask(df.Col(idCol))

	best := make(map[string]int, len(ids))
	order := make([]string, 0, len(ids))
	for i, id := range ids {
		if noID[i] || math.IsNaN(target[i]) {
			continue
		}
		j, seen := best[id]
		if !seen {
			best[id] = i
			order = append(order, id)
			continue
		}
		if target[i] > target[j] {
			best[id] = i
		}
	}

	idx := make([]int, len(order))
	for k, id := range order {
		idx[k] = best[id]
	}
	rng := seed.New(seedValue)
	rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
	return dataprocessing.SelectRows(df, idx), nil
}

// SplitFeaturesTarget returns the feature columns in the requested order and
// the target as a slice.
func SplitFeaturesTarget(df dataframe.DataFrame, featureCols []string, targetCol string) (dataframe.DataFrame, []float64, error) {
	if err := dataprocessing.RequireColumns(df, append(append([]string(nil), featureCols...), targetCol)...); err != nil {
		return dataframe.DataFrame{}, nil, err
	}
	return dataprocessing.SelectColumns(df, featureCols...), dataprocessing.FloatValues(df, targetCol), nil
}
