package gaming

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"mlprep/internal/dataprocessing"
)

// Column names after normalization.
const (
	NameColumn       = "name"
	PlatformColumn   = "platform"
	YearColumn       = "year_of_release"
	GenreColumn      = "genre"
	CriticScore      = "critic_score"
	UserScore        = "user_score"
	RatingColumn     = "rating"
	TotalSalesColumn = "total_sales"

	// TargetName labels the binary hit target in exports.
	TargetName = "is_hit"
)

// RegionalSales are summed into total_sales.
var RegionalSales = []string{"na_sales", "eu_sales", "jp_sales", "other_sales"}

var numericColumns = append([]string{YearColumn, CriticScore, UserScore}, RegionalSales...)

// LoadRawDataset reads the games table, normalizes headers, turns "tbd"
// user scores into NaN and adds total_sales.
func LoadRawDataset(path string) (dataframe.DataFrame, error) {
	df, err := dataprocessing.ReadTable(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load games dataset: %w", err)
	}
	df = dataprocessing.NormalizeColumnNames(df)

	if dataprocessing.HasColumn(df, UserScore) {
		raw := dataprocessing.StringValues(df, UserScore)
		for i, v := range raw {
			if strings.EqualFold(strings.TrimSpace(v), "tbd") {
				raw[i] = ""
			}
		}
		df = dataprocessing.WithStringColumn(df, UserScore, raw)
	}
	df = dataprocessing.CoerceFloat(df, numericColumns...)

	return WithTotalSales(df)
}

// WithTotalSales sets total_sales to the sum of the regional columns.
// Missing regional values count as zero.
func WithTotalSales(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := dataprocessing.RequireColumns(df, RegionalSales...); err != nil {
		return dataframe.DataFrame{}, err
	}
	total := make([]float64, df.Nrow())
	for _, col := range RegionalSales {
		for i, v := range dataprocessing.FloatValues(df, col) {
			if !math.IsNaN(v) {
				total[i] += v
			}
		}
	}
	return dataprocessing.WithFloatColumn(df, TotalSalesColumn, total), nil
}

// MakeFeaturesAndTarget labels each title 1 when total_sales reaches the
// configured threshold and removes sales and identity columns from X.
func MakeFeaturesAndTarget(df dataframe.DataFrame, cfg PreprocessConfig) (dataframe.DataFrame, []int, error) {
	if err := cfg.Validate(); err != nil {
		return dataframe.DataFrame{}, nil, err
	}
	if !dataprocessing.HasColumn(df, TotalSalesColumn) {
		var err error
		if df, err = WithTotalSales(df); err != nil {
			return dataframe.DataFrame{}, nil, err
		}
	}

	if cfg.MinYear > 0 && dataprocessing.HasColumn(df, YearColumn) {
		years := dataprocessing.FloatValues(df, YearColumn)
		mask := make([]bool, len(years))
		for i, y := range years {
			mask[i] = math.IsNaN(y) || y >= float64(cfg.MinYear)
		}
		df, _ = dataprocessing.KeepRows(df, mask)
	}

	sales := dataprocessing.FloatValues(df, TotalSalesColumn)
	y := make([]int, len(sales))
	for i, s := range sales {
		if s >= cfg.TargetThresholdMillion {
			y[i] = 1
		}
	}

	drop := append([]string{NameColumn, TotalSalesColumn}, RegionalSales...)
	return dataprocessing.DropColumns(df, drop...), y, nil
}

// BuildPreprocessor assembles the imputation, scaling and one-hot pipeline
// for X. The result is unfitted.
func BuildPreprocessor(X dataframe.DataFrame, cfg PreprocessConfig) (*dataprocessing.ColumnPreprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return dataprocessing.BuildPreprocessor(X, cfg.options())
}
