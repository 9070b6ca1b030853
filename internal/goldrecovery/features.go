package goldrecovery

import (
	"math"

	"github.com/go-gota/gota/dataframe"

	"mlprep/internal/dataprocessing"
)

// ratio divides element-wise; a zero or missing denominator gives NaN.
func ratio(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		if den[i] == 0 || math.IsNaN(den[i]) || math.IsNaN(num[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = num[i] / den[i]
	}
	return out
}

// CreateFeatures adds cleaner-to-rougher concentrate ratios for Au and Ag
// when their source columns exist, and hour/day_of_week/month when a date
// column exists.
func CreateFeatures(df dataframe.DataFrame) dataframe.DataFrame {
	for _, feature := range []string{AuRecoveryRatio, AgRecoveryRatio} {
		src := derivedSources[feature]
		if len(dataprocessing.MissingColumns(df, src...)) > 0 {
			continue
		}
		df = dataprocessing.WithFloatColumn(df, feature, ratio(
			dataprocessing.FloatValues(df, src[0]),
			dataprocessing.FloatValues(df, src[1]),
		))
	}

	if dataprocessing.HasColumn(df, DateColumn) {
		df = dataprocessing.CalendarColumns(df, DateColumn)
	}
	return df
}

// LeakageColumns lists the columns of df that must not appear in X when
// predicting cfg.Target: every recovery target, the date, the target's
// formula inputs, process outputs (when cfg.DropOutputColumns) and any
// engineered feature that reads an excluded column.
func LeakageColumns(df dataframe.DataFrame, cfg Config) []string {
	excluded := make(map[string]bool)
	excluded[DateColumn] = true
	for _, t := range RecoveryTargets {
		excluded[t] = true
	}
	excluded[cfg.Target] = true
	for _, in := range FormulaInputs[cfg.Target] {
		excluded[in] = true
	}
	if cfg.DropOutputColumns {
		for _, name := range df.Names() {
			if isProcessOutput(name) {
				excluded[name] = true
			}
		}
	}
	for feature, sources := range derivedSources {
		for _, s := range sources {
			if excluded[s] || isProcessOutput(s) && cfg.DropOutputColumns {
				excluded[feature] = true
			}
		}
	}

	var out []string
	for _, name := range df.Names() {
		if excluded[name] {
			out = append(out, name)
		}
	}
	return out
}

// MakeFeaturesAndTarget splits df into predictors and cfg.Target. Rows with
// a missing target are dropped first.
func MakeFeaturesAndTarget(df dataframe.DataFrame, cfg Config) (dataframe.DataFrame, []float64, error) {
	if err := dataprocessing.RequireColumns(df, cfg.Target); err != nil {
		return dataframe.DataFrame{}, nil, err
	}

	df, _ = dataprocessing.DropRowsWithMissing(df, cfg.Target)
	y := dataprocessing.FloatValues(df, cfg.Target)
	X := dataprocessing.DropColumns(df, LeakageColumns(df, cfg)...)
	return X, y, nil
}
