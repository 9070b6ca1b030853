package dataprocessing

import (
	"math"

	"github.com/go-gota/gota/dataframe"
)

// DefaultMaxNullFraction is the share of missing cells above which a column is dropped.
const DefaultMaxNullFraction = 0.6

// CleaningReport summarises what a cleaning pass changed.
type CleaningReport struct {
	RowsIn         int            `json:"rows_in"`
	RowsOut        int            `json:"rows_out"`
	DroppedColumns []string       `json:"dropped_columns,omitempty"`
	FilledCells    map[string]int `json:"filled_cells,omitempty"`
}

// RowsDropped is RowsIn - RowsOut.
func (r CleaningReport) RowsDropped() int {
	return r.RowsIn - r.RowsOut
}

// DropHighNullColumns drops columns whose missing share is strictly greater
// than maxFraction. Columns named in keep are never dropped.
func DropHighNullColumns(df dataframe.DataFrame, maxFraction float64, keep ...string) (dataframe.DataFrame, []string) {
	protected := make(map[string]bool, len(keep))
	for _, k := range keep {
		protected[k] = true
	}

	var dropped []string
	for _, name := range df.Names() {
		if protected[name] {
			continue
		}
		if NullFraction(df.Col(name)) > maxFraction {
			dropped = append(dropped, name)
		}
	}
	if len(dropped) == 0 {
		return df, nil
	}
	return DropColumns(df, dropped...), dropped
}

// FilterRange keeps rows whose value in col is present and within [lo, hi].
// A missing column leaves df unchanged.
func FilterRange(df dataframe.DataFrame, col string, lo, hi float64) (dataframe.DataFrame, int) {
	if !HasColumn(df, col) {
		return df, 0
	}
	vals := FloatValues(df, col)
	mask := make([]bool, len(vals))
	for i, v := range vals {
		mask[i] = !math.IsNaN(v) && v >= lo && v <= hi
	}
	return KeepRows(df, mask)
}

// FilterPositive keeps rows whose value in col is present and > 0.
func FilterPositive(df dataframe.DataFrame, col string) (dataframe.DataFrame, int) {
	if !HasColumn(df, col) {
		return df, 0
	}
	vals := FloatValues(df, col)
	mask := make([]bool, len(vals))
	for i, v := range vals {
		mask[i] = !math.IsNaN(v) && v > 0
	}
	return KeepRows(df, mask)
}

// DropRowsWithMissing removes rows missing a value in any of cols.
func DropRowsWithMissing(df dataframe.DataFrame, cols ...string) (dataframe.DataFrame, int) {
	mask := make([]bool, df.Nrow())
	for i := range mask {
		mask[i] = true
	}
	for _, c := range cols {
		if !HasColumn(df, c) {
			continue
		}
		for i, m := range MissingMask(df.Col(c)) {
			if m {
				mask[i] = false
			}
		}
	}
	return KeepRows(df, mask)
}

// FillMissingWithMedian replaces NaN in every numeric column (except skip)
// with that column's median. Columns with no present values are left as is.
// The returned map counts filled cells per column.
func FillMissingWithMedian(df dataframe.DataFrame, skip ...string) (dataframe.DataFrame, map[string]int) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	filled := make(map[string]int)
	for _, name := range NumericColumns(df) {
		if skipped[name] {
			continue
		}
		vals := FloatValues(df, name)
		med := Median(vals)
		if math.IsNaN(med) {
			continue
		}
		n := 0
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = med
				n++
			}
		}
		if n > 0 {
			df = WithFloatColumn(df, name, vals)
			filled[name] = n
		}
	}
	return df, filled
}
