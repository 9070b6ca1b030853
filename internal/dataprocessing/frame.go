package dataprocessing

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	apperrors "mlprep/internal/errors"
)

// DefaultNaNValues are the raw tokens treated as missing on load.
var DefaultNaNValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "<nil>"}

// loadOptions reads every column as a string; numeric columns are coerced
// explicitly by the project loaders so the schema never depends on sniffing.
func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(DefaultNaNValues),
		dataframe.HasHeader(true),
	}
}

// ReadCSV loads a CSV stream with a header row.
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r, loadOptions()...)
	if df.Err != nil {
		return df, apperrors.NewParsingError("read csv", df.Err)
	}
	return df, nil
}

// ReadCSVFile loads a CSV file. A missing file yields an error satisfying
// errors.Is(err, fs.ErrNotExist).
func ReadCSVFile(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	df, err := ReadCSV(f)
	if err != nil {
		return df, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// ReadXLSXFile loads one sheet of a workbook; the first row is the header.
// An empty sheet name selects the first sheet that has rows.
func ReadXLSXFile(path, sheet string) (dataframe.DataFrame, error) {
	if _, err := os.Stat(path); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, apperrors.NewParsingError("open workbook "+path, err)
	}
	defer f.Close()

	var rows [][]string
	if sheet != "" {
		rows, err = f.GetRows(sheet)
		if err != nil {
			return dataframe.DataFrame{}, apperrors.NewParsingError("read sheet "+sheet, err)
		}
	} else {
		for _, name := range f.GetSheetList() {
			candidate, err := f.GetRows(name)
			if err == nil && len(candidate) > 0 {
				rows = candidate
				break
			}
		}
	}

	if len(rows) == 0 {
		return dataframe.DataFrame{}, apperrors.NewParsingError("workbook "+path+" has no data rows", nil)
	}

	// excelize omits trailing empty cells; pad to the header width.
	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		} else if len(row) > width {
			rows[i] = row[:width]
		}
	}

	df := dataframe.LoadRecords(rows, loadOptions()...)
	if df.Err != nil {
		return df, apperrors.NewParsingError("load workbook "+path, df.Err)
	}
	return df, nil
}

// TableExtensions are the input formats ReadTable understands.
var TableExtensions = []string{".csv", ".xlsx", ".xlsm"}

// ReadTable dispatches on the file extension.
func ReadTable(path string) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSXFile(path, "")
	case ".csv", ".txt", "":
		return ReadCSVFile(path)
	default:
		return dataframe.DataFrame{}, apperrors.NewAppValidationError(
			fmt.Sprintf("unsupported table format %q (want %s)", filepath.Ext(path), strings.Join(TableExtensions, ", ")))
	}
}

// NormalizeColumnName lowercases, trims and snake-cases inner whitespace.
func NormalizeColumnName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// NormalizeColumnNames applies NormalizeColumnName to every column.
func NormalizeColumnNames(df dataframe.DataFrame) dataframe.DataFrame {
	names := df.Names()
	cols := make([]series.Series, len(names))
	for i, name := range names {
		s := df.Col(name).Copy()
		s.Name = NormalizeColumnName(name)
		cols[i] = s
	}
	return dataframe.New(cols...)
}

// HasColumn reports whether df has a column called name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the subset of cols absent from df, in order.
func MissingColumns(df dataframe.DataFrame, cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !HasColumn(df, c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// RequireColumns returns a schema error naming every absent column.
func RequireColumns(df dataframe.DataFrame, cols ...string) error {
	if missing := MissingColumns(df, cols...); len(missing) > 0 {
		return apperrors.NewSchemaError(missing)
	}
	return nil
}

// IsNumeric reports whether a series holds numbers.
func IsNumeric(s series.Series) bool {
	return s.Type() == series.Float || s.Type() == series.Int
}

// NumericColumns lists Float and Int columns in frame order.
func NumericColumns(df dataframe.DataFrame) []string {
	var out []string
	for _, name := range df.Names() {
		if IsNumeric(df.Col(name)) {
			out = append(out, name)
		}
	}
	return out
}

// ParseFloat parses a raw cell; anything unparsable is NaN.
func ParseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// CoerceFloat converts the named columns to Float. Absent columns are ignored
// and unparsable cells become NaN.
func CoerceFloat(df dataframe.DataFrame, cols ...string) dataframe.DataFrame {
	for _, c := range cols {
		if !HasColumn(df, c) || df.Col(c).Type() == series.Float {
			continue
		}
		raw := StringValues(df, c)
		vals := make([]float64, len(raw))
		for i, r := range raw {
			vals[i] = ParseFloat(r)
		}
		df = WithFloatColumn(df, c, vals)
	}
	return df
}

// CoerceAllFloatExcept converts every column not listed in keep to Float.
func CoerceAllFloatExcept(df dataframe.DataFrame, keep ...string) dataframe.DataFrame {
	skip := make(map[string]bool, len(keep))
	for _, k := range keep {
		skip[k] = true
	}
	var cols []string
	for _, name := range df.Names() {
		if !skip[name] {
			cols = append(cols, name)
		}
	}
	return CoerceFloat(df, cols...)
}

// FloatValues returns a column as float64 with NaN for missing cells.
func FloatValues(df dataframe.DataFrame, col string) []float64 {
	s := df.Col(col)
	if s.Type() == series.String {
		raw := StringValues(df, col)
		out := make([]float64, len(raw))
		for i, r := range raw {
			out[i] = ParseFloat(r)
		}
		return out
	}
	out := s.Float()
	for i := range out {
		if s.Elem(i).IsNA() {
			out[i] = math.NaN()
		}
	}
	return out
}

// StringValues returns a column as strings with "" for missing cells.
func StringValues(df dataframe.DataFrame, col string) []string {
	s := df.Col(col)
	out := make([]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		out[i] = e.String()
	}
	return out
}

// WithFloatColumn sets (or replaces) a Float column.
func WithFloatColumn(df dataframe.DataFrame, name string, vals []float64) dataframe.DataFrame {
	return df.Mutate(series.New(vals, series.Float, name))
}

// WithIntColumn sets (or replaces) an Int column.
func WithIntColumn(df dataframe.DataFrame, name string, vals []int) dataframe.DataFrame {
	return df.Mutate(series.New(vals, series.Int, name))
}

// WithStringColumn sets (or replaces) a String column.
func WithStringColumn(df dataframe.DataFrame, name string, vals []string) dataframe.DataFrame {
	return df.Mutate(series.New(vals, series.String, name))
}

// DropColumns removes the named columns; absent names are ignored.
func DropColumns(df dataframe.DataFrame, cols ...string) dataframe.DataFrame {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	var keep []string
	for _, name := range df.Names() {
		if !drop[name] {
			keep = append(keep, name)
		}
	}
	if len(keep) == df.Ncol() {
		return df
	}
	return SelectColumns(df, keep...)
}

// SelectColumns returns the named columns in the given order.
func SelectColumns(df dataframe.DataFrame, cols ...string) dataframe.DataFrame {
	picked := make([]series.Series, 0, len(cols))
	for _, c := range cols {
		picked = append(picked, df.Col(c))
	}
	if len(picked) == 0 {
		return dataframe.DataFrame{}
	}
	return dataframe.New(picked...)
}

// SelectRows returns the rows at idx, in idx order.
func SelectRows(df dataframe.DataFrame, idx []int) dataframe.DataFrame {
	if len(idx) == df.Nrow() {
		identity := true
		for i, v := range idx {
			if v != i {
				identity = false
				break
			}
		}
		if identity {
			return df
		}
	}
	return df.Subset(idx)
}

// KeepRows returns the rows whose mask entry is true.
func KeepRows(df dataframe.DataFrame, mask []bool) (dataframe.DataFrame, int) {
	idx := make([]int, 0, len(mask))
	for i, ok := range mask {
		if ok {
			idx = append(idx, i)
		}
	}
	return SelectRows(df, idx), len(mask) - len(idx)
}
