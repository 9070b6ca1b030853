package dataprocessing

import (
	"errors"
	"io/fs"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "mlprep/internal/errors"
	"mlprep/internal/shared/testutil"
)

func mustFrame(t *testing.T, csv string) dataframe.DataFrame {
	t.Helper()
	df, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return df
}

func TestReadCSV_AllStringsWithMissing(t *testing.T) {
	df := mustFrame(t, "a,b\n1,\n2,x\n3,NA\n")

	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, series.String, df.Col("a").Type())
	assert.Equal(t, []string{"", "x", ""}, StringValues(df, "b"))
	assert.Equal(t, []bool{true, false, true}, MissingMask(df.Col("b")))
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Year", "Rating"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Alpha", 2010, "E"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Beta", 2012}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	df, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Year", "Rating"}, df.Names())
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []string{"E", ""}, StringValues(df, "Rating"), "short rows are padded")

	df = CoerceFloat(df, "Year")
	assert.Equal(t, []float64{2010, 2012}, FloatValues(df, "Year"))
}

func TestReadTable_UnsupportedExtension(t *testing.T) {
	_, err := ReadTable("data.parquet")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestReadTable_CSV(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "x.csv", []string{"id", "v"}, []string{"a", "1"})
	df, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1, df.Nrow())
}

func TestNormalizeColumnNames(t *testing.T) {
	df := mustFrame(t, " Name ,NA_Sales,User  Score\nx,1,2\n")
	df = NormalizeColumnNames(df)
	assert.Equal(t, []string{"name", "na_sales", "user_score"}, df.Names())
	assert.Equal(t, []string{"x"}, StringValues(df, "name"))
}

func TestCoerceFloat(t *testing.T) {
	df := mustFrame(t, "v,w\n1.5,a\nabc,b\n,c\n")
	df = CoerceFloat(df, "v", "absent")

	assert.Equal(t, series.Float, df.Col("v").Type())
	assert.Equal(t, series.String, df.Col("w").Type())

	vals := FloatValues(df, "v")
	assert.Equal(t, 1.5, vals[0])
	assert.True(t, math.IsNaN(vals[1]))
	assert.True(t, math.IsNaN(vals[2]))
	assert.Equal(t, []string{"v"}, NumericColumns(df))
}

func TestCoerceAllFloatExcept(t *testing.T) {
	df := mustFrame(t, "date,a,b\n2016-01-15 00:00:00,1,2\n")
	df = CoerceAllFloatExcept(df, "date")
	assert.Equal(t, []string{"a", "b"}, NumericColumns(df))
}

func TestColumnHelpers(t *testing.T) {
	df := mustFrame(t, "a,b,c\n1,2,3\n4,5,6\n7,8,9\n")

	assert.Equal(t, []string{"x", "z"}, MissingColumns(df, "a", "x", "c", "z"))
	assert.NoError(t, RequireColumns(df, "a", "b"))

	err := RequireColumns(df, "a", "q")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	dropped := DropColumns(df, "b", "nope")
	assert.Equal(t, []string{"a", "c"}, dropped.Names())

	rows := SelectRows(df, []int{2, 0})
	assert.Equal(t, []string{"7", "1"}, StringValues(rows, "a"))

	kept, removed := KeepRows(df, []bool{true, false, true})
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"1", "7"}, StringValues(kept, "a"))

	withInt := WithIntColumn(df, "n", []int{1, 2, 3})
	assert.Equal(t, series.Int, withInt.Col("n").Type())
}
