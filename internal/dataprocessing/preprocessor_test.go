package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBuildPreprocessor_FitTransform(t *testing.T) {
	df := mustFrame(t, "score,genre\n1,a\n,\n3,b\n")
	df = CoerceFloat(df, "score")

	pre, err := BuildPreprocessor(df, DefaultPreprocessorOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"score"}, pre.NumericColumns)
	assert.Equal(t, []string{"genre"}, pre.CategoricalColumns)
	assert.False(t, pre.Fitted())

	X, err := pre.FitTransform(df)
	require.NoError(t, err)
	assert.True(t, pre.Fitted())

	rows, cols := X.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"score", "genre_a", "genre_b"}, pre.FeatureNames())

	// score imputed to median 2, then standardised with population std.
	z := 1 / math.Sqrt(2.0/3.0)
	assert.InDelta(t, -z, X.At(0, 0), 1e-9)
	assert.InDelta(t, 0, X.At(1, 0), 1e-9)
	assert.InDelta(t, z, X.At(2, 0), 1e-9)

	// the blank genre takes the mode; a/b tie resolves to "a".
	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 1, X)[1:])

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.False(t, math.IsNaN(X.At(i, j)))
		}
	}
}

func TestColumnPreprocessor_UnknownCategoryEncodesZero(t *testing.T) {
	train := mustFrame(t, "genre\na\nb\n")
	pre, err := BuildPreprocessor(train, DefaultPreprocessorOptions())
	require.NoError(t, err)
	require.NoError(t, pre.Fit(train))

	X, err := pre.Transform(mustFrame(t, "genre\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, mat.Row(nil, 0, X))
}

func TestColumnPreprocessor_NoScaling(t *testing.T) {
	df := CoerceFloat(mustFrame(t, "v\n1\nNA\n5\n"), "v")
	opts := DefaultPreprocessorOptions()
	opts.Scale = false
	opts.NumericStrategy = StrategyMean

	pre, err := BuildPreprocessor(df, opts)
	require.NoError(t, err)
	X, err := pre.FitTransform(df)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5}, mat.Col(nil, 0, X))
}

func TestColumnPreprocessor_ConstantColumnScale(t *testing.T) {
	df := CoerceFloat(mustFrame(t, "v\n4\n4\n"), "v")
	pre, err := BuildPreprocessor(df, DefaultPreprocessorOptions())
	require.NoError(t, err)
	X, err := pre.FitTransform(df)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, mat.Col(nil, 0, X))
}

func TestColumnPreprocessor_Errors(t *testing.T) {
	_, err := NewColumnPreprocessor(nil, nil, DefaultPreprocessorOptions())
	assert.Error(t, err)

	opts := DefaultPreprocessorOptions()
	opts.NumericStrategy = "mode"
	_, err = NewColumnPreprocessor([]string{"a"}, nil, opts)
	assert.Error(t, err)

	opts = DefaultPreprocessorOptions()
	opts.CategoricalStrategy = StrategyMedian
	_, err = NewColumnPreprocessor(nil, []string{"a"}, opts)
	assert.Error(t, err)

	pre, err := NewColumnPreprocessor([]string{"a"}, nil, DefaultPreprocessorOptions())
	require.NoError(t, err)
	_, err = pre.Transform(mustFrame(t, "a\n1\n"))
	assert.ErrorIs(t, err, ErrNotFitted)

	err = pre.Fit(mustFrame(t, "b\n1\n"))
	assert.Error(t, err, "missing fitted column")
}

func TestImputers_AllMissingColumn(t *testing.T) {
	imp, err := NewNumericImputer(StrategyMedian, 0)
	require.NoError(t, err)
	require.NoError(t, imp.Fit([][]float64{{math.NaN(), math.NaN()}}))
	out, err := imp.Transform([][]float64{{math.NaN(), 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2}, out[0])

	cat, err := NewCategoricalImputer(StrategyConstant, "")
	require.NoError(t, err)
	require.NoError(t, cat.Fit([][]string{{"x", ""}}))
	filled, err := cat.Transform([][]string{{"", "y"}})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultCategoricalFill, "y"}, filled[0])
}
