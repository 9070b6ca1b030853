package gaming

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlprep/internal/dataprocessing"
	apperrors "mlprep/internal/errors"
	"mlprep/internal/shared/testutil"
)

var rawHeader = []string{
	"Name", "Platform", "Year_of_Release", "Genre", "NA_Sales", "EU_Sales",
	"JP_Sales", "Other_Sales", "Critic_Score", "User_Score", "Rating",
}

func rawGames(t *testing.T) dataframe.DataFrame {
	t.Helper()
	path := testutil.WriteCSV(t, t.TempDir(), "games.csv", rawHeader,
		[]string{"Game A", "PS4", "2015", "Action", "3.5", "2.8", "0.3", "1.0", "92", "8.5", "M"},
		[]string{"Game B", "XOne", "2014", "Shooter", "2.1", "1.5", "0.1", "0.5", "85", "7.0", "T"},
		[]string{"Game C", "PC", "2016", "RPG", "0.5", "0.8", "0.0", "0.2", "88", "8.2", "M"},
		[]string{"Game D", "PS4", "2015", "Sports", "1.8", "1.2", "0.1", "0.4", "78", "6.5", "E"},
		[]string{"Game E", "3DS", "2013", "RPG", "0.3", "0.1", "2.5", "0.1", "86", "8.0", "E"},
		[]string{"Game F", "PC", "2016", "Action", "0.1", "0.2", "0.0", "0.05", "72", "5.5", "T"},
	)
	df, err := LoadRawDataset(path)
	require.NoError(t, err)
	return df
}

func TestLoadRawDataset_ComputesTotalSales(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "games.csv", rawHeader,
		[]string{"G1", "PS4", "2015", "Action", "3.0", "2.0", "1.0", "0.5", "90", "8.0", "M"},
	)

	df, err := LoadRawDataset(path)
	require.NoError(t, err)

	require.True(t, dataprocessing.HasColumn(df, TotalSalesColumn))
	assert.InDelta(t, 6.5, dataprocessing.FloatValues(df, TotalSalesColumn)[0], 1e-12)
	assert.Contains(t, df.Names(), "year_of_release")
}

func TestLoadRawDataset_TBDUserScore(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "games.csv", rawHeader,
		[]string{"G1", "PS4", "2015", "Action", "1.0", "0.5", "0.1", "0.1", "85", "8.5", "M"},
		[]string{"G2", "PC", "2016", "RPG", "0.5", "0.3", "", "0.05", "80", "tbd", "T"},
	)

	df, err := LoadRawDataset(path)
	require.NoError(t, err)

	scores := dataprocessing.FloatValues(df, UserScore)
	assert.InDelta(t, 8.5, scores[0], 1e-12)
	assert.True(t, math.IsNaN(scores[1]))
	assert.InDelta(t, 0.85, dataprocessing.FloatValues(df, TotalSalesColumn)[1], 1e-12,
		"missing regional sales count as zero")
}

func TestWithTotalSales_MissingRegion(t *testing.T) {
	df, err := dataprocessing.ReadCSV(strings.NewReader("na_sales,eu_sales\n1,2\n"))
	require.NoError(t, err)

	_, err = WithTotalSales(df)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), "jp_sales")
}

func TestMakeFeaturesAndTarget_BinaryThreshold(t *testing.T) {
	cfg := DefaultPreprocessConfig()
	cfg.TargetThresholdMillion = 2.0

	_, y, err := MakeFeaturesAndTarget(rawGames(t), cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 0, 1, 1, 0}, y)
}

func TestMakeFeaturesAndTarget_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		sales     []string
		threshold float64
		want      int
	}{
		{"exactly at threshold", []string{"1.0", "1.0", "0", "0"}, 2, 1},
		{"spread to threshold", []string{"0.5", "0.5", "0.5", "0.5"}, 2, 1},
		{"just below", []string{"1.0", "0.5", "0.25", "0.24"}, 2, 0},
		{"fractional threshold", []string{"0.25", "0.25", "0", "0"}, 0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := append([]string{"G1", "PS4", "2015", "Action"}, tt.sales...)
			row = append(row, "80", "7.5", "E")
			df, err := LoadRawDataset(testutil.WriteCSV(t, t.TempDir(), "games.csv", rawHeader, row))
			require.NoError(t, err)

			cfg := DefaultPreprocessConfig()
			cfg.TargetThresholdMillion = tt.threshold
			_, y, err := MakeFeaturesAndTarget(df, cfg)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want}, y)
		})
	}
}

func TestMakeFeaturesAndTarget_ExcludesSalesColumns(t *testing.T) {
	X, _, err := MakeFeaturesAndTarget(rawGames(t), DefaultPreprocessConfig())
	require.NoError(t, err)

	names := X.Names()
	for _, col := range append([]string{TotalSalesColumn, NameColumn}, RegionalSales...) {
		assert.NotContains(t, names, col)
	}
	assert.ElementsMatch(t, []string{
		PlatformColumn, YearColumn, GenreColumn, CriticScore, UserScore, RatingColumn,
	}, names)
}

func TestMakeFeaturesAndTarget_Shapes(t *testing.T) {
	df := rawGames(t)

	X, y, err := MakeFeaturesAndTarget(df, DefaultPreprocessConfig())
	require.NoError(t, err)

	assert.Equal(t, df.Nrow(), X.Nrow())
	assert.Len(t, y, df.Nrow())
}

func TestMakeFeaturesAndTarget_MinYear(t *testing.T) {
	cfg := DefaultPreprocessConfig()
	cfg.MinYear = 2015

	X, y, err := MakeFeaturesAndTarget(rawGames(t), cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, X.Nrow())
	assert.Len(t, y, 4)
}

func TestMakeFeaturesAndTarget_InvalidConfig(t *testing.T) {
	cfg := DefaultPreprocessConfig()
	cfg.TargetThresholdMillion = 0

	_, _, err := MakeFeaturesAndTarget(rawGames(t), cfg)
	require.Error(t, err)
}

func TestBuildPreprocessor_Fits(t *testing.T) {
	cfg := DefaultPreprocessConfig()
	X, _, err := MakeFeaturesAndTarget(rawGames(t), cfg)
	require.NoError(t, err)

	pre, err := BuildPreprocessor(X, cfg)
	require.NoError(t, err)

	out, err := pre.FitTransform(X)
	require.NoError(t, err)

	rows, cols := out.Dims()
	assert.Equal(t, X.Nrow(), rows)
	assert.Greater(t, cols, 0)
	assert.Len(t, pre.FeatureNames(), cols)
}

func TestBuildPreprocessor_HandlesMissingValues(t *testing.T) {
	df, err := dataprocessing.ReadCSV(strings.NewReader(
		"platform,year_of_release,genre,critic_score,user_score,rating\n" +
			"PS4,2015,Action,90,8.5,M\n" +
			"PC,NA,RPG,NA,7.0,T\n" +
			"NA,2016,Action,85,NA,E\n"))
	require.NoError(t, err)
	df = dataprocessing.CoerceFloat(df, YearColumn, CriticScore, UserScore)

	pre, err := BuildPreprocessor(df, DefaultPreprocessConfig())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{YearColumn, CriticScore, UserScore}, pre.NumericColumns)

	out, err := pre.FitTransform(df)
	require.NoError(t, err)

	rows, cols := out.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.False(t, math.IsNaN(out.At(i, j)), "NaN at (%d,%d)", i, j)
		}
	}
}

func TestPreprocessConfigDefaults(t *testing.T) {
	cfg := DefaultPreprocessConfig()

	assert.Equal(t, "median", cfg.NumericImputerStrategy)
	assert.Equal(t, "most_frequent", cfg.CategoricalImputerStrategy)
	assert.True(t, cfg.ScaleNumeric)
	assert.Equal(t, 1.0, cfg.TargetThresholdMillion)
	assert.NoError(t, cfg.Validate())

	cfg.CategoricalImputerStrategy = "median"
	assert.Error(t, cfg.Validate())
}
