package mobility

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"mlprep/internal/dataprocessing"
)

// Input columns of the rides-with-weather extract.
const (
	StartColumn    = "start_ts"
	DurationColumn = "duration_seconds"
	WeatherColumn  = "weather_conditions"
)

// FeatureNames is the exact column order of X.
var FeatureNames = []string{"hour", "day_of_week", "is_weekend", "weather_is_bad"}

// EngineeringReport counts what EngineerFeatures discarded.
type EngineeringReport struct {
	RowsIn              int     `json:"rows_in"`
	RowsOut             int     `json:"rows_out"`
	InvalidTimestamps   int     `json:"invalid_timestamps"`
	InvalidDurations    int     `json:"invalid_durations"`
	BadWeatherFraction  float64 `json:"bad_weather_fraction"`
	MeanDurationSeconds float64 `json:"mean_duration_seconds"`
}

// LoadRawWeatherData reads the rides extract. A missing file yields an
// error wrapping fs.ErrNotExist.
func LoadRawWeatherData(path string) (dataframe.DataFrame, error) {
	df, err := dataprocessing.ReadTable(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load weather rides: %w", err)
	}
	df = dataprocessing.NormalizeColumnNames(df)
	return dataprocessing.CoerceFloat(df, DurationColumn), nil
}

// IsBadWeather matches "Bad" ignoring case and surrounding space.
func IsBadWeather(condition string) bool {
	return strings.EqualFold(strings.TrimSpace(condition), "bad")
}

// EngineerFeatures derives calendar and weather flags for each ride and
// returns the ride duration as the target. Rides with an unparsable start
// or a missing or non-positive duration are dropped.
func EngineerFeatures(df dataframe.DataFrame) (dataframe.DataFrame, []float64, EngineeringReport, error) {
	report := EngineeringReport{RowsIn: df.Nrow()}
	if err := dataprocessing.RequireColumns(df, StartColumn, DurationColumn, WeatherColumn); err != nil {
		return dataframe.DataFrame{}, nil, report, err
	}

	times, ok := dataprocessing.ParseTimestampColumn(df, StartColumn)
	durations := dataprocessing.FloatValues(df, DurationColumn)
	weather := dataprocessing.StringValues(df, WeatherColumn)

	var hour, dow, weekend, bad []int
	var y []float64
	for i := range times {
		if !ok[i] {
			report.InvalidTimestamps++
			continue
		}
		if math.IsNaN(durations[i]) || durations[i] <= 0 {
			report.InvalidDurations++
			continue
		}

		cf := dataprocessing.CalendarOf(times[i])
		hour = append(hour, cf.Hour)
		dow = append(dow, cf.DayOfWeek)
		weekend = append(weekend, boolToInt(dataprocessing.IsWeekend(times[i])))
		bad = append(bad, boolToInt(IsBadWeather(weather[i])))
		y = append(y, durations[i])
	}

	report.RowsOut = len(y)
	if report.RowsOut > 0 {
		report.BadWeatherFraction = float64(sum(bad)) / float64(report.RowsOut)
		report.MeanDurationSeconds = dataprocessing.Mean(y)
	}

	X := dataframe.New(
		series.New(nonNil(hour), series.Int, FeatureNames[0]),
		series.New(nonNil(dow), series.Int, FeatureNames[1]),
		series.New(nonNil(weekend), series.Int, FeatureNames[2]),
		series.New(nonNil(bad), series.Int, FeatureNames[3]),
	)
	if y == nil {
		y = []float64{}
	}
	return X, y, report, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func nonNil(xs []int) []int {
	if xs == nil {
		return []int{}
	}
	return xs
}
