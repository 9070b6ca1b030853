package dataprocessing

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp layouts found in the raw exports.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// CalendarFields are the calendar-derived features.
type CalendarFields struct {
	Hour      int // 0-23
	DayOfWeek int // Monday=0 .. Sunday=6
	Month     int // 1-12
}

// CalendarOf extracts CalendarFields from t.
func CalendarOf(t time.Time) CalendarFields {
	return CalendarFields{
		Hour:      t.Hour(),
		DayOfWeek: DayOfWeek(t),
		Month:     int(t.Month()),
	}
}

// DayOfWeek numbers days Monday=0 through Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	return DayOfWeek(t) >= 5
}

// ParseTimestampColumn parses a column; ok[i] is false for cells that failed.
func ParseTimestampColumn(df dataframe.DataFrame, col string) (times []time.Time, ok []bool) {
	raw := StringValues(df, col)
	times = make([]time.Time, len(raw))
	ok = make([]bool, len(raw))
	for i, r := range raw {
		if t, err := ParseTimestamp(r); err == nil {
			times[i], ok[i] = t, true
		}
	}
	return times, ok
}

// SortByTime orders rows by a timestamp column. The sort is stable and
// unparsable timestamps go last.
func SortByTime(df dataframe.DataFrame, col string) dataframe.DataFrame {
	if !HasColumn(df, col) {
		return df
	}
	times, ok := ParseTimestampColumn(df, col)
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if ok[ia] != ok[ib] {
			return ok[ia]
		}
		return ok[ia] && times[ia].Before(times[ib])
	})
	return SelectRows(df, idx)
}

// CalendarColumns adds hour, day_of_week and month derived from col.
// Unparsable timestamps leave NaN in every derived column.
func CalendarColumns(df dataframe.DataFrame, col string) dataframe.DataFrame {
	times, ok := ParseTimestampColumn(df, col)
	hours := make([]float64, len(times))
	days := make([]float64, len(times))
	months := make([]float64, len(times))
	for i, t := range times {
		if !ok[i] {
			hours[i], days[i], months[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		cf := CalendarOf(t)
		hours[i], days[i], months[i] = float64(cf.Hour), float64(cf.DayOfWeek), float64(cf.Month)
	}
	df = WithFloatColumn(df, "hour", hours)
	df = WithFloatColumn(df, "day_of_week", days)
	return WithFloatColumn(df, "month", months)
}

// DropUnparsableTimestamps removes rows whose col cannot be parsed and
// returns how many were removed.
func DropUnparsableTimestamps(df dataframe.DataFrame, col string) (dataframe.DataFrame, int) {
	if !HasColumn(df, col) {
		return df, 0
	}
	_, ok := ParseTimestampColumn(df, col)
	return KeepRows(df, ok)
}
