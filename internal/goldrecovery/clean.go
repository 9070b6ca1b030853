package goldrecovery

import (
	"github.com/go-gota/gota/dataframe"

	"mlprep/internal/dataprocessing"
)

// Config drives cleaning and target selection.
type Config struct {
	Target            string  `validate:"required,oneof=rougher.output.recovery final.output.recovery"`
	MaxNullFraction   float64 `validate:"gte=0,lte=1"`
	DropOutputColumns bool
}

// DefaultConfig targets final recovery, drops >60% null columns and keeps
// process outputs out of the features.
func DefaultConfig() Config {
	return Config{
		Target:            FinalRecovery,
		MaxNullFraction:   dataprocessing.DefaultMaxNullFraction,
		DropOutputColumns: true,
	}
}

// BasicClean drops mostly-empty columns, removes rows whose recorded
// recovery is missing or outside [0, 100], drops rows with an unparsable
// date and orders the rest by date.
// The date and recovery columns are never dropped.
func BasicClean(df dataframe.DataFrame, cfg Config) (dataframe.DataFrame, dataprocessing.CleaningReport) {
	report := dataprocessing.CleaningReport{RowsIn: df.Nrow()}

	protected := append([]string{DateColumn}, RecoveryTargets...)
	df, report.DroppedColumns = dataprocessing.DropHighNullColumns(df, cfg.MaxNullFraction, protected...)

	for _, target := range RecoveryTargets {
		df, _ = dataprocessing.FilterRange(df, target, 0, 100)
	}

	if dataprocessing.HasColumn(df, DateColumn) {
		df, _ = dataprocessing.DropUnparsableTimestamps(df, DateColumn)
		df = dataprocessing.SortByTime(df, DateColumn)
	}

	report.RowsOut = df.Nrow()
	return df, report
}

// FillMissingWithMedian fills every numeric gap with its column median.
func FillMissingWithMedian(df dataframe.DataFrame) (dataframe.DataFrame, map[string]int) {
	return dataprocessing.FillMissingWithMedian(df)
}
