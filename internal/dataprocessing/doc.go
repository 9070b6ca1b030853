// Package dataprocessing holds the tabular building blocks shared by every
// preprocessing project.
//
// # Components
//
//  1. Loading: ReadCSVFile, ReadXLSXFile and ReadTable load raw tables as
//     all-string gota DataFrames; CoerceFloat converts the columns a project
//     knows to be numeric.
//  2. Cleaning: DropHighNullColumns, FilterRange, DropRowsWithMissing and
//     FillMissingWithMedian, summarised in a CleaningReport.
//  3. Features: ParseTimestamp, CalendarOf and CalendarColumns derive hour,
//     day_of_week (Monday=0) and month.
//  4. Preprocessing: ColumnPreprocessor combines NumericImputer,
//     StandardScaler, CategoricalImputer and OneHotEncoder and produces a
//     gonum *mat.Dense.
//
// # Usage
//
//	df, err := dataprocessing.ReadTable("games.csv")
//	df = dataprocessing.CoerceFloat(df, "year_of_release", "critic_score")
//	pre, err := dataprocessing.BuildPreprocessor(df, dataprocessing.DefaultPreprocessorOptions())
//	X, err := pre.FitTransform(df)
//
// Missing values are NaN in numeric columns and "" (or gota NA) in string
// columns throughout.
package dataprocessing
