package goldrecovery

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"mlprep/internal/dataprocessing"
)

// LoadProcessData reads a flotation export; every column except date is numeric.
func LoadProcessData(path string) (dataframe.DataFrame, error) {
	df, err := dataprocessing.ReadTable(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load process data: %w", err)
	}
	df = dataprocessing.NormalizeColumnNames(df)
	return dataprocessing.CoerceAllFloatExcept(df, DateColumn), nil
}
