package gaming

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"mlprep/internal/dataprocessing"
)

var validate = validator.New()

// PreprocessConfig controls target construction and the feature pipeline.
type PreprocessConfig struct {
	NumericImputerStrategy     string  `validate:"required,oneof=median mean most_frequent constant"`
	CategoricalImputerStrategy string  `validate:"required,oneof=most_frequent constant"`
	ScaleNumeric               bool
	TargetThresholdMillion     float64 `validate:"gt=0"`
	MinYear                    int     `validate:"gte=0"`
}

// DefaultPreprocessConfig marks a title as a hit at one million copies.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		NumericImputerStrategy:     string(dataprocessing.StrategyMedian),
		CategoricalImputerStrategy: string(dataprocessing.StrategyMostFrequent),
		ScaleNumeric:               true,
		TargetThresholdMillion:     1.0,
	}
}

// Validate checks strategies and bounds.
func (c PreprocessConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid gaming preprocess config: %w", err)
	}
	return nil
}

func (c PreprocessConfig) options() dataprocessing.PreprocessorOptions {
	opts := dataprocessing.DefaultPreprocessorOptions()
	opts.NumericStrategy = dataprocessing.ImputeStrategy(c.NumericImputerStrategy)
	opts.CategoricalStrategy = dataprocessing.ImputeStrategy(c.CategoricalImputerStrategy)
	opts.Scale = c.ScaleNumeric
	return opts
}
