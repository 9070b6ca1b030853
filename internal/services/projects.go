package services

import (
	"context"
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"mlprep/internal/config"
	"mlprep/internal/dataprocessing"
	"mlprep/internal/gaming"
	"mlprep/internal/goldrecovery"
	"mlprep/internal/mobility"
	"mlprep/internal/oilwell"
	"mlprep/pkg/contracts/domain"
)

// projectSpecs builds every project from its configuration section.
func projectSpecs(cfg config.ProjectsConfig) []projectSpec {
	return []projectSpec{
		mobilityProject(cfg.Mobility),
		gamingProject(cfg.Gaming),
		goldRecoveryProject(cfg.GoldRecovery),
		oilWellProject(cfg.OilWell),
	}
}

func mobilityProject(cfg config.MobilityConfig) projectSpec {
	return projectSpec{
		info: domain.ProjectInfo{
			ID:          domain.ProjectMobility,
			Description: "Chicago ride durations joined with weather conditions",
			Target:      mobility.DurationColumn,
			InputPath:   cfg.InputPath,
		},
		load: mobility.LoadRawWeatherData,
		split: func(_ context.Context, df dataframe.DataFrame, _ int64, report *runReport) (splitResult, error) {
			X, y, eng, err := mobility.EngineerFeatures(df)
			if err != nil {
				return splitResult{}, err
			}
			report.Metrics["invalid_timestamps"] = float64(eng.InvalidTimestamps)
			report.Metrics["invalid_durations"] = float64(eng.InvalidDurations)
			report.Metrics["bad_weather_fraction"] = eng.BadWeatherFraction
			report.Metrics["mean_duration_seconds"] = eng.MeanDurationSeconds
			return splitResult{X: X, y: y, targetName: mobility.DurationColumn}, nil
		},
	}
}

func gamingProject(cfg config.GamingConfig) projectSpec {
	pcfg := gaming.PreprocessConfig{
		NumericImputerStrategy:     cfg.NumericImputerStrategy,
		CategoricalImputerStrategy: cfg.CategoricalImputerStrategy,
		ScaleNumeric:               cfg.ScaleNumeric,
		TargetThresholdMillion:     cfg.TargetThresholdMillion,
		MinYear:                    cfg.MinYear,
	}
	return projectSpec{
		info: domain.ProjectInfo{
			ID:          domain.ProjectGamingMarket,
			Description: "Video game sales; flags titles selling at least the hit threshold",
			Target:      gaming.TargetName,
			InputPath:   cfg.InputPath,
		},
		load: gaming.LoadRawDataset,
		split: func(_ context.Context, df dataframe.DataFrame, _ int64, report *runReport) (splitResult, error) {
			X, labels, err := gaming.MakeFeaturesAndTarget(df, pcfg)
			if err != nil {
				return splitResult{}, err
			}
			y := make([]float64, len(labels))
			for i, v := range labels {
				y[i] = float64(v)
			}

			prep, err := gaming.BuildPreprocessor(X, pcfg)
			if err != nil {
				return splitResult{}, err
			}
			matrix, err := prep.FitTransform(X)
			if err != nil {
				return splitResult{}, fmt.Errorf("fit preprocessor: %w", err)
			}

			report.Metrics["hit_rate"] = dataprocessing.Mean(y)
			report.Metrics["threshold_million"] = pcfg.TargetThresholdMillion
			report.Metrics["matrix_columns"] = float64(len(prep.FeatureNames()))
			return splitResult{
				X:             X,
				y:             y,
				targetName:    gaming.TargetName,
				matrix:        matrix,
				matrixColumns: prep.FeatureNames(),
			}, nil
		},
	}
}

func goldRecoveryProject(cfg config.GoldRecoveryConfig) projectSpec {
	gcfg := goldrecovery.Config{
		Target:            cfg.Target,
		MaxNullFraction:   cfg.MaxNullFraction,
		DropOutputColumns: cfg.DropOutputColumns,
	}
	return projectSpec{
		info: domain.ProjectInfo{
			ID:          domain.ProjectGoldRecovery,
			Description: "Gold flotation process measurements",
			Target:      gcfg.Target,
			InputPath:   cfg.InputPath,
		},
		load: goldrecovery.LoadProcessData,
		clean: func(_ context.Context, df dataframe.DataFrame, _ int64, report *runReport) (dataframe.DataFrame, error) {
			// integrity check against the recorded rougher recovery, before rows are removed
			if check, err := goldrecovery.RecoveryMAE(df); err == nil && check.Compared > 0 {
				report.Metrics["rougher_recovery_mae"] = check.MAE
			}

			df, cleaning := goldrecovery.BasicClean(df, gcfg)
			df, filled := goldrecovery.FillMissingWithMedian(df)
			cleaning.FilledCells = filled
			report.Cleaning = cleaning
			return df, nil
		},
		features: func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
			return goldrecovery.CreateFeatures(df), nil
		},
		split: func(_ context.Context, df dataframe.DataFrame, _ int64, report *runReport) (splitResult, error) {
			X, y, err := goldrecovery.MakeFeaturesAndTarget(df, gcfg)
			if err != nil {
				return splitResult{}, err
			}
			report.Metrics["target_mean"] = dataprocessing.Mean(y)
			return splitResult{X: X, y: y, targetName: gcfg.Target}, nil
		},
	}
}

func oilWellProject(cfg config.OilWellConfig) projectSpec {
	econ := oilwell.Economics{
		Budget:         cfg.Budget,
		RevenuePerUnit: cfg.RevenuePerUnit,
		WellsSelected:  cfg.WellsSelected,
		PointsExplored: cfg.PointsExplored,
	}
	return projectSpec{
		info: domain.ProjectInfo{
			ID:          domain.ProjectOilWell,
			Description: "Oil well exploration points of one region",
			Target:      cfg.TargetColumn,
			InputPath:   cfg.InputPath,
		},
		load: oilwell.LoadRegion,
		clean: func(_ context.Context, df dataframe.DataFrame, seed int64, report *runReport) (dataframe.DataFrame, error) {
			rowsIn := df.Nrow()
			df, err := oilwell.CleanDeduplicateAndShuffle(df, cfg.IDColumn, cfg.TargetColumn, seed)
			if err != nil {
				return dataframe.DataFrame{}, err
			}
			report.Cleaning = dataprocessing.CleaningReport{RowsIn: rowsIn, RowsOut: df.Nrow()}
			return df, nil
		},
		split: func(_ context.Context, df dataframe.DataFrame, seed int64, report *runReport) (splitResult, error) {
			X, y, err := oilwell.SplitFeaturesTarget(df, oilwell.FeatureColumns, cfg.TargetColumn)
			if err != nil {
				return splitResult{}, err
			}

			report.Metrics["break_even_per_well"] = econ.BreakEvenPerWell()
			report.Metrics["mean_product"] = dataprocessing.Mean(y)

			// Oracle ceiling: selecting wells by their true volume.
			dist, err := oilwell.BootstrapProfit(y, y, econ, cfg.BootstrapSamples, seed)
			if err != nil {
				return splitResult{}, fmt.Errorf("bootstrap economics: %w", err)
			}
			report.Metrics["oracle_profit_mean"] = dist.Mean
			report.Metrics["oracle_profit_lower"] = dist.Lower
			report.Metrics["oracle_profit_upper"] = dist.Upper
			report.Metrics["oracle_loss_risk"] = dist.LossRisk
			return splitResult{X: X, y: y, targetName: cfg.TargetColumn}, nil
		},
	}
}
