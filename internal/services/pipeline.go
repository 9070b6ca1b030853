package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/go-gota/gota/dataframe"

	apperrors "mlprep/internal/errors"
	"mlprep/internal/exporter"
	"mlprep/internal/infrastructure"
	"mlprep/internal/operations"
	"mlprep/internal/validation"
	"mlprep/pkg/contracts/domain"
)

// pipelineDeps are shared by every project's steps.
type pipelineDeps struct {
	csv     *exporter.CSVWriter
	xlsx    *exporter.XLSXWriter
	files   *validation.FileValidator
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// stepOrder is the fixed layout of every project pipeline.
var stepOrder = []string{
	operations.StepIDLoad,
	operations.StepIDClean,
	operations.StepIDFeatures,
	operations.StepIDSplit,
	operations.StepIDExport,
}

// buildPipeline registers the five steps for one project in dependency order.
func buildPipeline(spec projectSpec, deps pipelineDeps) *operations.Registry {
	p := &pipeline{spec: spec, deps: deps}
	return operations.NewRegistry().MustRegister(
		operations.NewFuncStep(operations.StepIDLoad, operations.StepNameLoad, p.load),
		operations.NewFuncStep(operations.StepIDClean, operations.StepNameClean, p.clean,
			operations.StepIDLoad).Requires(operations.ContextKeyFrame, operations.ContextKeyReport),
		operations.NewFuncStep(operations.StepIDFeatures, operations.StepNameFeatures, p.features,
			operations.StepIDClean).Requires(operations.ContextKeyFrame),
		operations.NewFuncStep(operations.StepIDSplit, operations.StepNameSplit, p.split,
			operations.StepIDFeatures).Requires(operations.ContextKeyFrame, operations.ContextKeyReport),
		operations.NewFuncStep(operations.StepIDExport, operations.StepNameExport, p.export,
			operations.StepIDSplit).Requires(operations.ContextKeyFeatures, operations.ContextKeyReport),
	)
}

type pipeline struct {
	spec projectSpec
	deps pipelineDeps
}

func (p *pipeline) load(ctx context.Context, state *operations.RunState) error {
	path := state.ConfigString(operations.ConfigKeyInputPath)
	if path == "" {
		return operations.NewValidationError(operations.StepIDLoad, "input path is required")
	}

	if err := p.deps.files.ValidateInputFile(path); err != nil {
		return err
	}

	df, err := p.spec.load(path)
	if err != nil {
		return err
	}
	if df.Err != nil {
		return fmt.Errorf("read %s: %w", path, df.Err)
	}

	report := newRunReport()
	report.RowsIn = df.Nrow()
	state.SetContext(operations.ContextKeyFrame, df)
	state.SetContext(operations.ContextKeyReport, report)
	state.GetStep(operations.StepIDLoad).SetMetadata("rows", df.Nrow())

	p.deps.logger.InfoContext(ctx, "input_loaded",
		slog.String("run_id", state.ID),
		slog.String("project", p.spec.info.ID),
		slog.String("path", path),
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()))
	return nil
}

func (p *pipeline) clean(ctx context.Context, state *operations.RunState) error {
	df, report := frameOf(state), reportOf(state)
	if p.spec.clean == nil {
		report.Cleaning.RowsIn, report.Cleaning.RowsOut = df.Nrow(), df.Nrow()
		return nil
	}

	cleaned, err := p.spec.clean(ctx, df, seedOf(state), report)
	if err != nil {
		return err
	}
	state.SetContext(operations.ContextKeyFrame, cleaned)
	state.GetStep(operations.StepIDClean).SetMetadata("rows_dropped", report.Cleaning.RowsDropped())

	p.deps.logger.InfoContext(ctx, "data_cleaned",
		slog.String("run_id", state.ID),
		slog.String("project", p.spec.info.ID),
		slog.Int("rows_in", report.Cleaning.RowsIn),
		slog.Int("rows_out", report.Cleaning.RowsOut),
		slog.Any("dropped_columns", report.Cleaning.DroppedColumns))
	return nil
}

func (p *pipeline) features(ctx context.Context, state *operations.RunState) error {
	if p.spec.features == nil {
		return nil
	}
	df, err := p.spec.features(frameOf(state))
	if err != nil {
		return err
	}
	state.SetContext(operations.ContextKeyFrame, df)
	p.deps.logger.DebugContext(ctx, "features_derived",
		slog.String("run_id", state.ID),
		slog.Int("columns", df.Ncol()))
	return nil
}

func (p *pipeline) split(ctx context.Context, state *operations.RunState) error {
	df := frameOf(state)
	if df.Nrow() == 0 {
		return p.noRowsLeft()
	}
	res, err := p.spec.split(ctx, df, seedOf(state), reportOf(state))
	if err != nil {
		return err
	}
	if len(res.y) == 0 {
		return p.noRowsLeft()
	}
	if res.X.Nrow() != len(res.y) {
		return operations.NewFatalError(
			fmt.Sprintf("features have %d rows but target has %d", res.X.Nrow(), len(res.y)), nil)
	}
	state.SetContext(operations.ContextKeyFeatures, res)
	state.GetStep(operations.StepIDSplit).SetMetadata("features", res.X.Ncol())

	p.deps.logger.InfoContext(ctx, "features_split",
		slog.String("run_id", state.ID),
		slog.String("project", p.spec.info.ID),
		slog.Int("rows", len(res.y)),
		slog.Int("features", res.X.Ncol()),
		slog.String("target", res.targetName))
	return nil
}

func (p *pipeline) noRowsLeft() error {
	return apperrors.NewAppValidationError(
		fmt.Sprintf("no %s rows left after cleaning", p.spec.info.ID)).
		WithContext("project", p.spec.info.ID)
}

func (p *pipeline) export(ctx context.Context, state *operations.RunState) error {
	v, _ := state.GetContext(operations.ContextKeyFeatures)
	res, ok := v.(splitResult)
	if !ok {
		return operations.NewFatalError("split result has unexpected type", nil)
	}
	report := reportOf(state)
	dir := state.ConfigString(operations.ConfigKeyOutputDir)
	if err := p.deps.files.ValidateOutputDirectory(dir); err != nil {
		return err
	}

	ds := exporter.Dataset{
		Features:      res.X,
		Target:        res.y,
		TargetName:    res.targetName,
		Matrix:        res.matrix,
		MatrixColumns: res.matrixColumns,
	}

	var artifacts []exporter.Artifact
	switch domain.ExportFormat(state.ConfigString(operations.ConfigKeyFormat)) {
	case domain.ExportFormatXLSX:
		path, err := p.deps.xlsx.WriteDataset(filepath.Join(dir, exporter.DatasetFile), ds)
		if err != nil {
			return fmt.Errorf("export workbook: %w", err)
		}
		artifacts = append(artifacts, exporter.Artifact{Name: exporter.DatasetFile, Path: path, Rows: len(res.y)})
	default:
		written, err := p.deps.csv.WriteDataset(dir, ds)
		if err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		artifacts = append(artifacts, written...)
	}

	summaryPath, err := p.deps.xlsx.WriteWorkbook(filepath.Join(dir, exporter.SummaryFile), summarySheets(report, res))
	if err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	artifacts = append(artifacts, exporter.Artifact{Name: exporter.SummaryFile, Path: summaryPath, Rows: len(report.Metrics)})

	state.SetContext(operations.ContextKeyArtifacts, artifacts)
	infrastructure.RecordRowCounts(ctx, p.deps.metrics, p.spec.info.ID, report.RowsIn, report.RowsIn-len(res.y))

	p.deps.logger.InfoContext(ctx, "artifacts_exported",
		slog.String("run_id", state.ID),
		slog.String("project", p.spec.info.ID),
		slog.String("dir", dir),
		slog.Int("artifacts", len(artifacts)))
	return nil
}

// summarySheets lays out the run report as a workbook.
func summarySheets(report *runReport, res splitResult) []exporter.Sheet {
	overview := exporter.Sheet{
		Name:    "summary",
		Headers: []string{"metric", "value"},
		Rows: [][]interface{}{
			{"rows_in", report.RowsIn},
			{"rows_out", len(res.y)},
			{"rows_dropped", report.RowsIn - len(res.y)},
			{"dropped_columns", len(report.Cleaning.DroppedColumns)},
			{"target", res.targetName},
		},
	}
	for _, name := range sortedKeys(report.Metrics) {
		overview.Rows = append(overview.Rows, []interface{}{name, report.Metrics[name]})
	}

	features := exporter.Sheet{Name: "features", Headers: []string{"feature"}}
	for _, name := range res.X.Names() {
		features.Rows = append(features.Rows, []interface{}{name})
	}

	cleaning := exporter.Sheet{Name: "cleaning", Headers: []string{"column", "action", "cells"}}
	for _, name := range report.Cleaning.DroppedColumns {
		cleaning.Rows = append(cleaning.Rows, []interface{}{name, "dropped", nil})
	}
	for _, name := range sortedKeys(report.Cleaning.FilledCells) {
		cleaning.Rows = append(cleaning.Rows, []interface{}{name, "median_fill", report.Cleaning.FilledCells[name]})
	}

	return []exporter.Sheet{overview, features, cleaning}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func frameOf(state *operations.RunState) dataframe.DataFrame {
	v, _ := state.GetContext(operations.ContextKeyFrame)
	df, _ := v.(dataframe.DataFrame)
	return df
}

func reportOf(state *operations.RunState) *runReport {
	v, _ := state.GetContext(operations.ContextKeyReport)
	if r, ok := v.(*runReport); ok {
		return r
	}
	return newRunReport()
}

func seedOf(state *operations.RunState) int64 {
	v, _ := state.GetConfig(operations.ConfigKeySeed)
	s, _ := v.(int64)
	return s
}
