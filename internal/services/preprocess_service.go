package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mlprep/internal/config"
	apperrors "mlprep/internal/errors"
	"mlprep/internal/exporter"
	"mlprep/internal/infrastructure"
	"mlprep/internal/operations"
	"mlprep/internal/seed"
	"mlprep/internal/validation"
	"mlprep/pkg/contracts/domain"
)

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, rec domain.RunRecord) error
	GetRun(ctx context.Context, id string) (domain.RunRecord, error)
	ListRuns(ctx context.Context, project string, limit int) ([]domain.RunRecord, error)
}

// RunOptions override a project's configured defaults for one run.
type RunOptions struct {
	InputPath string
	OutputDir string
	Format    domain.ExportFormat
	Seed      *int64
}

// PreprocessService runs project pipelines and records their outcome.
type PreprocessService struct {
	manager *operations.Manager
	runs    RunStore
	paths   *config.Paths
	specs   map[string]projectSpec
	order   []string
	logger  *slog.Logger
}

// NewPreprocessService registers every configured project on manager.
// metrics may be nil.
func NewPreprocessService(cfg *config.Config, paths *config.Paths, manager *operations.Manager, runs RunStore, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*PreprocessService, error) {
	if cfg == nil || paths == nil || manager == nil || runs == nil {
		return nil, fmt.Errorf("config, paths, manager and run store are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &PreprocessService{
		manager: manager,
		runs:    runs,
		paths:   paths,
		specs:   make(map[string]projectSpec),
		logger:  logger.With(slog.String("component", "preprocess_service")),
	}

	var csvOpts []exporter.CSVOption
	if cfg.Export.CSVBOM {
		csvOpts = append(csvOpts, exporter.WithBOM())
	}
	deps := pipelineDeps{
		csv:     exporter.NewCSVWriter(paths, csvOpts...),
		xlsx:    exporter.NewXLSXWriter(paths),
		files:   validation.NewFileValidator(logger),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "pipeline")),
	}
	for _, spec := range projectSpecs(cfg.Projects) {
		if err := manager.RegisterPipeline(spec.info.ID, buildPipeline(spec, deps)); err != nil {
			return nil, fmt.Errorf("register %s: %w", spec.info.ID, err)
		}
		s.specs[spec.info.ID] = spec
		s.order = append(s.order, spec.info.ID)
	}

	s.logger.Info("preprocess_service_initialized",
		slog.Any("projects", s.order),
		slog.String("output_dir", paths.OutputDir))
	return s, nil
}

// Projects describes every registered project in registration order.
func (s *PreprocessService) Projects() []domain.ProjectInfo {
	infos := make([]domain.ProjectInfo, 0, len(s.order))
	for _, id := range s.order {
		info := s.specs[id].info
		if registry, ok := s.manager.Pipeline(id); ok {
			info.Steps = registry.ListIDs()
		}
		infos = append(infos, info)
	}
	return infos
}

// HasProject reports whether id names a registered project.
func (s *PreprocessService) HasProject(id string) bool {
	_, ok := s.specs[id]
	return ok
}

// Run executes one project pipeline and stores the record. A failed run is
// stored too; its record is returned together with the error.
func (s *PreprocessService) Run(ctx context.Context, project string, opts RunOptions) (domain.RunRecord, error) {
	spec, ok := s.specs[project]
	if !ok {
		return domain.RunRecord{}, apperrors.NewNotFoundError(fmt.Sprintf("project %q", project))
	}

	format := opts.Format
	if format == "" {
		format = domain.ExportFormatCSV
	}
	if format != domain.ExportFormatCSV && format != domain.ExportFormatXLSX {
		return domain.RunRecord{}, apperrors.NewAppValidationError(fmt.Sprintf("unsupported format %q", format))
	}

	seedValue, err := seed.Resolve(opts.Seed)
	if err != nil {
		return domain.RunRecord{}, apperrors.NewConfigError("resolve seed", err)
	}

	inputPath := opts.InputPath
	if inputPath == "" {
		inputPath = spec.info.InputPath
	}
	if inputPath == "" {
		return domain.RunRecord{}, apperrors.NewAppValidationError(fmt.Sprintf("no input path configured for %s", project))
	}

	runID := uuid.NewString()
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = s.paths.ProjectOutputDir(project, runID)
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	s.logger.InfoContext(ctx, "run_requested",
		slog.String("run_id", runID),
		slog.String("project", project),
		slog.String("input_path", inputPath),
		slog.String("format", string(format)),
		slog.Int64("seed", seedValue))

	state, runErr := s.manager.Execute(ctx, operations.RunRequest{
		ID:      runID,
		Project: project,
		Parameters: map[string]interface{}{
			operations.ConfigKeySeed:      seedValue,
			operations.ConfigKeyInputPath: inputPath,
			operations.ConfigKeyOutputDir: outputDir,
			operations.ConfigKeyFormat:    string(format),
		},
	})

	rec := newRunRecord(state, inputPath, outputDir, format, seedValue)
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.ErrorContext(ctx, "run_not_recorded",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
		if runErr == nil {
			return rec, err
		}
	}
	return rec, runErr
}

// RunAll runs every project concurrently with shared options. Input paths
// always come from project configuration; a set OutputDir gets one
// subdirectory per project. Records are returned in project order.
func (s *PreprocessService) RunAll(ctx context.Context, opts RunOptions) ([]domain.RunRecord, error) {
	records := make([]domain.RunRecord, len(s.order))
	errs := make([]error, len(s.order))

	var g errgroup.Group
	for i, project := range s.order {
		projectOpts := opts
		projectOpts.InputPath = ""
		if opts.OutputDir != "" {
			projectOpts.OutputDir = filepath.Join(opts.OutputDir, project)
		}
		g.Go(func() error {
			rec, err := s.Run(ctx, project, projectOpts)
			records[i] = rec
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", project, err)
			}
			return errs[i]
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	s.logger.InfoContext(ctx, "all_projects_finished",
		slog.Int("projects", len(s.order)),
		slog.Int("failed", failed))
	return records, err
}

// GetRun returns a recorded run.
func (s *PreprocessService) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	return s.runs.GetRun(ctx, id)
}

// ListRuns returns recorded runs newest first.
func (s *PreprocessService) ListRuns(ctx context.Context, project string, limit int) ([]domain.RunRecord, error) {
	if project != "" && !s.HasProject(project) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("project %q", project))
	}
	return s.runs.ListRuns(ctx, project, limit)
}

// CancelRun stops an active run. A run that already finished is a
// conflict; an id never seen is not found.
func (s *PreprocessService) CancelRun(ctx context.Context, id string) error {
	err := s.manager.CancelRun(id)
	if err == nil || !errors.Is(err, operations.ErrRunNotFound) {
		return err
	}

	rec, getErr := s.runs.GetRun(ctx, id)
	if getErr != nil {
		if apperrors.IsType(getErr, apperrors.ErrTypeNotFound) {
			return apperrors.NewNotFoundError(fmt.Sprintf("run %q", id))
		}
		return getErr
	}
	return apperrors.NewConflictError(fmt.Sprintf("run %q already finished with status %s", id, rec.Status)).
		WithContext("run_status", string(rec.Status))
}

// ActiveRuns is the number of runs currently executing.
func (s *PreprocessService) ActiveRuns() int {
	return len(s.manager.ListRuns())
}

// newRunRecord flattens a finished run state into its persisted form.
func newRunRecord(state *operations.RunState, inputPath, outputDir string, format domain.ExportFormat, seedValue int64) domain.RunRecord {
	snapshot := state.Clone()

	rec := domain.RunRecord{
		ID:        snapshot.ID,
		Project:   snapshot.Project,
		Status:    domainStatus(snapshot.Status),
		InputPath: inputPath,
		OutputDir: outputDir,
		Format:    format,
		Seed:      seedValue,
		StartedAt: snapshot.StartTime,
	}
	if snapshot.EndTime != nil {
		rec.CompletedAt = *snapshot.EndTime
	} else {
		rec.CompletedAt = time.Now()
	}
	if snapshot.Error != nil {
		rec.Error = snapshot.Error.Error()
	}

	for _, id := range stepOrder {
		st := snapshot.GetStep(id)
		if st == nil {
			continue
		}
		rec.Steps = append(rec.Steps, domain.StepRecord{
			ID:         st.ID,
			Name:       st.Name,
			Status:     string(st.GetStatus()),
			Attempts:   st.Attempts,
			DurationMS: st.Duration().Milliseconds(),
			Message:    st.Message,
		})
	}

	if v, ok := snapshot.GetContext(operations.ContextKeyFeatures); ok {
		if res, ok := v.(splitResult); ok {
			rec.Summary = reportOf(snapshot).summary(res)
		}
	}
	if v, ok := snapshot.GetContext(operations.ContextKeyArtifacts); ok {
		if artifacts, ok := v.([]exporter.Artifact); ok {
			for _, a := range artifacts {
				rec.Artifacts = append(rec.Artifacts, domain.ArtifactInfo{Name: a.Name, Path: a.Path, Rows: a.Rows})
			}
		}
	}
	return rec
}

func domainStatus(status operations.RunStatus) domain.RunStatus {
	switch status {
	case operations.RunStatusCompleted:
		return domain.RunStatusCompleted
	case operations.RunStatusCancelled:
		return domain.RunStatusCancelled
	default:
		return domain.RunStatusFailed
	}
}
