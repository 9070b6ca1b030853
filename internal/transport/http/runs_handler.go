package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "mlprep/internal/errors"
	"mlprep/internal/middleware"
	"mlprep/internal/services"
	api "mlprep/pkg/contracts/api/v1"
	"mlprep/pkg/contracts/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// RunsHandler serves projects and preprocessing runs.
type RunsHandler struct {
	service      RunService
	validation   *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(service RunService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		service:      service,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "runs")),
	}
}

// ProjectRoutes returns the /projects router.
func (h *RunsHandler) ProjectRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validation.ValidateRequest)
	r.Get("/", h.ListProjects)
	r.Post("/{project}/runs", h.CreateRun)
	return r
}

// RunRoutes returns the /runs router.
func (h *RunsHandler) RunRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validation.ValidateRequest)
	r.Get("/", h.ListRuns)
	r.Post("/", h.RunAll)
	r.Get("/{id}", h.GetRun)
	r.Delete("/{id}", h.CancelRun)
	return r
}

// ListProjects handles GET /projects
func (h *RunsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.ProjectListResponse{Projects: h.service.Projects()})
}

// CreateRun handles POST /projects/{project}/runs. The run executes
// synchronously; the response carries the finished record.
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := chi.URLParam(r, "project")

	var req api.RunCreateRequest
	if err := h.validation.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rec, err := h.service.Run(ctx, project, services.RunOptions{
		InputPath: req.InputPath,
		OutputDir: req.OutputDir,
		Format:    domain.ExportFormat(req.Format),
		Seed:      req.Seed,
	})
	if err != nil {
		h.runFailed(w, r, rec, err)
		return
	}

	h.logger.InfoContext(ctx, "run_created",
		slog.String("run_id", rec.ID),
		slog.String("project", project),
		slog.Duration("duration", rec.Duration()))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rec)
}

// RunAll handles POST /runs
func (h *RunsHandler) RunAll(w http.ResponseWriter, r *http.Request) {
	var req api.RunAllRequest
	if err := h.validation.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, err := h.service.RunAll(r.Context(), services.RunOptions{
		OutputDir: req.OutputDir,
		Format:    domain.ExportFormat(req.Format),
		Seed:      req.Seed,
	})

	resp := api.RunAllResponse{Runs: make([]domain.RunRecord, 0, len(records))}
	for _, rec := range records {
		if rec.ID == "" {
			resp.Failed++
			continue
		}
		if !rec.Succeeded() {
			resp.Failed++
		}
		resp.Runs = append(resp.Runs, rec)
	}
	if err != nil && len(resp.Runs) == 0 {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "run_all_partial_failure",
			slog.Int("failed", resp.Failed),
			slog.String("error", err.Error()))
	}

	status := http.StatusCreated
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// ListRuns handles GET /runs?project=&limit=
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, maxListLimit, defaultListLimit)
	if !ok {
		return
	}

	runs, err := h.service.ListRuns(r.Context(), r.URL.Query().Get("project"), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	render.JSON(w, r, api.RunListResponse{Runs: runs, Count: len(runs)})
}

// GetRun handles GET /runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}

// CancelRun handles DELETE /runs/{id}
func (h *RunsHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.CancelRun(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "run_cancel_requested", slog.String("run_id", id))
	render.NoContent(w, r)
}

// runFailed writes the problem for a failed run. When the pipeline actually
// ran, the problem carries the run id so the stored record can be fetched.
func (h *RunsHandler) runFailed(w http.ResponseWriter, r *http.Request, rec domain.RunRecord, err error) {
	if rec.ID == "" {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.WarnContext(r.Context(), "run_failed",
		slog.String("run_id", rec.ID),
		slog.String("project", rec.Project),
		slog.String("error", err.Error()))

	problem := h.errorHandler.ErrorToProblem(err, r).
		WithExtension("run_id", rec.ID).
		WithExtension("run_status", string(rec.Status))
	render.Render(w, r, problem)
}
