package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"mlprep/internal/config"
	apierrors "mlprep/internal/errors"
	"mlprep/internal/infrastructure"
	customMiddleware "mlprep/internal/middleware"
	"mlprep/internal/operations"
	"mlprep/internal/services"
	"mlprep/internal/store"
	handlers "mlprep/internal/transport/http"
	"mlprep/pkg/contracts"
)

// Application holds every long-lived component.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Manager       *operations.Manager
	Store         *store.Store
	Preprocess    *services.PreprocessService
	Health        *services.HealthService
	Router        chi.Router
	Server        *http.Server
}

// New builds an Application from a loaded configuration. Relative paths are
// resolved against the working directory.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := cfg.ResolvePaths("")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	a := &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
	}

	if err := a.initializeServices(); err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	logger.Info("application_initialized",
		slog.String("version", contracts.Version),
		slog.String("output_dir", paths.OutputDir),
		slog.String("store", cfg.Store.Path),
		slog.Any("projects", a.Manager.Pipelines()))

	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	providers, err := infrastructure.InitializeOTel(a.Config.Telemetry, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	tracer, err := operations.NewRunTracer(providers)
	if err != nil {
		return fmt.Errorf("failed to initialize run tracer: %w", err)
	}
	a.Metrics = tracer.Metrics()

	st, err := store.Open(a.Config.Store, a.Logger)
	if err != nil {
		return err
	}
	a.Store = st

	a.Manager = operations.NewManager(
		operations.NewConfigBuilder().WithDefaultTimeout(a.Config.Server.StepTimeout).Build(),
		tracer, a.Logger)

	preprocess, err := services.NewPreprocessService(a.Config, a.Paths, a.Manager, a.Store, a.Metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize preprocess service: %w", err)
	}
	a.Preprocess = preprocess
	a.Health = services.NewHealthService(preprocess, a.Store, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Telemetry.Environment == "development")

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// RequestID → OTel → Logger → Recoverer → RateLimit
	r.Use(customMiddleware.RequestID)
	if otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics); err != nil {
		a.Logger.Error("otel_middleware_disabled", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(errorHandler.Middleware)

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/healthz", healthHandler.Healthz)
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Route("/api/"+contracts.APIVersion, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			if rl := a.Config.Server.RateLimit; rl.Enabled {
				r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger).Handler)
			}
			runsHandler := handlers.NewRunsHandler(a.Preprocess, errorHandler, a.Logger)
			r.Mount("/projects", runsHandler.ProjectRoutes())
			r.Mount("/runs", runsHandler.RunRoutes())
		})
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Serve listens until ctx is cancelled or the server fails, then shuts down
// gracefully.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup_health_check_warning", slog.String("warning", err.Error()))
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server_listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "shutdown_requested")
	}

	return a.Stop(context.WithoutCancel(ctx))
}

// Stop shuts the HTTP server down, cancelling active runs first.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	for _, run := range a.Manager.ListRuns() {
		if err := a.Manager.CancelRun(run.ID); err != nil {
			a.Logger.WarnContext(ctx, "run_cancel_failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
		}
	}

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	a.Logger.InfoContext(ctx, "server_stopped")
	return nil
}

// Close releases the run store and flushes telemetry.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.OTelProviders != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}

// performStartupHealthCheck verifies the output directory is writable and
// reports projects whose configured input is missing.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	probe := filepath.Join(a.Paths.OutputDir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("output directory not writable: %s", a.Paths.OutputDir)
	}
	_ = os.Remove(probe)

	for _, p := range a.Preprocess.Projects() {
		if p.InputPath != "" && !config.FileExists(p.InputPath) {
			a.Logger.InfoContext(ctx, "project_input_missing",
				slog.String("project", p.ID),
				slog.String("path", p.InputPath))
		}
	}
	a.Logger.InfoContext(ctx, "startup_health_check_passed")
	return nil
}
