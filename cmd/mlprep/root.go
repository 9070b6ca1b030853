package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mlprep/internal/app"
	"mlprep/internal/config"
	"mlprep/internal/infrastructure"
	"mlprep/pkg/contracts"
)

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mlprep",
		Short: "Prepare tabular datasets for model training",
		Long: `mlprep loads, cleans, engineers and exports the datasets of four
projects: mobility, gaming-market, gold-recovery and oilwell.

Configuration is read from --config (or MLPREP_CONFIG, config.yaml,
configs/config.yaml) and overridden by MLPREP_* environment variables.
The random seed comes from --seed, then the SEED environment variable.`,
		Version:       contracts.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(opts),
		newAllCmd(opts),
		newProjectsCmd(opts),
		newRunsCmd(opts),
		newServeCmd(opts),
		newSeedCmd(),
	)
	return cmd
}

// loadConfig layers defaults, the config file and the environment.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// openApp loads configuration, installs the process logger and builds the
// application. The returned cleanup closes the run store and flushes
// telemetry.
func (o *rootOptions) openApp(ctx context.Context) (*app.Application, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := infrastructure.InstallLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "shutdown_failed", slog.String("error", err.Error()))
		}
		_ = infrastructure.CloseLogFile()
	}
	return a, cleanup, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
