package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mlprep/internal/seed"
	"mlprep/internal/services"
	api "mlprep/pkg/contracts/api/v1"
	"mlprep/pkg/contracts/domain"
)

type runFlags struct {
	input  string
	out    string
	format string
	seed   int64
}

func (f *runFlags) register(cmd *cobra.Command, withInput bool) {
	if withInput {
		cmd.Flags().StringVarP(&f.input, "input", "i", "", "input CSV (defaults to the project's configured path)")
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory (defaults to <output_dir>/<project>/<run id>)")
	cmd.Flags().StringVarP(&f.format, "format", "f", string(domain.ExportFormatCSV), "artifact format: csv or xlsx")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed (defaults to $SEED, then "+fmt.Sprint(seed.Default)+")")
}

func (f *runFlags) options(cmd *cobra.Command) services.RunOptions {
	opts := services.RunOptions{
		InputPath: f.input,
		OutputDir: f.out,
		Format:    domain.ExportFormat(f.format),
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = seed.Ptr(f.seed)
	}
	return opts
}

func newRunCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <project>",
		Short: "Run one project's preprocessing pipeline",
		Example: `  mlprep run oilwell --input data/geo_data_1.csv --seed 42
  mlprep run gaming-market --format xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, runErr := a.Preprocess.Run(ctx, args[0], flags.options(cmd))
			if rec.ID != "" {
				if err := printJSON(cmd.OutOrStdout(), rec); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newAllCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run every project concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			records, runErr := a.Preprocess.RunAll(ctx, flags.options(cmd))
			resp := api.RunAllResponse{Runs: make([]domain.RunRecord, 0, len(records))}
			for _, rec := range records {
				if rec.ID == "" || !rec.Succeeded() {
					resp.Failed++
				}
				if rec.ID != "" {
					resp.Runs = append(resp.Runs, rec)
				}
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			return runErr
		},
	}
	flags.register(cmd, false)
	return cmd
}
