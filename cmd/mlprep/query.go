package main

import (
	"github.com/spf13/cobra"

	api "mlprep/pkg/contracts/api/v1"
)

func newProjectsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List registered projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := root.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return printJSON(cmd.OutOrStdout(), api.ProjectListResponse{Projects: a.Preprocess.Projects()})
		},
	}
}

func newRunsCmd(root *rootOptions) *cobra.Command {
	var (
		project string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "runs [run id]",
		Short: "Show recorded runs, newest first, or one run by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 1 {
				rec, err := a.Preprocess.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			}

			runs, err := a.Preprocess.ListRuns(ctx, project, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.RunListResponse{Runs: runs, Count: len(runs)})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "only runs of this project")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	return cmd
}
