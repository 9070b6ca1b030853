package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mlprep/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var value int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print the seed a run would use",
		Long:  "Resolves --seed, then the SEED environment variable, then the built-in default.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit *int64
			if cmd.Flags().Changed("seed") {
				explicit = seed.Ptr(value)
			}
			resolved, err := seed.Resolve(explicit)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return err
		},
	}
	cmd.Flags().Int64Var(&value, "seed", 0, "explicit seed")
	return cmd
}
