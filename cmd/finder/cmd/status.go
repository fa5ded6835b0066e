package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index and category store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			categories, err := env.categories.List(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := env.index.Count(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data directory: %s\n", env.cfg.Paths.DataDir)
			fmt.Fprintf(out, "Categories:     %d\n", len(categories))
			fmt.Fprintf(out, "Index entries:  %d\n", entries)
			return nil
		},
	}
}
