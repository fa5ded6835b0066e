package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the search index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			query := strings.Join(args, " ")
			hits, err := env.index.Search(cmd.Context(), query, limit)
			if err != nil {
				return err
			}

			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results.")
				return nil
			}
			for _, hit := range hits {
				entry, err := env.index.Get(cmd.Context(), hit.StableID)
				if err != nil {
					return err
				}
				if entry == nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%6.3f  %-40s  %s\n",
					hit.Score, entry.Title, entry.Route)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	return cmd
}
