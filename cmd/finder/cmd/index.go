package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index from all category rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			// One rebuild at a time per data directory.
			lock := flock.New(filepath.Join(env.cfg.Paths.DataDir, "index.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("failed to acquire index lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another finder index run holds the lock")
			}
			defer func() { _ = lock.Unlock() }()

			start := time.Now()
			count, err := env.adapter.RebuildAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("rebuild failed after %d categories: %w", count, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d categories in %s\n",
				count, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
