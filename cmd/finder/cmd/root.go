// Package cmd provides the CLI commands for finder.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/contentkit/finder/internal/config"
	"github.com/contentkit/finder/internal/logging"
	"github.com/contentkit/finder/pkg/version"
)

var (
	configPath string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the finder CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finder",
		Short: "Search index maintenance for hierarchical category content",
		Long: `Finder keeps a full-text search index synchronized with a tree of
content categories whose visibility and access level are inherited from
ancestors.

It maintains index entries incrementally from content lifecycle events and
supports full rebuilds with 'finder index'.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if loggingCleanup != nil {
				loggingCleanup()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(),
		"path to the configuration file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"enable debug logging")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "finder.yaml"
	}
	return filepath.Join(home, ".finder", "config.yaml")
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func setupLogging() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}
	if debugMode {
		logCfg.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}
