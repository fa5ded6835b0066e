package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/contentkit/finder/internal/async"
	"github.com/contentkit/finder/internal/config"
	"github.com/contentkit/finder/internal/model"
	"github.com/contentkit/finder/internal/pipeline"
	"github.com/contentkit/finder/internal/store"
)

// environment bundles the opened stores and pipeline for a command run.
type environment struct {
	cfg        *config.Config
	categories *store.CategoryStore
	index      *store.Index
	adapter    *pipeline.Adapter
	cascades   *async.Scheduler
}

// openEnvironment opens the stores under the configured data directory and
// wires the pipeline. Callers must Close.
func openEnvironment() (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dataDir := cfg.Paths.DataDir
	categories, err := store.OpenCategoryStore(filepath.Join(dataDir, "categories.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open category store: %w", err)
	}

	index, err := store.OpenIndex(filepath.Join(dataDir, "index"))
	if err != nil {
		_ = categories.Close()
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	status := config.NewExtensionStatus(cfg.Extensions)

	// The cascade worker re-indexes through the adapter, assigned below.
	var adapter *pipeline.Adapter
	cascades := async.NewScheduler(categories,
		func(ctx context.Context, node *model.CategoryNode) error {
			return adapter.Index(ctx, node)
		},
		async.Config{Workers: cfg.Indexer.CascadeWorkers})
	adapter = pipeline.NewAdapter(categories, index, status, nil, cascades, pipeline.Options{
		UseMenuTitle: cfg.Indexer.UseMenuTitle,
	})
	cascades.Start(context.Background())

	return &environment{
		cfg:        cfg,
		categories: categories,
		index:      index,
		adapter:    adapter,
		cascades:   cascades,
	}, nil
}

func (e *environment) Close() {
	e.cascades.Stop()
	_ = e.index.Close()
	_ = e.categories.Close()
}
