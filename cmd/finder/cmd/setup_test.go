package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentkit/finder/internal/config"
	"github.com/contentkit/finder/internal/model"
	"github.com/contentkit/finder/internal/pipeline"
)

// writeTestConfig points the CLI at a config file under dataDir and
// restores the previous config path when the test ends. Returns the
// config file path for commands that take --config explicitly.
func writeTestConfig(t *testing.T, dataDir string) string {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	cfg.Logging.FilePath = filepath.Join(dataDir, "finder.log")

	path := filepath.Join(dataDir, "config.yaml")
	require.NoError(t, cfg.Save(path))

	prev := configPath
	configPath = path
	t.Cleanup(func() { configPath = prev })
	return path
}

func TestOpenEnvironmentRunsAccessCascades(t *testing.T) {
	writeTestConfig(t, t.TempDir())

	env, err := openEnvironment()
	require.NoError(t, err)
	defer env.Close()
	require.NotNil(t, env.cascades)

	ctx := context.Background()
	nodes := []*model.CategoryNode{
		{ID: model.RootCategoryID, ParentID: 0, Lft: 0, Level: 0, State: model.StatePublished, Access: 1, Title: "ROOT"},
		{ID: 2, ParentID: 1, Lft: 1, Level: 1, State: model.StatePublished, Access: 3, Title: "Restricted"},
		{ID: 4, ParentID: 1, Lft: 3, Level: 1, State: model.StatePublished, Access: 1, Title: "Movable"},
		{ID: 5, ParentID: 4, Lft: 4, Level: 2, State: model.StatePublished, Access: 1, Title: "Leaf"},
	}
	for _, n := range nodes {
		require.NoError(t, env.categories.SaveNode(ctx, n))
	}
	require.NoError(t, env.adapter.Reindex(ctx, 5))

	leaf, err := env.index.Get(ctx, env.adapter.StableID(5))
	require.NoError(t, err)
	require.NotNil(t, leaf)
	assert.Equal(t, 1, leaf.Access)

	// Moving a category under a restricted parent must re-index its
	// descendants in the background.
	movable := nodes[2]
	require.NoError(t, env.adapter.OnBeforeSave(ctx, pipeline.ContextCategory, movable, false))
	movable.ParentID = 2
	require.NoError(t, env.categories.SaveNode(ctx, movable))
	require.NoError(t, env.adapter.OnAfterSave(ctx, pipeline.ContextCategory, movable, false))

	assert.Eventually(t, func() bool {
		entry, err := env.index.Get(ctx, env.adapter.StableID(5))
		return err == nil && entry != nil && entry.Access == 3
	}, 2*time.Second, 20*time.Millisecond)
}
