package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.True(t, cfg.Indexer.UseMenuTitle)
	assert.Equal(t, 4, cfg.Indexer.CascadeWorkers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Paths.DataDir)
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Indexer, cfg.Indexer)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 1
indexer:
  use_menu_title: false
  cascade_workers: 8
logging:
  level: debug
extensions:
  ext_articles: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Indexer.UseMenuTitle)
	assert.Equal(t, 8, cfg.Indexer.CascadeWorkers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, map[string]bool{"ext_articles": false}, cfg.Extensions)
}

func TestLoadInvalidLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Indexer.CascadeWorkers = 2
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Indexer.CascadeWorkers)
}

func TestExtensionStatus(t *testing.T) {
	s := NewExtensionStatus(map[string]bool{
		"ext_articles": true,
		"ext_banners":  false,
	})

	assert.True(t, s.IsEnabled("ext_articles"))
	assert.False(t, s.IsEnabled("ext_banners"))
	assert.True(t, s.IsEnabled("ext_unknown"), "unlisted extensions are enabled")

	// Disabling the owner disables its sub-extensions.
	assert.False(t, s.IsEnabled("ext_banners.category"))

	// A disabled sub-extension does not disable the owner.
	s.SetEnabled("ext_articles.category", false)
	assert.False(t, s.IsEnabled("ext_articles.category"))
	assert.True(t, s.IsEnabled("ext_articles"))
}

func TestOwnerElement(t *testing.T) {
	assert.Equal(t, "ext_articles", OwnerElement("ext_articles.category"))
	assert.Equal(t, "ext_articles", OwnerElement("ext_articles"))
	assert.Equal(t, "", OwnerElement(""))
}

func TestExtensionStatusWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extensions:\n  ext_articles: true\n"), 0o644))

	s := NewExtensionStatus(map[string]bool{"ext_articles": true})
	require.NoError(t, s.Watch(path))
	defer func() { _ = s.Close() }()

	require.True(t, s.IsEnabled("ext_articles"))

	require.NoError(t, os.WriteFile(path, []byte("extensions:\n  ext_articles: false\n"), 0o644))

	require.Eventually(t, func() bool {
		return !s.IsEnabled("ext_articles")
	}, 3*time.Second, 20*time.Millisecond, "toggling the file must flip the status")
}
