// Package config loads and validates the adapter configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete adapter configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Paths   PathsConfig   `yaml:"paths" json:"paths"`
	Indexer IndexerConfig `yaml:"indexer" json:"indexer"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Extensions maps extension identifiers to their enabled flag.
	// Extensions absent from the map are treated as enabled.
	Extensions map[string]bool `yaml:"extensions" json:"extensions"`
}

// PathsConfig locates the on-disk stores.
type PathsConfig struct {
	// DataDir holds the category database and the search index.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// IndexerConfig tunes the indexing pipeline.
type IndexerConfig struct {
	// UseMenuTitle substitutes a matching menu item's title for the
	// stored category title.
	UseMenuTitle bool `yaml:"use_menu_title" json:"use_menu_title"`

	// CascadeWorkers bounds concurrent re-index calls during a
	// descendant cascade.
	CascadeWorkers int `yaml:"cascade_workers" json:"cascade_workers"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Default returns the configuration with defaults applied.
func Default() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Indexer: IndexerConfig{
			UseMenuTitle:   true,
			CascadeWorkers: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Extensions: map[string]bool{},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".finder"
	}
	return filepath.Join(home, ".finder")
}

// Load reads the configuration file at path, applying defaults for absent
// fields. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	if c.Indexer.CascadeWorkers < 0 {
		return fmt.Errorf("cascade_workers must not be negative")
	}
	if c.Indexer.CascadeWorkers == 0 {
		c.Indexer.CascadeWorkers = 4
	}
	return nil
}

// Save writes the configuration to path in YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
