// Package config handles loading and managing shardlens configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// Config represents the shardlens configuration.
type Config struct {
	Source SourceConfig `toml:"source"`
	Query  QueryConfig  `toml:"query"`
	Server ServerConfig `toml:"server"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// SourceConfig describes the shard collection to query.
type SourceConfig struct {
	Dir       string `toml:"dir"`       // Directory holding the CSV shards
	Delimiter string `toml:"delimiter"` // Field delimiter, single character
	Encoding  string `toml:"encoding"`  // utf-8, latin-1, utf-16 or auto
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	DefaultLimit  int `toml:"default_limit"`  // Row limit for preview runs
	PreviewRows   int `toml:"preview_rows"`   // Rows shown from the representative shard
	DistinctLimit int `toml:"distinct_limit"` // Cap on distinct-value probes
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort int `toml:"api_port"` // HTTP server port (default: 8080)
}

// DefaultHome returns the default shardlens home directory.
// Respects the SHARDLENS_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("SHARDLENS_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shardlens"
	}
	return filepath.Join(home, ".shardlens")
}

// Load reads the configuration from the specified file. If path is empty,
// uses the default location (<home>/config.toml). A missing config file
// is not an error; defaults apply.
func Load(path, homeDir string) (*Config, error) {
	if homeDir == "" {
		homeDir = DefaultHome()
	}
	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Source: SourceConfig{
			Delimiter: ",",
			Encoding:  "utf-8",
		},
		Query: QueryConfig{
			DefaultLimit:  10000,
			PreviewRows:   5,
			DistinctLimit: 1000,
		},
		Server: ServerConfig{
			APIPort: 8080,
		},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Source.Dir = expandPath(cfg.Source.Dir)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Source.Delimiter == "" || utf8.RuneCountInString(c.Source.Delimiter) != 1 {
		return fmt.Errorf("source.delimiter must be a single character, got %q", c.Source.Delimiter)
	}
	if c.Query.DefaultLimit < 0 {
		return fmt.Errorf("query.default_limit must not be negative")
	}
	if c.Query.PreviewRows <= 0 {
		return fmt.Errorf("query.preview_rows must be positive")
	}
	if c.Query.DistinctLimit <= 0 {
		return fmt.Errorf("query.distinct_limit must be positive")
	}
	return nil
}

// PresetsPath returns the path to the flat preset file.
func (c *Config) PresetsPath() string {
	return filepath.Join(c.HomeDir, "presets.toml")
}

// ConfigFilePath returns the path the config is loaded from by default.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.HomeDir, "config.toml")
}

// EnsureHomeDir creates the home directory if it does not exist.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0o755)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
