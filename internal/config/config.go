// Package config loads the YAML configuration file and supplies defaults
// for anything it omits.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/intentflow/ltm/config.yaml"

// Config holds all configuration.
type Config struct {
	Tracking  TrackingConfig  `yaml:"tracking"`
	Storage   StorageConfig   `yaml:"storage"`
	Rollup    RollupConfig    `yaml:"rollup"`
	Retention RetentionConfig `yaml:"retention"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TrackingConfig shapes the normalizer.
type TrackingConfig struct {
	MergeGapSeconds      int `yaml:"merge_gap_seconds"`
	FlushIntervalSeconds int `yaml:"flush_interval_seconds"`
}

type StorageConfig struct {
	Path               string `yaml:"path"`
	SQLiteFile         string `yaml:"sqlite_file"`
	SQLiteJournalMode  string `yaml:"sqlite_journal_mode"`
	CompressionEnabled bool   `yaml:"compression_enabled"`
}

// RollupConfig sets the tier windows.
type RollupConfig struct {
	HotDays       int `yaml:"hot_days"`
	WarmDays      int `yaml:"warm_days"`
	IntervalHours int `yaml:"interval_hours"`
}

type RetentionConfig struct {
	Days int `yaml:"days"` // 0 keeps daily summaries forever
}

type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// DatabasePath resolves the SQLite file location from the storage section.
func (c *Config) DatabasePath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// LogLevel maps the configured level name to a slog level. Unknown names
// fall back to info.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
