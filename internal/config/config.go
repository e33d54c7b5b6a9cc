// Package config provides configuration loading for diskscope.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Dir returns the diskscope config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/diskscope if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "diskscope"), nil
}

// Config holds the runtime settings shared by the diskscope commands.
type Config struct {
	DBPath           string `mapstructure:"db_path"`            // snapshot cache database, empty means ~/.diskscope/diskscope.db
	TopK             int    `mapstructure:"top_k"`              // entries kept in each top list
	MinDuplicateSize string `mapstructure:"min_duplicate_size"` // smallest file the duplicate detector considers
	UseCache         bool   `mapstructure:"use_cache"`          // consult the snapshot cache before scanning
	RetainFileList   bool   `mapstructure:"retain_file_list"`   // persist per-file records with snapshots
	Progress         bool   `mapstructure:"progress"`           // live progress meter on TTYs
	Verbose          bool   `mapstructure:"verbose"`            // debug logging
}

// Load builds the configuration from defaults, an optional
// {config dir}/config.yaml, and DISKSCOPE_* environment variables.
// Environment variables win over the file, which wins over defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("db_path", "")
	v.SetDefault("top_k", 10)
	v.SetDefault("min_duplicate_size", "1 MiB")
	v.SetDefault("use_cache", true)
	v.SetDefault("retain_file_list", false)
	v.SetDefault("progress", true)
	v.SetDefault("verbose", false)

	// Merge the optional config file
	if dir, err := Dir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read environment variables
	v.SetEnvPrefix("DISKSCOPE")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MinDuplicateBytes parses the configured duplicate size floor. Both SI and
// binary suffixes are accepted, so "1 MB" and "1MiB" are fine.
func (c *Config) MinDuplicateBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.MinDuplicateSize)
	if err != nil {
		return 0, fmt.Errorf("invalid min_duplicate_size %q: %w", c.MinDuplicateSize, err)
	}
	return int64(n), nil
}
