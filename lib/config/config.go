// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "JAGCACHE_CONFIG"

// Config is the jagcache configuration.
type Config struct {
	// Cache locates the cache directory and its file names.
	Cache CacheConfig `yaml:"cache"`

	// Snapshot configures snapshot export and import.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Logging configures the CLI logger.
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig locates a cache on disk.
type CacheConfig struct {
	// Directory is the cache directory. Commands that take --store
	// use this when the flag is not given.
	Directory string `yaml:"directory"`

	// DataFile is the data blob file name.
	// Default: main_file_cache.dat
	DataFile string `yaml:"data_file"`

	// IndexPrefix is the index file name without its numeric suffix.
	// Default: main_file_cache.idx
	IndexPrefix string `yaml:"index_prefix"`

	// Bzip2BlockSize selects the bzip2 magic restored in front of
	// archive data: 1 for client caches, 9 for editor-written ones.
	// Default: 1
	Bzip2BlockSize int `yaml:"bzip2_block_size"`
}

// SnapshotConfig configures snapshots.
type SnapshotConfig struct {
	// Compression is the per-file policy: auto, none, lz4, or zstd.
	// Default: auto
	Compression string `yaml:"compression"`

	// Recipients are age X25519 public keys. When set, exported
	// snapshots are encrypted to them.
	Recipients []string `yaml:"recipients"`

	// IdentityFile is an age identity file used to decrypt sealed
	// snapshots.
	IdentityFile string `yaml:"identity_file"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text, or
	// json.
	// Default: auto
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			DataFile:       "main_file_cache.dat",
			IndexPrefix:    "main_file_cache.idx",
			Bzip2BlockSize: 1,
		},
		Snapshot: SnapshotConfig{
			Compression: "auto",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads the file at path, or the file named by JAGCACHE_CONFIG
// when path is empty. With neither, it returns [Default].
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file, on top of the
// defaults. Files ending in .json or .jsonc may carry comments and
// trailing commas; everything else is parsed as YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges one file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is valid YAML once comments and trailing commas are gone.
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Cache.Directory = expandVars(c.Cache.Directory, vars)
	c.Snapshot.IdentityFile = expandVars(c.Snapshot.IdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, checking
// vars before the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Cache.DataFile == "" {
		errs = append(errs, fmt.Errorf("cache.data_file is required"))
	}
	if c.Cache.IndexPrefix == "" {
		errs = append(errs, fmt.Errorf("cache.index_prefix is required"))
	}
	if strings.ContainsRune(c.Cache.DataFile, filepath.Separator) || strings.ContainsRune(c.Cache.IndexPrefix, filepath.Separator) {
		errs = append(errs, fmt.Errorf("cache.data_file and cache.index_prefix are file names, not paths"))
	}
	if c.Cache.Bzip2BlockSize < 1 || c.Cache.Bzip2BlockSize > 9 {
		errs = append(errs, fmt.Errorf("cache.bzip2_block_size must be 1..9, got %d", c.Cache.Bzip2BlockSize))
	}

	compressions := []string{"auto", "none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: %v", compressions))
	}
	for _, recipient := range c.Snapshot.Recipients {
		if !strings.HasPrefix(recipient, "age1") {
			errs = append(errs, fmt.Errorf("snapshot.recipients: %q is not an age public key", recipient))
		}
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}
	formats := []string{"auto", "text", "json"}
	if !slices.Contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
