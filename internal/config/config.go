package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete engine configuration: where the
// database file lives, how large the buffer pool is, and how verbose
// logging should be.
type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`

	Storage StorageConfig `json:"storage"`
}

// StorageConfig represents storage-specific configuration.
type StorageConfig struct {
	BufferPoolFrames int    `json:"buffer_pool_frames"`
	DatabaseFile     string `json:"database_file"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "./data",
		LogLevel: "info",
		Storage: StorageConfig{
			BufferPoolFrames: 64,
			DatabaseFile:     "tinydb.db",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, layering it over
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFlags merges command-line flag overrides into the configuration.
func (c *Config) LoadFromFlags(dataDir string, logLevel string) {
	if dataDir != "" {
		c.DataDir = dataDir
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.Storage.BufferPoolFrames < 1 {
		return fmt.Errorf("buffer pool must have at least 1 frame")
	}
	if c.Storage.DatabaseFile == "" {
		return fmt.Errorf("database file name cannot be empty")
	}

	return nil
}

// GetDatabasePath returns the full path to the database file.
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.DataDir, c.Storage.DatabaseFile)
}
