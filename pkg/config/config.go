// Package config loads, validates, and materializes the FileDepot
// configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (FILEDEPOT_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Store Configuration Pattern:
// Each backend defines its own configuration type and constructor. The
// Config struct carries type-specific sections as loosely typed maps
// (e.g. blob.filesystem, blob.s3) and the factory decodes only the
// section matching the selected type. Component settings (upload
// manager, share engine, sweepers, GC) embed the component packages'
// own config types so knobs are declared exactly once.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/filedepot/filedepot/pkg/gc"
	"github.com/filedepot/filedepot/pkg/share"
	"github.com/filedepot/filedepot/pkg/upload"
)

// Config represents the complete FileDepot configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server"`

	// Blob specifies the content store type and type-specific configuration
	Blob BlobConfig `mapstructure:"blob"`

	// Catalog specifies the file catalog store type and configuration
	Catalog CatalogConfig `mapstructure:"catalog"`

	// Share specifies the share store and engine configuration
	Share ShareConfig `mapstructure:"share"`

	// Upload configures the chunked upload manager and its reaper
	Upload UploadConfig `mapstructure:"upload"`

	// GC configures the orphaned-content collector
	GC gc.Config `mapstructure:"gc"`

	// Metrics configures Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// BlobConfig specifies the content store configuration.
//
// The Type field selects the backend; only the matching section is used.
type BlobConfig struct {
	// Type specifies which blob store implementation to use
	// Valid values: memory, filesystem, s3
	Type string `mapstructure:"type" validate:"required,oneof=memory filesystem s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`

	// Retry wraps the store with transient-error retries when enabled
	Retry RetryConfig `mapstructure:"retry"`
}

// RetryConfig controls the retry wrapper around the blob store.
type RetryConfig struct {
	// Enabled turns the wrapper on. Recommended for s3 backends.
	Enabled bool `mapstructure:"enabled"`

	// MaxAttempts is the total number of tries, including the first
	MaxAttempts int `mapstructure:"max_attempts"`

	// BaseDelay is the delay before the first retry; doubles per retry
	BaseDelay time.Duration `mapstructure:"base_delay"`

	// MaxDelay caps the per-retry delay
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// CatalogConfig specifies the file catalog store configuration.
type CatalogConfig struct {
	// Type specifies which catalog store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// ShareConfig specifies the share store backend and the share engine
// and sweeper settings layered on top of it.
type ShareConfig struct {
	// Type specifies which share store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// Engine configures download-link TTLs and authorization caching
	Engine share.EngineConfig `mapstructure:"engine"`

	// Sweeper configures the expired-grant background sweeper
	Sweeper share.SweeperConfig `mapstructure:"sweeper"`
}

// UploadConfig groups the upload manager and reaper settings.
type UploadConfig struct {
	// Manager configures chunk size, speed sampling, and event buffering
	Manager upload.ManagerConfig `mapstructure:"manager"`

	// Reaper configures idle-session reclamation
	Reaper upload.ReaperConfig `mapstructure:"reaper"`
}

// MetricsConfig controls Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns metrics collection and the /metrics endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Port is the metrics HTTP server port
	Port int `mapstructure:"port" validate:"omitempty,gte=1,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the FILEDEPOT_ prefix and underscores.
	// Example: FILEDEPOT_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("FILEDEPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/filedepot/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable - defaults apply. Viper
		// reports the miss differently depending on whether the path was
		// explicit or discovered via the search path.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "filedepot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "filedepot")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
