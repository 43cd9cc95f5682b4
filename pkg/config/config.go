package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete depot configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DEPOT_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// The catalog section contains a type selector plus one sub-section per
// store implementation; only the section matching the selected type is
// decoded and used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Catalog specifies the catalog store type and type-specific configuration
	Catalog CatalogConfig `mapstructure:"catalog"`

	// Repository contains the physical storage settings
	Repository RepositoryConfig `mapstructure:"repository"`

	// Engine contains conversation engine settings
	Engine EngineConfig `mapstructure:"engine"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// CatalogConfig specifies catalog store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
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

// RepositoryConfig contains physical storage settings.
type RepositoryConfig struct {
	// Root is the directory under which all folders live
	Root string `mapstructure:"root" validate:"required"`

	// MaxUploadBytes caps the size of a single uploaded file
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`
}

// EngineConfig contains conversation engine settings.
type EngineConfig struct {
	// PageSize is the number of entries per listing page
	PageSize int `mapstructure:"page_size" validate:"gt=0"`

	// EventsPerSecond throttles inbound events per actor (0 disables)
	EventsPerSecond uint `mapstructure:"events_per_second"`

	// Burst is the per-actor event burst allowance
	Burst uint `mapstructure:"burst"`
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
	// Environment variables use the DEPOT_ prefix and underscores.
	// Example: DEPOT_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DEPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only maps environment variables onto keys it knows about, so
	// register every key explicitly. Real defaults are applied later by
	// ApplyDefaults.
	v.SetDefault("logging.level", "")
	v.SetDefault("catalog.type", "")
	v.SetDefault("catalog.badger.path", "")
	v.SetDefault("catalog.badger.in_memory", false)
	v.SetDefault("repository.root", "")
	v.SetDefault("repository.max_upload_bytes", 0)
	v.SetDefault("engine.page_size", 0)
	v.SetDefault("engine.events_per_second", 0)
	v.SetDefault("engine.burst", 0)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable: defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "depot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "depot")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
