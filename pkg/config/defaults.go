package config

import (
	"strings"

	"github.com/kol-dayn/depot/pkg/paging"
	"github.com/kol-dayn/depot/pkg/repository"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyCatalogDefaults(&cfg.Catalog)
	applyRepositoryDefaults(&cfg.Repository)
	applyEngineDefaults(&cfg.Engine)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)
}

// applyCatalogDefaults sets catalog store defaults.
func applyCatalogDefaults(cfg *CatalogConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	if path, _ := cfg.Badger["path"].(string); path == "" {
		cfg.Badger["path"] = "/var/lib/depot/catalog"
	}
}

// applyRepositoryDefaults sets physical storage defaults.
func applyRepositoryDefaults(cfg *RepositoryConfig) {
	if cfg.Root == "" {
		cfg.Root = "/var/lib/depot/files"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = repository.DefaultMaxUploadBytes
	}
}

// applyEngineDefaults sets conversation engine defaults.
func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.PageSize == 0 {
		cfg.PageSize = paging.DefaultPageSize
	}
	// Zero events_per_second leaves throttling off. A rate without an
	// explicit burst allows bursts up to one second of events.
	if cfg.EventsPerSecond > 0 && cfg.Burst == 0 {
		cfg.Burst = cfg.EventsPerSecond
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
