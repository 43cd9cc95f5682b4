package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kol-dayn/depot/pkg/catalog"
	"github.com/kol-dayn/depot/pkg/catalog/badger"
	"github.com/kol-dayn/depot/pkg/catalog/memory"
)

// CreateCatalogStore creates a catalog store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": in-process store, contents lost on restart
//   - "badger": embedded BadgerDB store, persisted on disk
func CreateCatalogStore(cfg *CatalogConfig) (catalog.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewMemoryStore(), nil
	case "badger":
		return createBadgerStore(cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown catalog store type: %q", cfg.Type)
	}
}

// createBadgerStore creates a BadgerDB-backed catalog store.
func createBadgerStore(options map[string]any) (catalog.Store, error) {
	type badgerStoreConfig struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var storeCfg badgerStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger catalog store config: %w", err)
	}

	if storeCfg.Path == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger catalog store: path is required")
	}

	store, err := badger.NewBadgerStore(badger.Options{
		Path:     storeCfg.Path,
		InMemory: storeCfg.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open badger catalog store: %w", err)
	}

	return store, nil
}
