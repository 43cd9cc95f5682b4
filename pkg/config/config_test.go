package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeConfigDoc marshals a structured document into a config fixture.
func writeConfigDoc(t *testing.T, doc map[string]any) string {
	t.Helper()
	raw, err := yaml.Marshal(doc)
	require.NoError(t, err)
	return writeConfigFile(t, string(raw))
}

func TestLoadDefaults(t *testing.T) {
	// No file at all: everything falls back to defaults.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "badger", cfg.Catalog.Type)
	assert.Equal(t, "/var/lib/depot/catalog", cfg.Catalog.Badger["path"])
	assert.Equal(t, "/var/lib/depot/files", cfg.Repository.Root)
	assert.Equal(t, int64(50<<20), cfg.Repository.MaxUploadBytes)
	assert.Equal(t, 10, cfg.Engine.PageSize)
	assert.Equal(t, uint(0), cfg.Engine.EventsPerSecond, "throttling is off by default")
}

func TestLoadThrottleBurstDefault(t *testing.T) {
	path := writeConfigDoc(t, map[string]any{
		"engine": map[string]any{"events_per_second": 5},
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint(5), cfg.Engine.EventsPerSecond)
	assert.Equal(t, uint(5), cfg.Engine.Burst, "burst follows the rate when unset")
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
catalog:
  type: memory
repository:
  root: /srv/depot
  max_upload_bytes: 1048576
engine:
  page_size: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, "memory", cfg.Catalog.Type)
	assert.Equal(t, "/srv/depot", cfg.Repository.Root)
	assert.Equal(t, int64(1048576), cfg.Repository.MaxUploadBytes)
	assert.Equal(t, 5, cfg.Engine.PageSize)
}

func TestLoadBadgerSection(t *testing.T) {
	path := writeConfigDoc(t, map[string]any{
		"catalog": map[string]any{
			"type":   "badger",
			"badger": map[string]any{"path": "/srv/depot-catalog"},
		},
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Catalog.Type)
	assert.Equal(t, "/srv/depot-catalog", cfg.Catalog.Badger["path"])
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DEPOT_LOGGING_LEVEL", "ERROR")
	t.Setenv("DEPOT_CATALOG_TYPE", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Catalog.Type)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "logging: [not: valid")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad catalog type": "catalog:\n  type: postgres\n",
		"bad log level":    "logging:\n  level: verbose\n",
		"bad page size":    "engine:\n  page_size: -1\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, content))
			require.Error(t, err)
		})
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))
}
