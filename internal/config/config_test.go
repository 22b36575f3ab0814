package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://eu1.getpulpo.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, 5, cfg.Batch.Concurrency)
	assert.Equal(t, time.Second, cfg.Batch.Pacing())
	assert.Equal(t, "pending", cfg.Dirs.Pending)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Europe/Madrid", cfg.Timezone)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
api:
  token: file-token
  timeout_secs: 10
batch:
  concurrency: 3
  pacing_ms: 250
store:
  driver: postgres
  database_url: postgres://localhost/fleet
`), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.API.Token)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout())
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.Pacing())
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FLEET_API_TOKEN", "env-token")
	t.Setenv("FLEET_BATCH_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
