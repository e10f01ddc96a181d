package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"GAMEMAPS_CONFIG", "GAMEMAPS_STORE_BACKEND", "GAMEMAPS_REDIS_ADDR", "GAMEMAPS_NATS_URL", "GAMEMAPS_METRICS_PORT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "gzip", cfg.Storage.Compression)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "", cfg.Cache.NATSURL)
	assert.Equal(t, 2112, cfg.Metrics.Port)
	assert.Equal(t, ":2112", cfg.Metrics.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "gamemaps.yaml")
	data := `
storage:
  backend: redis
  redis:
    addr: cache:6380
    ttl: 10m
cache:
  max_cost: 128
materialize:
  workers: 4
  min_y: -64
  max_y: 319
metrics:
  enabled: true
  port: 9100
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6380", cfg.Storage.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Storage.Redis.TTL)
	assert.Equal(t, int64(128), cfg.Cache.MaxCost)
	assert.Equal(t, -64, cfg.Materialize.MinY)
	assert.Equal(t, 9100, cfg.Metrics.Port)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvPath(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: badger\n"), 0o644))
	t.Setenv("GAMEMAPS_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
}

func TestApplyDefaults_EnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAMEMAPS_STORE_BACKEND", "Redis")
	t.Setenv("GAMEMAPS_REDIS_ADDR", "redis:6379")
	t.Setenv("GAMEMAPS_NATS_URL", "nats://nats:4222")
	t.Setenv("GAMEMAPS_METRICS_PORT", "9999")

	cfg := Default()
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "nats://nats:4222", cfg.Cache.NATSURL)
	assert.Equal(t, 9999, cfg.Metrics.Port)

	t.Run("config wins over env", func(t *testing.T) {
		cfg := &Config{Storage: StorageConfig{Backend: "file"}, Metrics: MetricsConfig{Port: 1234}}
		cfg.ApplyDefaults()
		assert.Equal(t, BackendFile, cfg.Storage.Backend)
		assert.Equal(t, 1234, cfg.Metrics.Port)
	})

	t.Run("bad env port ignored", func(t *testing.T) {
		t.Setenv("GAMEMAPS_METRICS_PORT", "abc")
		assert.Equal(t, 2112, Default().Metrics.Port)
	})
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.Storage.Backend = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Materialize.MinY, cfg.Materialize.MaxY = 10, 0
	assert.Error(t, cfg.Validate())

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
