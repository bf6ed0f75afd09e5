package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"CACHE_HOST", "CACHE_PORT", "CACHE_LIFETIME", "CACHE_TIMEOUT", "USE_KAFKA", "CACHE_DRIVER"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "127.0.0.1", cfg.Cache.Host)
	assert.Equal(t, 6379, cfg.Cache.Port)
	assert.Equal(t, 3600, cfg.Cache.DefaultLifetime)
	assert.Zero(t, cfg.Cache.Timeout)
	assert.False(t, cfg.Cache.Persistent)
	assert.Equal(t, DriverRedis, cfg.CacheDriver)
	assert.False(t, cfg.UseKafka)
	assert.Equal(t, "8080", cfg.HTTPPort)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CACHE_HOST", "redis.internal")
	t.Setenv("CACHE_PORT", "6380")
	t.Setenv("CACHE_SOCKET", "/tmp/redis.sock")
	t.Setenv("CACHE_TIMEOUT", "2.5")
	t.Setenv("CACHE_PERSISTENT", "true")
	t.Setenv("CACHE_DB", "3")
	t.Setenv("CACHE_PREFIX", "app:")
	t.Setenv("CACHE_LIFETIME", "0")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("USE_KAFKA", "1")

	cfg := LoadConfig()
	assert.Equal(t, "redis.internal", cfg.Cache.Host)
	assert.Equal(t, 6380, cfg.Cache.Port)
	assert.Equal(t, "/tmp/redis.sock", cfg.Cache.Socket)
	assert.Equal(t, 2500*time.Millisecond, cfg.Cache.Timeout)
	assert.True(t, cfg.Cache.Persistent)
	assert.Equal(t, 3, cfg.Cache.DB)
	assert.Equal(t, "app:", cfg.Cache.Prefix)
	assert.Equal(t, 0, cfg.Cache.DefaultLifetime)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.UseKafka)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("CACHE_HOST", "")
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  host: 10.0.0.5
  port: 6390
  timeout: 500ms
  persistent: true
  db: 2
  prefix: "sess:"
  lifetime: 120
  driver: memory
  automatic_cleaning_factor: 10
other:
  ignored: true
`), 0o600))

	cfg := LoadConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "10.0.0.5", cfg.Cache.Host)
	assert.Equal(t, 6390, cfg.Cache.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Cache.Timeout)
	assert.True(t, cfg.Cache.Persistent)
	assert.Equal(t, 2, cfg.Cache.DB)
	assert.Equal(t, "sess:", cfg.Cache.Prefix)
	assert.Equal(t, 120, cfg.Cache.DefaultLifetime)
	assert.Equal(t, DriverMemory, cfg.CacheDriver)
}

func TestLoadFromFile_PartialKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  db: 7\n"), 0o600))

	cfg := LoadConfig()
	cfg.Cache.Prefix = "keep:"
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, 7, cfg.Cache.DB)
	assert.Equal(t, "keep:", cfg.Cache.Prefix)
}

func TestLoadFromFile_Errors(t *testing.T) {
	cfg := LoadConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  timeout: soon\n"), 0o600))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"2", 2 * time.Second, false},
		{"0.25", 250 * time.Millisecond, false},
		{"1500ms", 1500 * time.Millisecond, false},
		{"-1", 0, true},
		{"-2s", 0, true},
		{"later", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeout(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
