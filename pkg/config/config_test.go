package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Search.WorkerPoolSize)
	assert.Equal(t, 100, cfg.Search.BatchSize)
	assert.Equal(t, 30*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, 50, cfg.Search.HistoryLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.Search.ResultRetention)
	assert.Equal(t, 60*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Empty(t, cfg.Store.DatabaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_API_URL", "https://scraper.example.com/")
	t.Setenv("SEARCH_CACHE_TTL", "5m")
	t.Setenv("WORKER_POOL_SIZE", "4")
	t.Setenv("STORE_DRIVER", "REDIS")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://scraper.example.com", cfg.Backend.URL)
	assert.Equal(t, 5*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, 4, cfg.Search.WorkerPoolSize)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Store.RedisDB)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adspy.yaml")
	yaml := "port: \"7000\"\nbatch_size: 25\nsearch_history_limit: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("BATCH_SIZE", "40")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 40, cfg.Search.BatchSize, "env wins over file")
	assert.Equal(t, 10, cfg.Search.HistoryLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "STORE_DRIVER", "etcd"},
		{"zero workers", "WORKER_POOL_SIZE", "0"},
		{"zero batch", "BATCH_SIZE", "0"},
		{"zero rate", "RATE_LIMIT_PER_SECOND", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
