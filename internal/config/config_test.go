package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "querypro.yaml")
	content := `
api:
  base_url: "http://api.example.test/"
  timeout: 5s
session:
  store: memory
poll:
  interval: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.test", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreMemory, cfg.Session.EffectiveStore())
	assert.Equal(t, time.Minute, cfg.Poll.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("QUERYPRO_API_BASE_URL", "http://env.example.test")
	dir := t.TempDir()
	path := filepath.Join(dir, "querypro.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.test", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ReturnsIndependentConfigs(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.yaml")
	require.NoError(t, os.WriteFile(first, []byte("log:\n  level: debug\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("log:\n  level: warn\n"), 0o600))

	a, err := Load(viper.New(), first)
	require.NoError(t, err)
	b, err := Load(viper.New(), second)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, "debug", a.Log.Level)
	assert.Equal(t, "warn", b.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEffectiveStore(t *testing.T) {
	tests := []struct {
		name string
		cfg  *SessionConfig
		want string
	}{
		{"nil", nil, StoreMemory},
		{"explicit memory", &SessionConfig{Store: "memory"}, StoreMemory},
		{"sqlite with path", &SessionConfig{Store: "SQLite", SQLitePath: "/tmp/s.db"}, StoreSQLite},
		{"sqlite without path", &SessionConfig{Store: "sqlite"}, StoreMemory},
		{"empty defaults to sqlite", &SessionConfig{SQLitePath: "/tmp/s.db"}, StoreSQLite},
		{"redis", &SessionConfig{Store: "redis", Redis: RedisConfig{Addr: "localhost:6379"}}, StoreRedis},
		{"valkey alias", &SessionConfig{Store: "valkey", Redis: RedisConfig{Addr: "cache:6379"}}, StoreRedis},
		{"redis without addr", &SessionConfig{Store: "redis"}, StoreMemory},
		{"unknown falls back", &SessionConfig{Store: "etcd", SQLitePath: "/tmp/s.db"}, StoreSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.EffectiveStore())
		})
	}
}
