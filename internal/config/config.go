// Package config loads client settings from querypro.yaml, QUERYPRO_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all client settings.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	Poll    PollConfig    `mapstructure:"poll"`
	Mock    MockConfig    `mapstructure:"mock"`
}

// APIConfig describes the backend.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// SessionConfig selects where the session token and profile are kept.
type SessionConfig struct {
	Store      string      `mapstructure:"store"` // memory, sqlite, redis
	SQLitePath string      `mapstructure:"sqlite_path"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis session store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// PollConfig configures dashboard auto-refresh.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MockConfig configures the bundled mock backend.
type MockConfig struct {
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:6969")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.user_agent", "querypro-cli")
	v.SetDefault("session.store", "sqlite")
	v.SetDefault("session.sqlite_path", filepath.Join(defaultConfigDir(), "session.db"))
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.prefix", "querypro:session:")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("poll.interval", 30*time.Second)
	v.SetDefault("mock.addr", ":6969")
	v.SetDefault("mock.jwt_secret", "querypro-mock-secret")
}

// Load reads configuration from file (when given or found), environment and
// defaults.
func Load(v *viper.Viper, file string) (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix("QUERYPRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("querypro")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url must not be empty")
	}
	return cfg, nil
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".querypro"
	}
	return filepath.Join(dir, "querypro")
}
