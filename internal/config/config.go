package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервиса карт
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
	Materialize MaterializeConfig `yaml:"materialize"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// Бэкенды хранилища
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type StorageConfig struct {
	Backend     string `yaml:"backend"` // file | badger | redis
	Dir         string `yaml:"dir"`     // каталог для file и badger
	InMemory    bool   `yaml:"in_memory"`
	Compression string `yaml:"compression"` // gzip | zstd

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type CacheConfig struct {
	MaxCost     int64  `yaml:"max_cost"` // в секциях
	NumCounters int64  `yaml:"num_counters"`
	NATSURL     string `yaml:"nats_url"` // пусто - без межузловой инвалидации
	Subject     string `yaml:"subject"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Dir        string `yaml:"dir"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type MaterializeConfig struct {
	Workers int `yaml:"workers"`
	MinY    int `yaml:"min_y"`
	MaxY    int `yaml:"max_y"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// GetMetricsPort порт метрик с приоритетом config -> env -> default
func (m *MetricsConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(m.Port, "GAMEMAPS_METRICS_PORT", 2112)
}

// Addr адрес HTTP-сервера метрик
func (m *MetricsConfig) Addr() string {
	return fmt.Sprintf(":%d", m.GetMetricsPort())
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// getStringWithEnvFallback то же для строк
func getStringWithEnvFallback(configVal, envVar, def string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := strings.TrimSpace(os.Getenv(envVar)); envVal != "" {
		return envVal
	}
	return def
}

// Default конфигурация по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults заполняет незаданные поля.
// Значения из конфига важнее переменных окружения.
func (c *Config) ApplyDefaults() {
	c.Storage.Backend = strings.ToLower(getStringWithEnvFallback(c.Storage.Backend, "GAMEMAPS_STORE_BACKEND", BackendFile))
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data/maps"
	}
	if c.Storage.Compression == "" {
		c.Storage.Compression = "gzip"
	}
	c.Storage.Redis.Addr = getStringWithEnvFallback(c.Storage.Redis.Addr, "GAMEMAPS_REDIS_ADDR", "localhost:6379")
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "gamemaps:map:"
	}

	if c.Cache.MaxCost <= 0 {
		c.Cache.MaxCost = 1 << 16
	}
	if c.Cache.NumCounters <= 0 {
		c.Cache.NumCounters = 10_000
	}
	c.Cache.NATSURL = getStringWithEnvFallback(c.Cache.NATSURL, "GAMEMAPS_NATS_URL", "")
	if c.Cache.Subject == "" {
		c.Cache.Subject = "gamemaps.invalidate"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	c.Metrics.Port = c.Metrics.GetMetricsPort()
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendBadger, BackendRedis:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	if c.Materialize.Workers < 0 {
		return fmt.Errorf("materialize.workers: must be >= 0, got %d", c.Materialize.Workers)
	}
	if c.Materialize.MaxY < c.Materialize.MinY {
		return fmt.Errorf("materialize: max_y %d below min_y %d", c.Materialize.MaxY, c.Materialize.MinY)
	}
	return nil
}

// Load читает YAML файл конфигурации.
// Если path == "", берётся ENV GAMEMAPS_CONFIG; без него возвращаются значения по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAMEMAPS_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
