package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/davicafu/rediscache/internal/cache/domain"
)

// Drivers del store.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	Cache                  domain.AdapterConfig
	CacheDriver            string
	HTTPPort               string
	KafkaBrokers           []string
	KafkaNotifyTopic       string
	KafkaInvalidationTopic string
	KafkaGroupID           string
	UseKafka               bool
	LogLevel               string
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	getInt := func(key string, fallback int) int {
		if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
			return v
		}
		return fallback
	}
	getBool := func(key string, fallback bool) bool {
		if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
			return v
		}
		return fallback
	}

	cache := domain.DefaultAdapterConfig()
	cache.Host = getEnv("CACHE_HOST", cache.Host)
	cache.Port = getInt("CACHE_PORT", cache.Port)
	cache.Socket = getEnv("CACHE_SOCKET", "")
	cache.Persistent = getBool("CACHE_PERSISTENT", false)
	cache.DB = getInt("CACHE_DB", 0)
	cache.Prefix = getEnv("CACHE_PREFIX", "")
	cache.DefaultLifetime = getInt("CACHE_LIFETIME", cache.DefaultLifetime)
	if d, err := ParseTimeout(getEnv("CACHE_TIMEOUT", "")); err == nil {
		cache.Timeout = d
	}

	return &Config{
		Cache:                  cache,
		CacheDriver:            getEnv("CACHE_DRIVER", DriverRedis),
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		KafkaBrokers:           strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaNotifyTopic:       getEnv("KAFKA_NOTIFY_TOPIC", "cache-notifications"),
		KafkaInvalidationTopic: getEnv("KAFKA_INVALIDATION_TOPIC", "cache-invalidations"),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "rediscache"),
		UseKafka:               getBool("USE_KAFKA", false),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}
}

// fileConfig es el formato YAML. Los campos ausentes no pisan la configuración actual.
type fileConfig struct {
	Cache struct {
		Host       *string `yaml:"host"`
		Port       *int    `yaml:"port"`
		Socket     *string `yaml:"socket"`
		Timeout    *string `yaml:"timeout"`
		Persistent *bool   `yaml:"persistent"`
		DB         *int    `yaml:"db"`
		Prefix     *string `yaml:"prefix"`
		Lifetime   *int    `yaml:"lifetime"`
		Driver     *string `yaml:"driver"`
	} `yaml:"cache"`
}

// LoadFromFile lee path (YAML) y lo aplica encima de cfg. Las claves desconocidas se ignoran.
func (cfg *Config) LoadFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	c := fc.Cache
	if c.Host != nil {
		cfg.Cache.Host = *c.Host
	}
	if c.Port != nil {
		cfg.Cache.Port = *c.Port
	}
	if c.Socket != nil {
		cfg.Cache.Socket = *c.Socket
	}
	if c.Timeout != nil {
		d, err := ParseTimeout(*c.Timeout)
		if err != nil {
			return fmt.Errorf("config: cache.timeout: %w", err)
		}
		cfg.Cache.Timeout = d
	}
	if c.Persistent != nil {
		cfg.Cache.Persistent = *c.Persistent
	}
	if c.DB != nil {
		cfg.Cache.DB = *c.DB
	}
	if c.Prefix != nil {
		cfg.Cache.Prefix = *c.Prefix
	}
	if c.Lifetime != nil {
		cfg.Cache.DefaultLifetime = *c.Lifetime
	}
	if c.Driver != nil {
		cfg.CacheDriver = *c.Driver
	}
	return nil
}

// ParseTimeout acepta una duración de Go ("500ms", "2s") o segundos sin unidad ("2.5").
// Vacío es 0, es decir, sin timeout propio.
func ParseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative timeout %q", raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %q", raw)
	}
	return d, nil
}
