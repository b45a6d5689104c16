package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Cache    CacheConfig    `yaml:"cache"`
	Sessions SessionsConfig `yaml:"sessions"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port              int    `yaml:"port"`
	MetricsPort       int    `yaml:"metrics_port"`
	AdminToken        string `yaml:"admin_token"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// CatalogConfig selects the catalog backend. Driver is "postgres" or "http".
type CatalogConfig struct {
	Driver            string  `yaml:"driver"`
	DatabaseURL       string  `yaml:"database_url"`
	BaseURL           string  `yaml:"base_url"`
	Token             string  `yaml:"token"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// CacheConfig configures the snapshot cache. An empty Path keeps the cache
// in memory.
type CacheConfig struct {
	Path     string `yaml:"path"`
	WindowMs int    `yaml:"window_ms"`
}

type SessionsConfig struct {
	IdleTTLMs       int `yaml:"idle_ttl_ms"`
	EvictIntervalMs int `yaml:"evict_interval_ms"`
}

// HermesConfig points at the NATS server. An empty URL disables events.
// Consumer names this instance's durable JetStream consumers.
type HermesConfig struct {
	URL      string `yaml:"url"`
	Consumer string `yaml:"consumer"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DriverPostgres = "postgres"
	DriverHTTP     = "http"
)

func (c *Config) CacheWindow() time.Duration {
	return time.Duration(c.Cache.WindowMs) * time.Millisecond
}

func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.Sessions.IdleTTLMs) * time.Millisecond
}

func (c *Config) EvictInterval() time.Duration {
	return time.Duration(c.Sessions.EvictIntervalMs) * time.Millisecond
}

// Validate reports settings that would prevent the service from starting.
func (c *Config) Validate() error {
	switch c.Catalog.Driver {
	case DriverPostgres:
		if c.Catalog.DatabaseURL == "" {
			return fmt.Errorf("catalog.database_url is required for the postgres driver")
		}
	case DriverHTTP:
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog.base_url is required for the http driver")
		}
	default:
		return fmt.Errorf("unknown catalog driver %q", c.Catalog.Driver)
	}
	if c.Cache.WindowMs <= 0 {
		return fmt.Errorf("cache.window_ms must be positive, got %d", c.Cache.WindowMs)
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              8700,
			MetricsPort:       8701,
			RequestsPerMinute: 240,
		},
		Catalog: CatalogConfig{
			Driver:            DriverPostgres,
			RequestsPerSecond: 10,
		},
		Cache: CacheConfig{
			WindowMs: 3600000,
		},
		Sessions: SessionsConfig{
			IdleTTLMs:       1800000,
			EvictIntervalMs: 60000,
		},
		Hermes: HermesConfig{
			Consumer: "versus",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("VERSUS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("VERSUS_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("VERSUS_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("VERSUS_CATALOG_DRIVER"); v != "" {
		cfg.Catalog.Driver = v
	}
	if v := os.Getenv("VERSUS_DATABASE_URL"); v != "" {
		cfg.Catalog.DatabaseURL = v
	}
	if v := os.Getenv("VERSUS_CATALOG_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("VERSUS_CATALOG_TOKEN"); v != "" {
		cfg.Catalog.Token = v
	}
	if v := os.Getenv("VERSUS_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("VERSUS_CACHE_WINDOW_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.WindowMs = n
		}
	}
	if v := os.Getenv("VERSUS_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("VERSUS_HERMES_CONSUMER"); v != "" {
		cfg.Hermes.Consumer = v
	}
	if v := os.Getenv("VERSUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
