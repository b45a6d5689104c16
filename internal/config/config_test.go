package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"VERSUS_PORT", "VERSUS_METRICS_PORT", "VERSUS_ADMIN_TOKEN",
	"VERSUS_CATALOG_DRIVER", "VERSUS_DATABASE_URL", "VERSUS_CATALOG_URL",
	"VERSUS_CATALOG_TOKEN", "VERSUS_CACHE_PATH", "VERSUS_CACHE_WINDOW_MS",
	"VERSUS_HERMES_URL", "VERSUS_HERMES_CONSUMER", "VERSUS_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RequestsPerMinute != 240 {
		t.Errorf("expected 240 requests per minute, got %d", cfg.Server.RequestsPerMinute)
	}
	if cfg.Catalog.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %s", cfg.Catalog.Driver)
	}
	if cfg.Hermes.URL != "" {
		t.Errorf("expected events disabled by default, got %s", cfg.Hermes.URL)
	}
	if cfg.Hermes.Consumer != "versus" {
		t.Errorf("expected consumer 'versus', got %s", cfg.Hermes.Consumer)
	}
	if cfg.Cache.Path != "" {
		t.Errorf("expected in-memory cache by default, got %s", cfg.Cache.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	if cfg.CacheWindow() != time.Hour {
		t.Errorf("expected CacheWindow 1h, got %v", cfg.CacheWindow())
	}
	if cfg.SessionIdleTTL() != 30*time.Minute {
		t.Errorf("expected SessionIdleTTL 30m, got %v", cfg.SessionIdleTTL())
	}
	if cfg.EvictInterval() != time.Minute {
		t.Errorf("expected EvictInterval 1m, got %v", cfg.EvictInterval())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VERSUS_PORT", "9000")
	t.Setenv("VERSUS_METRICS_PORT", "9001")
	t.Setenv("VERSUS_ADMIN_TOKEN", "secret-token")
	t.Setenv("VERSUS_CATALOG_DRIVER", "http")
	t.Setenv("VERSUS_DATABASE_URL", "postgres://localhost/versus_test")
	t.Setenv("VERSUS_CATALOG_URL", "https://docs.example.com")
	t.Setenv("VERSUS_CATALOG_TOKEN", "doc-token")
	t.Setenv("VERSUS_CACHE_PATH", "/tmp/versus.db")
	t.Setenv("VERSUS_CACHE_WINDOW_MS", "60000")
	t.Setenv("VERSUS_HERMES_URL", "nats://nats:4222")
	t.Setenv("VERSUS_HERMES_CONSUMER", "versus-eu-1")
	t.Setenv("VERSUS_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Catalog.Driver != DriverHTTP {
		t.Errorf("expected http driver, got '%s'", cfg.Catalog.Driver)
	}
	if cfg.Catalog.DatabaseURL != "postgres://localhost/versus_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Catalog.DatabaseURL)
	}
	if cfg.Catalog.BaseURL != "https://docs.example.com" {
		t.Errorf("expected catalog URL, got '%s'", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Token != "doc-token" {
		t.Errorf("expected catalog token, got '%s'", cfg.Catalog.Token)
	}
	if cfg.Cache.Path != "/tmp/versus.db" {
		t.Errorf("expected cache path, got '%s'", cfg.Cache.Path)
	}
	if cfg.CacheWindow() != time.Minute {
		t.Errorf("expected window 1m, got %v", cfg.CacheWindow())
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Hermes.Consumer != "versus-eu-1" {
		t.Errorf("expected consumer 'versus-eu-1', got '%s'", cfg.Hermes.Consumer)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("VERSUS_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "versus.yaml")
	data := []byte(`
server:
  port: 8080
catalog:
  driver: http
  base_url: https://docs.example.com
  requests_per_second: 2.5
cache:
  path: ./cache.db
  window_ms: 120000
logging:
  level: debug
  format: text
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Catalog.RequestsPerSecond != 2.5 {
		t.Errorf("expected 2.5 rps, got %v", cfg.Catalog.RequestsPerSecond)
	}
	if cfg.CacheWindow() != 2*time.Minute {
		t.Errorf("expected window 2m, got %v", cfg.CacheWindow())
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env to override file level, got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected text format, got '%s'", cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for postgres driver without database_url")
	}
	cfg.Catalog.DatabaseURL = "postgres://localhost/versus"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Catalog.Driver = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown driver")
	}

	cfg.Catalog.Driver = DriverHTTP
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for http driver without base_url")
	}

	cfg.Catalog.BaseURL = "http://docs"
	cfg.Cache.WindowMs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero cache window")
	}
}
