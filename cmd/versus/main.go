package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/Versus/internal/api"
	"github.com/MikeSquared-Agency/Versus/internal/cache"
	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/comparison"
	"github.com/MikeSquared-Agency/Versus/internal/config"
	"github.com/MikeSquared-Agency/Versus/internal/docstore"
	"github.com/MikeSquared-Agency/Versus/internal/hermes"
	"github.com/MikeSquared-Agency/Versus/internal/resolver"
	"github.com/MikeSquared-Agency/Versus/internal/scoring"
	"github.com/MikeSquared-Agency/Versus/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog
	var source catalog.Source
	switch cfg.Catalog.Driver {
	case config.DriverPostgres:
		db, err := store.NewPostgresStore(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		source = db
		logger.Info("connected to database")
	case config.DriverHTTP:
		source = docstore.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Token, cfg.Catalog.RequestsPerSecond)
		logger.Info("using document store", "url", cfg.Catalog.BaseURL)
	}

	// Snapshot cache
	var kv cache.KV = cache.NewMemoryKV()
	if cfg.Cache.Path != "" {
		sqlite, err := cache.OpenSQLite(ctx, cfg.Cache.Path)
		if err != nil {
			logger.Error("failed to open cache", "error", err, "path", cfg.Cache.Path)
			os.Exit(1)
		}
		defer sqlite.Close()
		kv = sqlite
		logger.Info("cache persisted to disk", "path", cfg.Cache.Path)
	}
	snapshots := cache.New(kv, cfg.CacheWindow(), logger)

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, cfg.Hermes.Consumer, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	res := resolver.New(source, snapshots, hermesClient, logger)
	if err := res.SetupSubscriptions(); err != nil {
		logger.Warn("failed to subscribe to catalog updates", "error", err)
	}

	// Sessions
	registry := comparison.NewRegistry(res, scoring.NewScorer(logger), cfg.SessionIdleTTL(), logger)
	registry.Start(ctx, cfg.EvictInterval())
	defer registry.Stop()
	logger.Info("session registry started", "idle_ttl", cfg.SessionIdleTTL())

	// API server
	router := api.NewRouter(res, registry, hermesClient, cfg.Server.AdminToken, cfg.Server.RequestsPerMinute, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
