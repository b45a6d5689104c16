// seed_catalog.go loads a YAML catalog fixture into the Postgres catalog.
//
// Usage:
//
//	go run scripts/seed_catalog.go -fixture testdata/catalog.yaml -db postgres://localhost/versus
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/store"
)

type fixture struct {
	Categories map[string]interface{} `yaml:"categories"`
	Products   []interface{}          `yaml:"products"`
}

func main() {
	path := flag.String("fixture", "testdata/catalog.yaml", "path to YAML catalog fixture")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *dbURL == "" {
		logger.Error("database URL required (-db or DATABASE_URL)")
		os.Exit(1)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		logger.Error("read fixture", "error", err)
		os.Exit(1)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		logger.Error("parse fixture", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := store.NewPostgresStore(ctx, *dbURL)
	if err != nil {
		logger.Error("connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	var categories, products atomic.Int64
	var g errgroup.Group
	g.SetLimit(4)

	for id, raw := range fx.Categories {
		g.Go(func() error {
			var cfg catalog.CategoryConfig
			if err := convert(raw, &cfg); err != nil {
				logger.Error("decode category", "category", id, "error", err)
				return nil
			}
			cfg.ID = id
			if err := db.UpsertCategory(ctx, &cfg); err != nil {
				logger.Error("upsert category", "category", id, "error", err)
				return nil
			}
			categories.Add(1)
			return nil
		})
	}
	for i, raw := range fx.Products {
		g.Go(func() error {
			var p catalog.Product
			if err := convert(raw, &p); err != nil {
				logger.Error("decode product", "index", i, "error", err)
				return nil
			}
			if p.ID == "" || p.Category == "" {
				logger.Warn("skipping product without id or category", "index", i)
				return nil
			}
			if err := db.UpsertProduct(ctx, &p); err != nil {
				logger.Error("upsert product", "product", p.ID, "error", err)
				return nil
			}
			products.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("Seeded %d categories and %d products\n", categories.Load(), products.Load())
}

// convert round-trips a YAML node through JSON so catalog values decode with
// their JSON rules.
func convert(in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
