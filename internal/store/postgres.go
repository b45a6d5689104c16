package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

// Schema creates the catalog tables. Specs, prices and weights are JSONB so
// heterogeneous values keep their JSON type.
const Schema = `
CREATE TABLE IF NOT EXISTS versus_products (
	product_id TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	brand      TEXT NOT NULL DEFAULT '',
	price      JSONB,
	specs      JSONB NOT NULL DEFAULT '{}'::jsonb,
	image      TEXT NOT NULL DEFAULT '',
	buy_url    TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS versus_products_category_idx ON versus_products (category);

CREATE TABLE IF NOT EXISTS versus_categories (
	category_id TEXT PRIMARY KEY,
	weightage   JSONB NOT NULL,
	scoring_map JSONB,
	specs       TEXT[],
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema applies Schema. It is idempotent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const productColumns = `product_id, category, name, brand, price, specs, image, buy_url`

func (s *PostgresStore) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM versus_products ORDER BY category, name, product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM versus_products WHERE product_id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) GetCategoryConfig(ctx context.Context, id string) (*catalog.CategoryConfig, error) {
	cfg := &catalog.CategoryConfig{ID: id}
	var weightsJSON, scoringJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT weightage, scoring_map, specs
		FROM versus_categories WHERE category_id = $1`, id,
	).Scan(&weightsJSON, &scoringJSON, &cfg.Specs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(weightsJSON, &cfg.Weights); err != nil {
		return nil, fmt.Errorf("decode weightage for %s: %w", id, err)
	}
	if len(scoringJSON) > 0 {
		if err := json.Unmarshal(scoringJSON, &cfg.ScoringMap); err != nil {
			return nil, fmt.Errorf("decode scoring map for %s: %w", id, err)
		}
	}
	return cfg, nil
}

func (s *PostgresStore) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	priceJSON, err := json.Marshal(p.Price)
	if err != nil {
		return fmt.Errorf("encode price: %w", err)
	}
	specs := p.Attributes
	if specs == nil {
		specs = map[string]catalog.Value{}
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return fmt.Errorf("encode specs: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO versus_products (product_id, category, name, brand, price, specs, image, buy_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id) DO UPDATE SET
			category = EXCLUDED.category, name = EXCLUDED.name, brand = EXCLUDED.brand,
			price = EXCLUDED.price, specs = EXCLUDED.specs, image = EXCLUDED.image,
			buy_url = EXCLUDED.buy_url, updated_at = now()`,
		p.ID, p.Category, p.Name, p.Brand, priceJSON, specsJSON, p.Image, p.BuyURL,
	)
	return err
}

func (s *PostgresStore) UpsertCategory(ctx context.Context, cfg *catalog.CategoryConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	weightsJSON, err := json.Marshal(cfg.Weights)
	if err != nil {
		return fmt.Errorf("encode weightage: %w", err)
	}
	var scoringJSON []byte
	if len(cfg.ScoringMap) > 0 {
		if scoringJSON, err = json.Marshal(cfg.ScoringMap); err != nil {
			return fmt.Errorf("encode scoring map: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO versus_categories (category_id, weightage, scoring_map, specs)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category_id) DO UPDATE SET
			weightage = EXCLUDED.weightage, scoring_map = EXCLUDED.scoring_map,
			specs = EXCLUDED.specs, updated_at = now()`,
		cfg.ID, weightsJSON, scoringJSON, cfg.Specs,
	)
	return err
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	p := &catalog.Product{}
	var priceJSON, specsJSON []byte
	if err := row.Scan(&p.ID, &p.Category, &p.Name, &p.Brand, &priceJSON, &specsJSON, &p.Image, &p.BuyURL); err != nil {
		return nil, err
	}
	if len(priceJSON) > 0 {
		if err := json.Unmarshal(priceJSON, &p.Price); err != nil {
			return nil, fmt.Errorf("decode price for %s: %w", p.ID, err)
		}
	}
	if err := json.Unmarshal(specsJSON, &p.Attributes); err != nil {
		return nil, fmt.Errorf("decode specs for %s: %w", p.ID, err)
	}
	return p, nil
}
