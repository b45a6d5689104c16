package store

import (
	"context"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

// Store is a writable catalog backend.
type Store interface {
	catalog.Source

	UpsertProduct(ctx context.Context, p *catalog.Product) error
	UpsertCategory(ctx context.Context, cfg *catalog.CategoryConfig) error
	Close() error
}
