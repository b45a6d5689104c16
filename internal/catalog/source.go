package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Source when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Source is the remote catalog: products plus per-category scoring configs.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetCategoryConfig(ctx context.Context, categoryID string) (*CategoryConfig, error)
}
