package driven

import (
	"context"

	"github.com/evalyhq/shoplens/internal/domain/model"
)

// ProductStore defines the driven port for the local catalog snapshot.
// The cache uses a full replacement strategy: every fetch replaces the whole
// snapshot atomically, so the cache always mirrors one remote read.
type ProductStore interface {
	// ReplaceAll deletes the current snapshot and inserts the given products
	// in a single transaction.
	ReplaceAll(ctx context.Context, products []model.Product) error

	// ListAll returns the snapshot ordered most recent first (by created_at).
	ListAll(ctx context.Context) ([]model.Product, error)

	// GetByID returns one cached product. Returns nil, nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Count returns the number of products in the snapshot.
	Count(ctx context.Context) (int, error)
}
