// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/evalyhq/shoplens/internal/domain/model"
)

// MaxFetchLimit is the hard cap on products returned by a single catalog fetch.
const MaxFetchLimit = 50

// MaxSearchLimit is the hard cap on results returned by a title search.
const MaxSearchLimit = 20

// ShopClient defines the driven port for the store's Admin REST API.
// Implementations clamp limits to MaxFetchLimit / MaxSearchLimit and never
// paginate past the first page.
type ShopClient interface {
	// FetchShopInfo retrieves shop metadata. A successful call doubles as the
	// connection test: any failure (bad domain, bad token, missing scope)
	// surfaces as an error.
	FetchShopInfo(ctx context.Context) (*model.ShopInfo, error)

	// FetchProducts retrieves up to limit products, most recent first.
	// limit values outside (0, MaxFetchLimit] are clamped to MaxFetchLimit.
	FetchProducts(ctx context.Context, limit int) ([]model.Product, error)

	// FetchProduct retrieves a single product by its store ID.
	// Returns nil, nil when the product does not exist.
	FetchProduct(ctx context.Context, id int64) (*model.Product, error)

	// SearchProducts retrieves products whose title matches query.
	// limit values outside (0, MaxSearchLimit] are clamped to MaxSearchLimit.
	SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error)

	// ShopDomain returns the normalized bare host the client talks to.
	ShopDomain() string
}
