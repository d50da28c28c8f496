package shopify

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evalyhq/shoplens/internal/domain/model"
)

// APIError is a non-2xx Admin API response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api: status %d: %s", e.StatusCode, e.Body)
}

// asAPIError unwraps err into *APIError, mirroring errors.As with a narrower
// signature for call-site readability.
func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}

// Wire shapes of the Admin REST API. Prices arrive as JSON strings
// ("24.99"); decimal.Decimal accepts both quoted and bare numbers.

type shopEnvelope struct {
	Shop shopJSON `json:"shop"`
}

type shopJSON struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Domain       string `json:"domain"`
	Currency     string `json:"currency"`
	IANATimezone string `json:"iana_timezone"`
	PlanName     string `json:"plan_name"`
}

type productsEnvelope struct {
	Products []productJSON `json:"products"`
}

type productEnvelope struct {
	Product productJSON `json:"product"`
}

type productJSON struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Handle      string        `json:"handle"`
	Status      string        `json:"status"`
	Vendor      string        `json:"vendor"`
	ProductType string        `json:"product_type"`
	Tags        string        `json:"tags"`
	BodyHTML    string        `json:"body_html"`
	CreatedAt   string        `json:"created_at"`
	Variants    []variantJSON `json:"variants"`
	Images      []imageJSON   `json:"images"`
}

type variantJSON struct {
	ID                int64            `json:"id"`
	SKU               string           `json:"sku"`
	Price             decimal.Decimal  `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price"`
	InventoryQuantity int              `json:"inventory_quantity"`
}

type imageJSON struct {
	Src string `json:"src"`
}

// mapProduct converts a wire product to the domain model, flattening pricing
// from the first variant the way the analyzer consumes it.
func mapProduct(p productJSON, fetchedAt time.Time) model.Product {
	product := model.Product{
		ID:           p.ID,
		Title:        p.Title,
		Handle:       p.Handle,
		Status:       model.ProductStatus(p.Status),
		Vendor:       p.Vendor,
		ProductType:  p.ProductType,
		Tags:         p.Tags,
		BodyHTML:     p.BodyHTML,
		VariantCount: len(p.Variants),
		FetchedAt:    fetchedAt,
	}

	if len(p.Variants) > 0 {
		v := p.Variants[0]
		product.SKU = v.SKU
		product.Price = v.Price
		product.CompareAtPrice = v.CompareAtPrice
		product.InventoryQuantity = v.InventoryQuantity
	}

	if len(p.Images) > 0 {
		product.ImageURL = p.Images[0].Src
	}

	// Malformed timestamps leave CreatedAt zero rather than failing the fetch.
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		product.CreatedAt = t
	}

	return product
}
