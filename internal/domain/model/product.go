// Package model contains the domain entities shared across ports and adapters.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is the publication state reported by the store.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is a snapshot of a store product at fetch time. Pricing fields are
// flattened from the product's first variant; VariantCount preserves how many
// variants the product actually has.
type Product struct {
	ID                int64
	Title             string
	Handle            string
	Status            ProductStatus
	Vendor            string
	ProductType       string
	Tags              string
	BodyHTML          string
	SKU               string
	Price             decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	InventoryQuantity int
	VariantCount      int
	ImageURL          string
	CreatedAt         time.Time
	FetchedAt         time.Time
}

// StorefrontURL returns the public product page URL for the given shop domain.
// Returns empty string when the product has no handle.
func (p Product) StorefrontURL(shopDomain string) string {
	if p.Handle == "" || shopDomain == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/products/%s", shopDomain, p.Handle)
}

// IsDiscounted reports whether the product currently sells below its
// compare-at price.
func (p Product) IsDiscounted() bool {
	return p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price)
}
