package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evalyhq/shoplens/internal/adapter/driving/web"
	"github.com/evalyhq/shoplens/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CredentialsRequest is the JSON body for the connection test and credential
// update endpoints.
type CredentialsRequest struct {
	Domain string `json:"domain"`
	Token  string `json:"token"`
}

// ShopInfoResponse is the JSON representation of shop metadata.
type ShopInfoResponse struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Domain   string `json:"domain"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
	PlanName string `json:"plan_name"`
}

// ProductResponse is the JSON representation of a catalog product. Monetary
// fields are decimal strings to preserve exact cents.
type ProductResponse struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Handle            string  `json:"handle"`
	Status            string  `json:"status"`
	Vendor            string  `json:"vendor"`
	ProductType       string  `json:"product_type"`
	Tags              string  `json:"tags"`
	SKU               string  `json:"sku"`
	Price             string  `json:"price"`
	CompareAtPrice    *string `json:"compare_at_price"`
	InventoryQuantity int     `json:"inventory_quantity"`
	VariantCount      int     `json:"variant_count"`
	ImageURL          string  `json:"image_url"`
	StorefrontURL     string  `json:"storefront_url"`
	Discounted        bool    `json:"discounted"`
	CreatedAt         string  `json:"created_at"`
	FetchedAt         string  `json:"fetched_at"`
}

// ProductDetailResponse extends ProductResponse with the sanitized
// description for the single-product endpoint.
type ProductDetailResponse struct {
	ProductResponse
	DescriptionHTML string `json:"description_html"`
}

// AnalysisResponse is the JSON representation of a stored analysis.
type AnalysisResponse struct {
	ID            string `json:"id"`
	ProductID     int64  `json:"product_id,omitempty"`
	ProductTitle  string `json:"product_title"`
	Cost          string `json:"cost"`
	Price         string `json:"price"`
	Profit        string `json:"profit"`
	MarginPercent string `json:"margin_percent"`
	MarkupPercent string `json:"markup_percent"`
	Verdict       string `json:"verdict"`
	Notes         string `json:"notes"`
	NotesHTML     string `json:"notes_html"`
	CreatedAt     string `json:"created_at"`
}

// CreateAnalysisRequest is the JSON body for the create analysis endpoint.
// Cost and price accept both quoted and bare JSON numbers.
type CreateAnalysisRequest struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Cost      decimal.Decimal `json:"cost"`
	Price     decimal.Decimal `json:"price"`
	Notes     string          `json:"notes"`
}

// RefreshResponse is the JSON representation of a completed catalog refresh.
type RefreshResponse struct {
	Products int `json:"products"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toShopInfoResponse converts domain shop metadata to its JSON representation.
func toShopInfoResponse(info model.ShopInfo) ShopInfoResponse {
	return ShopInfoResponse{
		Name:     info.Name,
		Email:    info.Email,
		Domain:   info.Domain,
		Currency: info.Currency,
		Timezone: info.Timezone,
		PlanName: info.PlanName,
	}
}

// toProductResponse converts a domain Product to its JSON representation.
func toProductResponse(p model.Product, shopDomain string) ProductResponse {
	var compareAt *string
	if p.CompareAtPrice != nil {
		s := p.CompareAtPrice.StringFixed(2)
		compareAt = &s
	}

	return ProductResponse{
		ID:                p.ID,
		Title:             p.Title,
		Handle:            p.Handle,
		Status:            string(p.Status),
		Vendor:            p.Vendor,
		ProductType:       p.ProductType,
		Tags:              p.Tags,
		SKU:               p.SKU,
		Price:             p.Price.StringFixed(2),
		CompareAtPrice:    compareAt,
		InventoryQuantity: p.InventoryQuantity,
		VariantCount:      p.VariantCount,
		ImageURL:          p.ImageURL,
		StorefrontURL:     p.StorefrontURL(shopDomain),
		Discounted:        p.IsDiscounted(),
		CreatedAt:         formatTime(p.CreatedAt),
		FetchedAt:         formatTime(p.FetchedAt),
	}
}

// toProductDetailResponse adds the sanitized description to the base response.
func toProductDetailResponse(p model.Product, shopDomain string) ProductDetailResponse {
	return ProductDetailResponse{
		ProductResponse: toProductResponse(p, shopDomain),
		DescriptionHTML: web.SanitizeHTML(p.BodyHTML),
	}
}

// toAnalysisResponse converts a domain Analysis to its JSON representation.
func toAnalysisResponse(a model.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:            a.ID,
		ProductID:     a.ProductID,
		ProductTitle:  a.ProductTitle,
		Cost:          a.Cost.StringFixed(2),
		Price:         a.Price.StringFixed(2),
		Profit:        a.Profit.StringFixed(2),
		MarginPercent: a.MarginPercent.StringFixed(2),
		MarkupPercent: a.MarkupPercent.StringFixed(2),
		Verdict:       string(a.Verdict),
		Notes:         a.Notes,
		NotesHTML:     web.RenderMarkdown(a.Notes),
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// formatTime renders t as RFC3339, or empty string for the zero value.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
