package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evalyhq/shoplens/internal/adapter/driven/shopify"
	"github.com/evalyhq/shoplens/internal/application"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	connector *application.ConnectorService
	catalog   *application.CatalogService
	analyzer  *application.AnalyzerService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	connector *application.ConnectorService,
	catalog *application.CatalogService,
	analyzer *application.AnalyzerService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		connector: connector,
		catalog:   catalog,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers all REST API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/v1/connection/test", h.TestConnection)
	mux.HandleFunc("PUT /api/v1/credentials", h.UpdateCredentials)
	mux.HandleFunc("GET /api/v1/shop", h.GetShop)
	mux.HandleFunc("GET /api/v1/products", h.ListProducts)
	mux.HandleFunc("GET /api/v1/products/search", h.SearchProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/v1/products/refresh", h.RefreshProducts)
	mux.HandleFunc("POST /api/v1/analyses", h.CreateAnalysis)
	mux.HandleFunc("GET /api/v1/analyses", h.ListAnalyses)
	mux.HandleFunc("GET /api/v1/analyses/{id}", h.GetAnalysis)
	mux.HandleFunc("DELETE /api/v1/analyses/{id}", h.DeleteAnalysis)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// TestConnection validates a credential pair without touching the live client.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := h.connector.TestConnection(r.Context(), req.Domain, req.Token)
	if err != nil {
		h.writeConnectionError(w, "connection test", err)
		return
	}

	writeJSON(w, http.StatusOK, toShopInfoResponse(*info))
}

// UpdateCredentials validates a credential pair, swaps the live client, and
// persists the pair when the encrypted store is enabled.
func (h *Handler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := h.connector.UpdateCredentials(r.Context(), req.Domain, req.Token)
	if err != nil {
		h.writeConnectionError(w, "credential update", err)
		return
	}

	writeJSON(w, http.StatusOK, toShopInfoResponse(*info))
}

// GetShop returns shop metadata via the live client.
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	info, err := h.connector.ShopInfo(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrNotConnected) {
			writeError(w, http.StatusConflict, "not connected to a shop")
			return
		}
		h.logger.Error("failed to fetch shop info", "error", err)
		writeError(w, http.StatusBadGateway, "failed to connect to shop")
		return
	}

	writeJSON(w, http.StatusOK, toShopInfoResponse(*info))
}

// ListProducts returns the cached catalog snapshot.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	shopDomain := h.catalog.ShopDomain()
	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p, shopDomain))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetProduct returns a single product with its sanitized description, served
// from the snapshot with a live-fetch fallback on a miss.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	writeJSON(w, http.StatusOK, toProductDetailResponse(*product, h.catalog.ShopDomain()))
}

// SearchProducts runs a live title search against the shop.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	products, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, application.ErrNotConnected) {
			writeError(w, http.StatusConflict, "not connected to a shop")
			return
		}
		h.logger.Error("product search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "error fetching products")
		return
	}

	shopDomain := h.catalog.ShopDomain()
	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p, shopDomain))
	}

	writeJSON(w, http.StatusOK, resp)
}

// RefreshProducts triggers a manual catalog refresh and blocks until done.
func (h *Handler) RefreshProducts(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		if errors.Is(err, application.ErrNotConnected) {
			writeError(w, http.StatusConflict, "not connected to a shop")
			return
		}
		h.logger.Error("catalog refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "error fetching products")
		return
	}

	count, err := h.catalog.Count(r.Context())
	if err != nil {
		h.logger.Error("failed to count refreshed products", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{Products: count})
}

// CreateAnalysis evaluates a cost/price pair and persists the result.
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), application.AnalyzeInput{
		ProductID: req.ProductID,
		Title:     req.Title,
		Cost:      req.Cost,
		Price:     req.Price,
		Notes:     req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrAnalysisTitleRequired),
			errors.Is(err, application.ErrAnalysisPriceInvalid),
			errors.Is(err, application.ErrAnalysisCostInvalid):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create analysis", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAnalysisResponse(*analysis))
}

// ListAnalyses returns all stored analyses, newest first.
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.analyzer.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list analyses", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AnalysisResponse, 0, len(analyses))
	for _, a := range analyses {
		resp = append(resp, toAnalysisResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetAnalysis returns a single analysis by ID.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.analyzer.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, driven.ErrAnalysisNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		h.logger.Error("failed to get analysis", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toAnalysisResponse(*analysis))
}

// DeleteAnalysis removes an analysis by ID.
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := h.analyzer.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, driven.ErrAnalysisNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		h.logger.Error("failed to delete analysis", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeConnectionError maps connection failures onto the API surface: missing
// fields are a 400, everything upstream collapses to one 502 message while the
// cause is logged.
func (h *Handler) writeConnectionError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, application.ErrNotConnected) {
		writeError(w, http.StatusBadRequest, "shop domain and access token are required")
		return
	}

	var apiErr *shopify.APIError
	if errors.As(err, &apiErr) {
		h.logger.Warn(op+" rejected by shop", "status", apiErr.StatusCode)
	} else {
		h.logger.Error(op+" failed", "error", err)
	}

	writeError(w, http.StatusBadGateway, "failed to connect to shop")
}
