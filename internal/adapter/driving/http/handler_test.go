package httphandler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalyhq/shoplens/internal/adapter/driven/shopify"
	httphandler "github.com/evalyhq/shoplens/internal/adapter/driving/http"
	"github.com/evalyhq/shoplens/internal/application"
	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockShopClient struct {
	domain      string
	shopInfo    *model.ShopInfo
	shopInfoErr error
	products    []model.Product
	productsErr error
}

func (m *mockShopClient) FetchShopInfo(_ context.Context) (*model.ShopInfo, error) {
	return m.shopInfo, m.shopInfoErr
}

func (m *mockShopClient) FetchProducts(_ context.Context, _ int) ([]model.Product, error) {
	return m.products, m.productsErr
}

func (m *mockShopClient) FetchProduct(_ context.Context, id int64) (*model.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockShopClient) SearchProducts(_ context.Context, _ string, _ int) ([]model.Product, error) {
	return m.products, m.productsErr
}

func (m *mockShopClient) ShopDomain() string { return m.domain }

type mockProductStore struct {
	products []model.Product
	err      error
}

func (m *mockProductStore) ReplaceAll(_ context.Context, products []model.Product) error {
	if m.err != nil {
		return m.err
	}
	m.products = products
	return nil
}

func (m *mockProductStore) ListAll(_ context.Context) ([]model.Product, error) {
	return m.products, m.err
}

func (m *mockProductStore) GetByID(_ context.Context, id int64) (*model.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockProductStore) Count(_ context.Context) (int, error) {
	return len(m.products), m.err
}

type mockCredentialStore struct {
	values map[string]string
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{values: make(map[string]string)}
}

func (m *mockCredentialStore) Set(_ context.Context, key, plaintext string) error {
	m.values[key] = plaintext
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *mockCredentialStore) List(_ context.Context) ([]model.Credential, error) {
	out := make([]model.Credential, 0, len(m.values))
	for k, v := range m.values {
		out = append(out, model.Credential{Key: k, Value: v})
	}
	return out, nil
}

func (m *mockCredentialStore) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

type mockAnalysisStore struct {
	analyses map[string]model.Analysis
	saveErr  error
}

func newMockAnalysisStore() *mockAnalysisStore {
	return &mockAnalysisStore{analyses: make(map[string]model.Analysis)}
}

func (m *mockAnalysisStore) Save(_ context.Context, a model.Analysis) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.analyses[a.ID] = a
	return nil
}

func (m *mockAnalysisStore) GetByID(_ context.Context, id string) (*model.Analysis, error) {
	if a, ok := m.analyses[id]; ok {
		return &a, nil
	}
	return nil, driven.ErrAnalysisNotFound
}

func (m *mockAnalysisStore) ListAll(_ context.Context) ([]model.Analysis, error) {
	out := make([]model.Analysis, 0, len(m.analyses))
	for _, a := range m.analyses {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAnalysisStore) Delete(_ context.Context, id string) error {
	if _, ok := m.analyses[id]; !ok {
		return driven.ErrAnalysisNotFound
	}
	delete(m.analyses, id)
	return nil
}

// --- Test setup ---

type testEnv struct {
	mux       *http.ServeMux
	catalog   *application.CatalogService
	credStore *mockCredentialStore
	products  *mockProductStore
	analyses  *mockAnalysisStore
}

// newTestEnv wires real services around mocks. live is the client already
// connected (nil for disconnected); factory is returned for new credential
// pairs.
func newTestEnv(t *testing.T, live driven.ShopClient, factory driven.ShopClient) *testEnv {
	t.Helper()

	env := &testEnv{
		credStore: newMockCredentialStore(),
		products:  &mockProductStore{},
		analyses:  newMockAnalysisStore(),
	}

	provider := application.NewShopClientProvider(live)
	connector := application.NewConnectorService(provider, env.credStore, func(domain, token string) driven.ShopClient {
		return factory
	})
	env.catalog = application.NewCatalogService(provider, env.products, 0)
	analyzer := application.NewAnalyzerService(env.analyses, env.products)

	h := httphandler.NewHandler(connector, env.catalog, analyzer, slog.Default())
	env.mux = http.NewServeMux()
	httphandler.RegisterAPIRoutes(env.mux, h)

	return env
}

// startCatalog runs the catalog loop so blocking refreshes complete.
func (env *testEnv) startCatalog(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.catalog.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func fixtureProduct() model.Product {
	return model.Product{
		ID:       101,
		Title:    "Red Light Therapy Belt",
		Handle:   "red-light-therapy-belt",
		Status:   model.ProductStatusActive,
		SKU:      "RLT-1",
		Price:    decimal.RequireFromString("129.00"),
		BodyHTML: `<p>Feel better.</p><script>alert(1)</script>`,
	}
}

// --- Tests ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestTestConnection(t *testing.T) {
	factory := &mockShopClient{
		domain:   "mystore.myshopify.com",
		shopInfo: &model.ShopInfo{Name: "My Store", Currency: "USD"},
	}
	env := newTestEnv(t, nil, factory)

	rec := env.do(http.MethodPost, "/api/v1/connection/test",
		`{"domain":"mystore","token":"shpat_abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "My Store", resp["name"])
	assert.Equal(t, "USD", resp["currency"])
}

func TestTestConnection_MissingFields(t *testing.T) {
	env := newTestEnv(t, nil, &mockShopClient{})

	rec := env.do(http.MethodPost, "/api/v1/connection/test", `{"domain":"mystore"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestConnection_InvalidBody(t *testing.T) {
	env := newTestEnv(t, nil, &mockShopClient{})

	rec := env.do(http.MethodPost, "/api/v1/connection/test", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestConnection_UpstreamRejection(t *testing.T) {
	factory := &mockShopClient{
		shopInfoErr: &shopify.APIError{StatusCode: http.StatusUnauthorized, Body: "unauthorized"},
	}
	env := newTestEnv(t, nil, factory)

	rec := env.do(http.MethodPost, "/api/v1/connection/test",
		`{"domain":"mystore","token":"bad"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to connect to shop", resp["error"])
}

func TestUpdateCredentials(t *testing.T) {
	factory := &mockShopClient{
		domain:   "mystore.myshopify.com",
		shopInfo: &model.ShopInfo{Name: "My Store"},
	}
	env := newTestEnv(t, nil, factory)

	rec := env.do(http.MethodPut, "/api/v1/credentials",
		`{"domain":"mystore","token":"shpat_abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The pair is persisted and the live client is available to the catalog.
	assert.Equal(t, "mystore.myshopify.com", env.credStore.values[application.CredentialKeyDomain])
	assert.Equal(t, "shpat_abc", env.credStore.values[application.CredentialKeyToken])
	assert.Equal(t, "mystore.myshopify.com", env.catalog.ShopDomain())
}

func TestGetShop_NotConnected(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/v1/shop", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetShop(t *testing.T) {
	live := &mockShopClient{
		domain:   "mystore.myshopify.com",
		shopInfo: &model.ShopInfo{Name: "My Store", Domain: "mystore.myshopify.com"},
	}
	env := newTestEnv(t, live, nil)

	rec := env.do(http.MethodGet, "/api/v1/shop", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "My Store", resp["name"])
}

func TestListProducts(t *testing.T) {
	live := &mockShopClient{domain: "mystore.myshopify.com"}
	env := newTestEnv(t, live, nil)
	env.products.products = []model.Product{fixtureProduct()}

	rec := env.do(http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "129.00", resp[0]["price"])
	assert.Equal(t, "https://mystore.myshopify.com/products/red-light-therapy-belt", resp[0]["storefront_url"])
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.products.products = []model.Product{fixtureProduct()}

	rec := env.do(http.MethodGet, "/api/v1/products/101", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Merchant HTML is sanitized before it reaches the panel.
	desc, _ := resp["description_html"].(string)
	assert.Contains(t, desc, "<p>Feel better.</p>")
	assert.NotContains(t, desc, "<script>")
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/v1/products/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/v1/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchProducts(t *testing.T) {
	live := &mockShopClient{
		domain:   "mystore.myshopify.com",
		products: []model.Product{fixtureProduct()},
	}
	env := newTestEnv(t, live, nil)

	rec := env.do(http.MethodGet, "/api/v1/products/search?q=belt", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestSearchProducts_MissingQuery(t *testing.T) {
	env := newTestEnv(t, &mockShopClient{}, nil)

	rec := env.do(http.MethodGet, "/api/v1/products/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchProducts_NotConnected(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/v1/products/search?q=belt", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshProducts(t *testing.T) {
	live := &mockShopClient{
		domain:   "mystore.myshopify.com",
		products: []model.Product{fixtureProduct()},
	}
	env := newTestEnv(t, live, nil)
	env.startCatalog(t)

	rec := env.do(http.MethodPost, "/api/v1/products/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["products"])
}

func TestRefreshProducts_NotConnected(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.startCatalog(t)

	rec := env.do(http.MethodPost, "/api/v1/products/refresh", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateAnalysis(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/v1/analyses",
		`{"title":"Red Light Therapy Belt","cost":"28.00","price":"129.00","notes":"order a **test unit**"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "GREENLIGHT", resp["verdict"])
	assert.Equal(t, "101.00", resp["profit"])
	assert.Equal(t, "78.29", resp["margin_percent"])

	// Notes come back rendered for the panel.
	notesHTML, _ := resp["notes_html"].(string)
	assert.Contains(t, notesHTML, "<strong>test unit</strong>")
}

func TestCreateAnalysis_ValidationError(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/v1/analyses", `{"title":"Widget","cost":"5.00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAnalyses(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/v1/analyses",
		`{"title":"Widget","cost":"5.00","price":"20.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/analyses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/v1/analyses/no-such-id", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAnalysis(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/v1/analyses",
		`{"title":"Widget","cost":"5.00","price":"20.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	rec = env.do(http.MethodDelete, "/api/v1/analyses/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodDelete, "/api/v1/analyses/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
