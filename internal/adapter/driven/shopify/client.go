// Package shopify implements the ShopClient port against the Admin REST API.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ShopClient = (*Client)(nil)

const (
	// DefaultAPIVersion is the Admin API version used when none is configured.
	DefaultAPIVersion = "2024-01"

	defaultRateLimit = 2 // Shopify REST bucket refills at 2 requests/second.
	requestTimeout   = 30 * time.Second
)

// Client implements the driven.ShopClient port over the Admin REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string // "https://<domain>/admin/api/<version>" with no trailing slash.
	domain     string
}

// NewClient creates a shop client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. token-bucket throttle (blocks at the store's requests-per-second allowance)
//  3. access-token header injection
func NewClient(domain, token, apiVersion string, qps float64) *Client {
	domain = NormalizeDomain(domain)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	throttled := newThrottledTransport(qps, cacheTransport)

	return &Client{
		httpClient: &http.Client{
			Transport: &authTransport{token: token, next: throttled},
			Timeout:   requestTimeout,
		},
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", domain, apiVersion),
		domain:  domain,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server. baseURL stands in for "https://<domain>/admin/api/<version>".
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, domain, token string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &authTransport{token: token, next: transportOrDefault(httpClient)},
			Timeout:   httpClient.Timeout,
		},
		baseURL: strings.TrimSuffix(u.String(), "/"),
		domain:  NormalizeDomain(domain),
	}, nil
}

func transportOrDefault(c *http.Client) http.RoundTripper {
	if c.Transport != nil {
		return c.Transport
	}
	return http.DefaultTransport
}

// NormalizeDomain strips scheme prefixes and trailing slashes from a store
// domain and appends ".myshopify.com" to bare single-label names, so user
// input like "https://mystore.myshopify.com/" or "mystore" both resolve to
// "mystore.myshopify.com".
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")
	if domain != "" && !strings.Contains(domain, ".") {
		domain += ".myshopify.com"
	}
	return domain
}

// ShopDomain returns the normalized bare host the client talks to.
func (c *Client) ShopDomain() string {
	return c.domain
}

// FetchShopInfo retrieves shop metadata from /shop.json. Any failure mode
// (unknown host, bad token, missing scope) surfaces as an error; callers
// collapse those into a single user-facing message.
func (c *Client) FetchShopInfo(ctx context.Context) (*model.ShopInfo, error) {
	var payload shopEnvelope
	if err := c.get(ctx, "/shop.json", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetching shop info for %s: %w", c.domain, err)
	}

	return &model.ShopInfo{
		Name:     payload.Shop.Name,
		Email:    payload.Shop.Email,
		Domain:   payload.Shop.Domain,
		Currency: payload.Shop.Currency,
		Timezone: payload.Shop.IANATimezone,
		PlanName: payload.Shop.PlanName,
	}, nil
}

// FetchProducts retrieves up to limit products from /products.json, most
// recent first. limit values outside (0, MaxFetchLimit] are clamped.
// No pagination: one bounded request per call.
func (c *Client) FetchProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > driven.MaxFetchLimit {
		limit = driven.MaxFetchLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("order", "created_at desc")

	var payload productsEnvelope
	if err := c.get(ctx, "/products.json", query, &payload); err != nil {
		return nil, fmt.Errorf("fetching products for %s: %w", c.domain, err)
	}

	// The cap holds even when the store ignores the limit parameter.
	if len(payload.Products) > limit {
		payload.Products = payload.Products[:limit]
	}

	now := time.Now().UTC()
	products := make([]model.Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		products = append(products, mapProduct(p, now))
	}

	slog.Debug("shopify products fetched", "shop", c.domain, "count", len(products), "limit", limit)

	return products, nil
}

// FetchProduct retrieves a single product from /products/{id}.json.
// Returns nil, nil when the store reports 404.
func (c *Client) FetchProduct(ctx context.Context, id int64) (*model.Product, error) {
	var payload productEnvelope
	err := c.get(ctx, fmt.Sprintf("/products/%d.json", id), nil, &payload)
	if err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching product %d for %s: %w", id, c.domain, err)
	}

	product := mapProduct(payload.Product, time.Now().UTC())
	return &product, nil
}

// SearchProducts retrieves products whose title matches query, capped at
// MaxSearchLimit results.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > driven.MaxSearchLimit {
		limit = driven.MaxSearchLimit
	}

	params := url.Values{}
	params.Set("title", query)
	params.Set("limit", strconv.Itoa(limit))

	var payload productsEnvelope
	if err := c.get(ctx, "/products.json", params, &payload); err != nil {
		return nil, fmt.Errorf("searching products %q for %s: %w", query, c.domain, err)
	}

	// The cap holds even when the store ignores the limit parameter.
	if len(payload.Products) > limit {
		payload.Products = payload.Products[:limit]
	}

	now := time.Now().UTC()
	products := make([]model.Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		products = append(products, mapProduct(p, now))
	}

	return products, nil
}

// get issues one GET request against the Admin API and decodes the JSON body
// into out. Non-2xx responses become *APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 512),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
