package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// refreshRequest represents a manual catalog refresh trigger.
type refreshRequest struct {
	done chan error
}

// CatalogService keeps the local product snapshot in sync with the store.
// Each refresh is one bounded fetch (≤50 products) followed by an atomic
// snapshot replacement; there is no pagination and no retry.
type CatalogService struct {
	provider     *ShopClientProvider
	productStore driven.ProductStore
	interval     time.Duration
	refreshCh    chan refreshRequest
}

// NewCatalogService creates a CatalogService. interval 0 disables periodic
// refresh; manual refreshes still work.
func NewCatalogService(provider *ShopClientProvider, productStore driven.ProductStore, interval time.Duration) *CatalogService {
	return &CatalogService{
		provider:     provider,
		productStore: productStore,
		interval:     interval,
		refreshCh:    make(chan refreshRequest),
	}
}

// Start begins the refresh loop. When a client is configured it runs an
// immediate refresh, then refreshes on the configured interval. It also
// listens for manual refresh requests. Start blocks until the context is
// canceled.
func (s *CatalogService) Start(ctx context.Context) {
	if s.provider.HasClient() {
		if err := s.refreshOnce(ctx); err != nil {
			slog.Error("initial catalog refresh failed", "error", err)
		}
	}

	var tickerCh <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tickerCh = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog service stopped")
			return
		case <-tickerCh:
			if err := s.refreshOnce(ctx); err != nil {
				slog.Error("catalog refresh failed", "error", err)
			}
		case req := <-s.refreshCh:
			req.done <- s.refreshOnce(ctx)
		}
	}
}

// Refresh triggers a manual catalog refresh, bypassing the interval. It
// blocks until the refresh completes or the context is canceled.
func (s *CatalogService) Refresh(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.refreshCh <- refreshRequest{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Products returns the cached snapshot.
func (s *CatalogService) Products(ctx context.Context) ([]model.Product, error) {
	return s.productStore.ListAll(ctx)
}

// Product returns one cached product. On a snapshot miss it falls back to a
// live fetch when a client is configured; a disconnected miss is nil, nil.
func (s *CatalogService) Product(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.productStore.GetByID(ctx, id)
	if err != nil || p != nil {
		return p, err
	}

	client := s.provider.Get()
	if client == nil {
		return nil, nil
	}
	return client.FetchProduct(ctx, id)
}

// Count returns the size of the cached snapshot.
func (s *CatalogService) Count(ctx context.Context) (int, error) {
	return s.productStore.Count(ctx)
}

// Search runs a live title search against the store, capped at 20 results.
func (s *CatalogService) Search(ctx context.Context, query string) ([]model.Product, error) {
	client := s.provider.Get()
	if client == nil {
		return nil, ErrNotConnected
	}
	return client.SearchProducts(ctx, query, driven.MaxSearchLimit)
}

// ShopDomain returns the connected shop's domain, or "" when no client is
// configured.
func (s *CatalogService) ShopDomain() string {
	if client := s.provider.Get(); client != nil {
		return client.ShopDomain()
	}
	return ""
}

func (s *CatalogService) refreshOnce(ctx context.Context) error {
	client := s.provider.Get()
	if client == nil {
		return ErrNotConnected
	}

	start := time.Now()
	products, err := client.FetchProducts(ctx, driven.MaxFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}

	if err := s.productStore.ReplaceAll(ctx, products); err != nil {
		return fmt.Errorf("store products: %w", err)
	}

	slog.Info("catalog refreshed",
		"shop", client.ShopDomain(),
		"products", len(products),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}
