// Package application contains use-case orchestration services.
package application

import (
	"errors"
	"sync"

	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// ErrNotConnected is returned by operations that need a live shop client when
// no credentials have been configured yet.
var ErrNotConnected = errors.New("not connected to a store")

// ShopClientProvider enables runtime hot-swap of the shop client. It holds a
// mutex-protected reference to the current driven.ShopClient, allowing
// credential updates to take effect without restarting the application.
type ShopClientProvider struct {
	mu     sync.RWMutex
	client driven.ShopClient
}

// NewShopClientProvider creates a new provider with the given initial client.
// client may be nil if no credentials are available at startup.
func NewShopClientProvider(client driven.ShopClient) *ShopClientProvider {
	return &ShopClientProvider{client: client}
}

// Get returns the current shop client. Callers should check for nil if the
// provider was created without initial credentials.
func (p *ShopClientProvider) Get() driven.ShopClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Replace swaps the current client with a new one. This is used when
// credentials are updated via the panel. The next caller of Get() receives
// the new client.
func (p *ShopClientProvider) Replace(client driven.ShopClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
}

// HasClient returns true if a non-nil client is currently held.
func (p *ShopClientProvider) HasClient() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}
