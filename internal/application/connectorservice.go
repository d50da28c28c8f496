package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// Credential keys used in the CredentialStore.
const (
	CredentialKeyDomain = "domain"
	CredentialKeyToken  = "token"
)

// ClientFactory builds a shop client for the given credentials. Injected so
// tests can substitute a fake without touching the network.
type ClientFactory func(domain, token string) driven.ShopClient

// ConnectorService handles connection testing and credential rotation.
// A successful credential update hot-swaps the live client in the provider
// and, when the encrypted store is enabled, persists the pair.
type ConnectorService struct {
	provider  *ShopClientProvider
	credStore driven.CredentialStore
	newClient ClientFactory
}

// NewConnectorService creates a ConnectorService. credStore may be a
// key-less store; persistence is then skipped silently.
func NewConnectorService(provider *ShopClientProvider, credStore driven.CredentialStore, newClient ClientFactory) *ConnectorService {
	return &ConnectorService{
		provider:  provider,
		credStore: credStore,
		newClient: newClient,
	}
}

// TestConnection validates the credential pair by fetching shop info with a
// throwaway client. It does not touch the live client or the store.
func (s *ConnectorService) TestConnection(ctx context.Context, domain, token string) (*model.ShopInfo, error) {
	cred := model.StoreCredential{Domain: domain, Token: token}
	if !cred.IsComplete() {
		return nil, ErrNotConnected
	}

	client := s.newClient(domain, token)
	info, err := client.FetchShopInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("test connection: %w", err)
	}

	return info, nil
}

// UpdateCredentials validates the pair, persists it when the encrypted store
// is enabled, and swaps the live client. The old client keeps serving
// requests already in flight.
func (s *ConnectorService) UpdateCredentials(ctx context.Context, domain, token string) (*model.ShopInfo, error) {
	info, err := s.TestConnection(ctx, domain, token)
	if err != nil {
		return nil, err
	}

	client := s.newClient(domain, token)
	s.provider.Replace(client)

	if err := s.persist(ctx, client.ShopDomain(), token); err != nil {
		// The swap already happened; losing persistence only costs the
		// operator a re-entry after restart.
		slog.Warn("credentials active but not persisted", "error", err)
	}

	slog.Info("shop client replaced", "shop", client.ShopDomain())

	return info, nil
}

// ShopInfo fetches shop metadata with the live client.
func (s *ConnectorService) ShopInfo(ctx context.Context) (*model.ShopInfo, error) {
	client := s.provider.Get()
	if client == nil {
		return nil, ErrNotConnected
	}
	return client.FetchShopInfo(ctx)
}

// StoredCredentials loads the persisted credential pair. Returns an
// incomplete pair (possibly empty) when the store is disabled or unpopulated.
func (s *ConnectorService) StoredCredentials(ctx context.Context) (model.StoreCredential, error) {
	domain, err := s.credStore.Get(ctx, CredentialKeyDomain)
	if err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			return model.StoreCredential{}, nil
		}
		return model.StoreCredential{}, fmt.Errorf("load stored domain: %w", err)
	}

	token, err := s.credStore.Get(ctx, CredentialKeyToken)
	if err != nil {
		return model.StoreCredential{}, fmt.Errorf("load stored token: %w", err)
	}

	return model.StoreCredential{Domain: domain, Token: token}, nil
}

func (s *ConnectorService) persist(ctx context.Context, domain, token string) error {
	if err := s.credStore.Set(ctx, CredentialKeyDomain, domain); err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			return nil // Memory-only mode; nothing to persist.
		}
		return err
	}
	if err := s.credStore.Set(ctx, CredentialKeyToken, token); err != nil {
		return err
	}
	return nil
}
