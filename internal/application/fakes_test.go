package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// fakeShopClient implements driven.ShopClient with injectable behavior.
type fakeShopClient struct {
	domain      string
	shopInfo    *model.ShopInfo
	shopInfoErr error
	products    []model.Product
	productsErr error
	fetchCalls   int
	lastLimit    int
	productCalls int
	searchCalls  int
	lastQuery    string
}

var _ driven.ShopClient = (*fakeShopClient)(nil)

func (f *fakeShopClient) FetchShopInfo(ctx context.Context) (*model.ShopInfo, error) {
	if f.shopInfoErr != nil {
		return nil, f.shopInfoErr
	}
	return f.shopInfo, nil
}

func (f *fakeShopClient) FetchProducts(ctx context.Context, limit int) ([]model.Product, error) {
	f.fetchCalls++
	f.lastLimit = limit
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return f.products, nil
}

func (f *fakeShopClient) FetchProduct(ctx context.Context, id int64) (*model.Product, error) {
	f.productCalls++
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeShopClient) SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error) {
	f.searchCalls++
	f.lastQuery = query
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return f.products, nil
}

func (f *fakeShopClient) ShopDomain() string { return f.domain }

// fakeProductStore is an in-memory driven.ProductStore.
type fakeProductStore struct {
	mu       sync.Mutex
	products map[int64]model.Product
	saveErr  error
}

var _ driven.ProductStore = (*fakeProductStore)(nil)

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[int64]model.Product)}
}

func (f *fakeProductStore) ReplaceAll(ctx context.Context, products []model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.products = make(map[int64]model.Product, len(products))
	for _, p := range products {
		f.products[p.ID] = p
	}
	return nil
}

func (f *fakeProductStore) ListAll(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProductStore) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeProductStore) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products), nil
}

// fakeCredentialStore is an in-memory driven.CredentialStore. disabled
// simulates the key-less configuration.
type fakeCredentialStore struct {
	mu       sync.Mutex
	values   map[string]string
	disabled bool
}

var _ driven.CredentialStore = (*fakeCredentialStore)(nil)

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{values: make(map[string]string)}
}

func (f *fakeCredentialStore) Set(ctx context.Context, key, plaintext string) error {
	if f.disabled {
		return driven.ErrEncryptionKeyNotSet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = plaintext
	return nil
}

func (f *fakeCredentialStore) Get(ctx context.Context, key string) (string, error) {
	if f.disabled {
		return "", driven.ErrEncryptionKeyNotSet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeCredentialStore) List(ctx context.Context) ([]model.Credential, error) {
	if f.disabled {
		return nil, driven.ErrEncryptionKeyNotSet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Credential, 0, len(f.values))
	for k, v := range f.values {
		out = append(out, model.Credential{Key: k, Value: v})
	}
	return out, nil
}

func (f *fakeCredentialStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

// fakeAnalysisStore is an in-memory driven.AnalysisStore.
type fakeAnalysisStore struct {
	mu       sync.Mutex
	analyses map[string]model.Analysis
	saveErr  error
}

var _ driven.AnalysisStore = (*fakeAnalysisStore)(nil)

func newFakeAnalysisStore() *fakeAnalysisStore {
	return &fakeAnalysisStore{analyses: make(map[string]model.Analysis)}
}

func (f *fakeAnalysisStore) Save(ctx context.Context, a model.Analysis) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses[a.ID] = a
	return nil
}

func (f *fakeAnalysisStore) GetByID(ctx context.Context, id string) (*model.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.analyses[id]; ok {
		return &a, nil
	}
	return nil, driven.ErrAnalysisNotFound
}

func (f *fakeAnalysisStore) ListAll(ctx context.Context) ([]model.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Analysis, 0, len(f.analyses))
	for _, a := range f.analyses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAnalysisStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.analyses[id]; !ok {
		return driven.ErrAnalysisNotFound
	}
	delete(f.analyses, id)
	return nil
}

var errUpstream = errors.New("upstream failure")
