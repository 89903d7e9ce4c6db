package registry

import (
	"context"
	"fmt"
	"sync"

	"infospace/internal/infra/provider/search"
)

// SearchProviderRegistryService holds configured web-search providers for
// the "search" ingestion handler.
type SearchProviderRegistryService struct {
	mu              sync.RWMutex
	providers       map[string]search.Provider
	defaultProvider string
}

func NewSearchProviderRegistryService(defaultProvider string, providers ...search.Provider) *SearchProviderRegistryService {
	r := &SearchProviderRegistryService{
		providers:       make(map[string]search.Provider, len(providers)),
		defaultProvider: defaultProvider,
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *SearchProviderRegistryService) Provider(name string) (search.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("registry: search provider %q is not registered", name)
	}
	return p, nil
}

func (r *SearchProviderRegistryService) Search(ctx context.Context, providerName, query string, maxResults int) ([]search.Result, error) {
	p, err := r.Provider(providerName)
	if err != nil {
		return nil, err
	}
	return p.Search(ctx, query, maxResults)
}
