package registry

import (
	"context"
	"fmt"
	"sync"

	"infospace/internal/infra/provider/embedding"
)

// EmbeddingProviderRegistryService holds every configured embedding
// provider and resolves one by name for AssetEmbeddingRepo writes/searches.
type EmbeddingProviderRegistryService struct {
	mu        sync.RWMutex
	providers map[string]embedding.Provider
	defaultProvider string
}

func NewEmbeddingProviderRegistryService(defaultProvider string, providers ...embedding.Provider) *EmbeddingProviderRegistryService {
	r := &EmbeddingProviderRegistryService{
		providers:       make(map[string]embedding.Provider, len(providers)),
		defaultProvider: defaultProvider,
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Provider returns the named embedding provider, or the default when name
// is empty.
func (r *EmbeddingProviderRegistryService) Provider(name string) (embedding.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("registry: embedding provider %q is not registered", name)
	}
	return p, nil
}

// Embed resolves the named provider and embeds texts with it.
func (r *EmbeddingProviderRegistryService) Embed(ctx context.Context, providerName, model string, texts []string) ([][]float32, error) {
	p, err := r.Provider(providerName)
	if err != nil {
		return nil, err
	}
	return p.Embed(ctx, texts, model)
}

func (r *EmbeddingProviderRegistryService) AvailableProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}
