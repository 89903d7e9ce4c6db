// Package registry maintains the set of configured provider backends
// (language models, embeddings, search, geocoding) and routes a request for
// a given model/provider name to the instance that serves it. Registries
// are built once at bootstrap and injected into usecases via constructor,
// not held as package-level singletons.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/provider/llm"
)

// ModelRegistryService discovers and caches models from every configured
// language-model provider, and routes a generate call to the provider that
// owns the requested model name.
type ModelRegistryService struct {
	mu        sync.RWMutex
	providers map[string]llm.Provider
	cache     map[string]entity.ModelInfo // model name -> info, provider field tells us the owner
}

// NewModelRegistryService builds a registry from already-constructed
// providers, keyed by provider name (Provider.Name()).
func NewModelRegistryService(providers ...llm.Provider) *ModelRegistryService {
	r := &ModelRegistryService{
		providers: make(map[string]llm.Provider, len(providers)),
		cache:     make(map[string]entity.ModelInfo),
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
		slog.Info("registered llm provider", slog.String("provider", p.Name()))
	}
	return r
}

// DiscoverAll refreshes the model cache from every registered provider. A
// provider discovery failure is logged and skipped rather than failing the
// whole refresh, since a misconfigured provider shouldn't take down models
// served by the others.
func (r *ModelRegistryService) DiscoverAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = make(map[string]entity.ModelInfo)
	for name, provider := range r.providers {
		models, err := provider.DiscoverModels(ctx)
		if err != nil {
			slog.Error("model discovery failed", slog.String("provider", name), slog.String("error", err.Error()))
			continue
		}
		for _, m := range models {
			r.cache[m.Name] = m
		}
	}
	return nil
}

// GetModelInfo returns a model's capability info, discovering from all
// providers once on a cache miss (spec §4.7: cache-first, refresh-once).
func (r *ModelRegistryService) GetModelInfo(ctx context.Context, modelName string) (*entity.ModelInfo, error) {
	r.mu.RLock()
	info, ok := r.cache[modelName]
	r.mu.RUnlock()
	if ok {
		return &info, nil
	}

	if err := r.DiscoverAll(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok = r.cache[modelName]
	if !ok {
		return nil, fmt.Errorf("registry: model %q not found in any configured provider", modelName)
	}
	return &info, nil
}

// ProviderForModel resolves which Provider instance serves modelName.
func (r *ModelRegistryService) ProviderForModel(ctx context.Context, modelName string) (llm.Provider, error) {
	info, err := r.GetModelInfo(ctx, modelName)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	provider, ok := r.providers[info.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: provider %q for model %q is not registered", info.Provider, modelName)
	}
	return provider, nil
}

// Generate routes a generation request to the provider owning req.ModelName.
func (r *ModelRegistryService) Generate(ctx context.Context, req llm.GenerationRequest) (*llm.GenerationResponse, error) {
	provider, err := r.ProviderForModel(ctx, req.ModelName)
	if err != nil {
		return nil, err
	}
	resp, err := provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registry: generation failed for model %q: %w", req.ModelName, err)
	}
	return resp, nil
}

// ModelsByCapability returns every cached model with the requested
// capability flag set. Callers should DiscoverAll at least once before
// relying on this for a complete list.
func (r *ModelRegistryService) ModelsByCapability(capability string) []entity.ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entity.ModelInfo
	for _, m := range r.cache {
		if modelHasCapability(m, capability) {
			out = append(out, m)
		}
	}
	return out
}

func modelHasCapability(m entity.ModelInfo, capability string) bool {
	switch capability {
	case "structured_output":
		return m.SupportsStructuredOutput
	case "tools":
		return m.SupportsTools
	case "streaming":
		return m.SupportsStreaming
	case "thinking":
		return m.SupportsThinking
	case "multimodal":
		return m.SupportsMultimodal
	default:
		return false
	}
}

// AvailableProviders lists the names of every registered provider.
func (r *ModelRegistryService) AvailableProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}
