package registry

import (
	"context"
	"fmt"
	"sync"

	"infospace/internal/infra/provider/geocoding"
)

// GeocodingProviderRegistryService holds configured geocoding providers
// used to resolve place names found in annotation values.
type GeocodingProviderRegistryService struct {
	mu              sync.RWMutex
	providers       map[string]geocoding.Provider
	defaultProvider string
}

func NewGeocodingProviderRegistryService(defaultProvider string, providers ...geocoding.Provider) *GeocodingProviderRegistryService {
	r := &GeocodingProviderRegistryService{
		providers:       make(map[string]geocoding.Provider, len(providers)),
		defaultProvider: defaultProvider,
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *GeocodingProviderRegistryService) Provider(name string) (geocoding.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("registry: geocoding provider %q is not registered", name)
	}
	return p, nil
}

func (r *GeocodingProviderRegistryService) Geocode(ctx context.Context, providerName, query string) (*geocoding.Location, error) {
	p, err := r.Provider(providerName)
	if err != nil {
		return nil, err
	}
	return p.Geocode(ctx, query)
}
