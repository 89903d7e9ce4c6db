package http

import (
	"encoding/json"
	"net/http"

	"infospace/internal/registry"
)

// ProvidersResponse lists which language-model, embedding, search, and
// geocoding providers are currently configured, letting a client discover
// valid model_name/provider values before creating a run or ingesting via
// search without guessing at environment configuration.
type ProvidersResponse struct {
	Models     []string `json:"models"`
	Embeddings []string `json:"embeddings"`
	Search     []string `json:"search"`
	Geocoding  []string `json:"geocoding"`
}

// ProvidersHandler reports the UnifiedProviderRegistry's configured
// providers.
type ProvidersHandler struct {
	Registry *registry.UnifiedProviderRegistry
}

// ServeHTTP returns the set of providers available for each provider kind.
// @Summary      List configured providers
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} ProvidersResponse
// @Router       /providers [get]
func (h ProvidersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := ProvidersResponse{
		Models:     h.Registry.Models.AvailableProviders(),
		Embeddings: h.Registry.Embeddings.AvailableProviders(),
		Search:     h.Registry.Search.AvailableProviders(),
		Geocoding:  h.Registry.Geocoding.AvailableProviders(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
