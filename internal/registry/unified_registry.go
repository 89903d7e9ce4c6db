package registry

// UnifiedProviderRegistry bundles every provider-kind registry so usecases
// need only one constructor dependency. It holds no behavior of its own;
// each field is consulted directly by the usecase that needs it (language
// models by the annotation executor, embeddings by the ingestion pipeline,
// search by the search ingestion handler, geocoding by the annotation
// post-processor).
type UnifiedProviderRegistry struct {
	Models     *ModelRegistryService
	Embeddings *EmbeddingProviderRegistryService
	Search     *SearchProviderRegistryService
	Geocoding  *GeocodingProviderRegistryService
}

func NewUnifiedProviderRegistry(
	models *ModelRegistryService,
	embeddings *EmbeddingProviderRegistryService,
	search *SearchProviderRegistryService,
	geocoding *GeocodingProviderRegistryService,
) *UnifiedProviderRegistry {
	return &UnifiedProviderRegistry{
		Models:     models,
		Embeddings: embeddings,
		Search:     search,
		Geocoding:  geocoding,
	}
}
