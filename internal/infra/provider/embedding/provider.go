// Package embedding defines the embedding-provider contract used to turn
// asset text into vectors for pgvector similarity search
// (internal/infra/adapter/persistence/postgres.AssetEmbeddingRepo).
package embedding

import "context"

// Provider embeds a batch of texts into fixed-length vectors using a single
// named model. Implementations batch internally where the backing API
// supports it.
type Provider interface {
	Name() string
	DefaultModel() string
	Dimensions(model string) int
	Embed(ctx context.Context, texts []string, model string) ([][]float32, error)
}
