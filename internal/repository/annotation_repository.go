package repository

import (
	"context"

	"infospace/internal/domain/entity"
)

// AnnotationRepository persists Annotations and their Justifications. An
// Annotation is keyed by the (asset, schema, run) triple; re-running a run
// over an asset/schema pair upserts rather than duplicates (spec §3).
type AnnotationRepository interface {
	Get(ctx context.Context, id int64) (*entity.Annotation, error)
	ListByRun(ctx context.Context, runID int64) ([]*entity.Annotation, error)
	ListByAsset(ctx context.Context, assetID int64) ([]*entity.Annotation, error)
	// Upsert inserts or updates the annotation for (AssetID, SchemaID, RunID).
	Upsert(ctx context.Context, annotation *entity.Annotation) error
	Delete(ctx context.Context, id int64) error

	CreateJustifications(ctx context.Context, justifications []*entity.Justification) error
	ListJustifications(ctx context.Context, annotationID int64) ([]*entity.Justification, error)
}

// SimilarAsset is the result of a vector similarity search over asset
// embeddings.
type SimilarAsset struct {
	AssetID    int64
	Similarity float64
}

// AssetEmbeddingRepository stores per-asset text embeddings for semantic
// asset search, adapted from the teacher's article-embedding repository and
// backed by pgvector (spec §11 domain stack: embedding providers populate
// these via EmbeddingProviderRegistryService).
type AssetEmbeddingRepository interface {
	Upsert(ctx context.Context, assetID int64, provider, model string, vector []float32, dimension int) error
	FindByAssetID(ctx context.Context, assetID int64) ([]entity.Metadata, error)
	SearchSimilar(ctx context.Context, vector []float32, provider, model string, limit int) ([]SimilarAsset, error)
	DeleteByAssetID(ctx context.Context, assetID int64) (int64, error)
}
