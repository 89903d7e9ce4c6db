package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"infospace/internal/domain/entity"
	"infospace/internal/pkg/search"
	"infospace/internal/repository"
)

// AssetEmbeddingRepo implements repository.AssetEmbeddingRepository for
// PostgreSQL using the pgvector extension, adapted from the teacher's
// ArticleEmbeddingRepo (asset replaces article as the embedded unit).
type AssetEmbeddingRepo struct{ db *sql.DB }

// NewAssetEmbeddingRepo constructs a pgvector-backed AssetEmbeddingRepository.
func NewAssetEmbeddingRepo(db *sql.DB) repository.AssetEmbeddingRepository {
	return &AssetEmbeddingRepo{db: db}
}

func (repo *AssetEmbeddingRepo) Upsert(ctx context.Context, assetID int64, provider, model string, vector []float32, dimension int) error {
	pgv := pgvector.NewVector(vector)
	const query = `
INSERT INTO asset_embeddings (asset_id, provider, model, dimension, embedding, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
ON CONFLICT (asset_id, provider, model)
DO UPDATE SET dimension = EXCLUDED.dimension, embedding = EXCLUDED.embedding, updated_at = NOW()`
	_, err := repo.db.ExecContext(ctx, query, assetID, provider, model, dimension, pgv)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *AssetEmbeddingRepo) FindByAssetID(ctx context.Context, assetID int64) ([]entity.Metadata, error) {
	const query = `
SELECT provider, model, dimension FROM asset_embeddings
WHERE asset_id = $1 ORDER BY provider, model`
	rows, err := repo.db.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("FindByAssetID: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]entity.Metadata, 0, 4)
	for rows.Next() {
		var provider, model string
		var dimension int
		if err := rows.Scan(&provider, &model, &dimension); err != nil {
			return nil, fmt.Errorf("FindByAssetID: Scan: %w", err)
		}
		results = append(results, entity.Metadata{"provider": provider, "model": model, "dimension": dimension})
	}
	return results, rows.Err()
}

func (repo *AssetEmbeddingRepo) SearchSimilar(ctx context.Context, vector []float32, provider, model string, limit int) ([]repository.SimilarAsset, error) {
	searchCtx, cancel := context.WithTimeout(ctx, search.DefaultSearchTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	pgv := pgvector.NewVector(vector)
	const query = `
SELECT asset_id, 1 - (embedding <=> $1) AS similarity
FROM asset_embeddings
WHERE provider = $2 AND model = $3
ORDER BY embedding <=> $1
LIMIT $4`
	rows, err := repo.db.QueryContext(searchCtx, query, pgv, provider, model, limit)
	if err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]repository.SimilarAsset, 0, limit)
	for rows.Next() {
		var r repository.SimilarAsset
		if err := rows.Scan(&r.AssetID, &r.Similarity); err != nil {
			return nil, fmt.Errorf("SearchSimilar: Scan: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (repo *AssetEmbeddingRepo) DeleteByAssetID(ctx context.Context, assetID int64) (int64, error) {
	const query = `DELETE FROM asset_embeddings WHERE asset_id = $1`
	res, err := repo.db.ExecContext(ctx, query, assetID)
	if err != nil {
		return 0, fmt.Errorf("DeleteByAssetID: %w", err)
	}
	return res.RowsAffected()
}
