package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// AssetRepo is the PostgreSQL implementation of repository.AssetRepository,
// adapted from the teacher's ArticleRepo: raw SQL over database/sql, one
// query per operation, errors wrapped with the operation name.
type AssetRepo struct {
	db *sql.DB
	qb *AssetQueryBuilder
}

// NewAssetRepo constructs a PostgreSQL-backed AssetRepository.
func NewAssetRepo(db *sql.DB) repository.AssetRepository {
	return &AssetRepo{db: db, qb: NewAssetQueryBuilder()}
}

const assetColumns = `id, uuid, infospace_id, user_id, kind, title, parent_asset_id, part_index,
	blob_path, text_content, source_identifier, source_metadata, event_timestamp,
	content_hash, processing_status, processing_error, source_id, created_at, updated_at`

const assetColumnsAliasedA = `a.id, a.uuid, a.infospace_id, a.user_id, a.kind, a.title, a.parent_asset_id, a.part_index,
	a.blob_path, a.text_content, a.source_identifier, a.source_metadata, a.event_timestamp,
	a.content_hash, a.processing_status, a.processing_error, a.source_id, a.created_at, a.updated_at`

func scanAsset(scanner interface{ Scan(...any) error }) (*entity.Asset, error) {
	var a entity.Asset
	var sourceMetadataJSON []byte
	err := scanner.Scan(
		&a.ID, &a.UUID, &a.InfospaceID, &a.UserID, &a.Kind, &a.Title,
		&a.ParentAssetID, &a.PartIndex, &a.BlobPath, &a.TextContent,
		&a.SourceIdentifier, &sourceMetadataJSON, &a.EventTimestamp,
		&a.ContentHash, &a.ProcessingStatus, &a.ProcessingError, &a.SourceID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(sourceMetadataJSON) > 0 {
		if err := json.Unmarshal(sourceMetadataJSON, &a.SourceMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal source_metadata: %w", err)
		}
	}
	return &a, nil
}

func (repo *AssetRepo) Get(ctx context.Context, id int64) (*entity.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1 LIMIT 1`
	row := repo.db.QueryRowContext(ctx, query, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (repo *AssetRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*entity.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE uuid = $1 LIMIT 1`
	row := repo.db.QueryRowContext(ctx, query, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByUUID: %w", err)
	}
	return a, nil
}

func (repo *AssetRepo) List(ctx context.Context, filters repository.AssetSearchFilters) ([]*entity.Asset, error) {
	where, args := repo.qb.BuildWhereClause(nil, filters, "")
	query := `SELECT ` + assetColumns + ` FROM assets ` + where + ` ORDER BY created_at DESC`
	return repo.queryAssets(ctx, query, args...)
}

func (repo *AssetRepo) ListPaginated(ctx context.Context, filters repository.AssetSearchFilters, offset, limit int) ([]*entity.Asset, error) {
	where, args := repo.qb.BuildWhereClause(nil, filters, "")
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM assets %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		assetColumns, where, len(args)-1, len(args))
	return repo.queryAssets(ctx, query, args...)
}

func (repo *AssetRepo) Count(ctx context.Context, filters repository.AssetSearchFilters) (int64, error) {
	where, args := repo.qb.BuildWhereClause(nil, filters, "")
	query := `SELECT COUNT(*) FROM assets ` + where
	var count int64
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *AssetRepo) ListChildren(ctx context.Context, parentID int64) ([]*entity.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE parent_asset_id = $1 ORDER BY part_index ASC NULLS LAST`
	return repo.queryAssets(ctx, query, parentID)
}

func (repo *AssetRepo) ListWithSource(ctx context.Context, filters repository.AssetSearchFilters) ([]repository.AssetWithSource, error) {
	where, args := repo.qb.BuildWhereClause(nil, filters, "a")
	query := fmt.Sprintf(`
SELECT %s, s.name AS source_name
FROM assets a
LEFT JOIN sources s ON a.source_id = s.id
%s
ORDER BY a.created_at DESC`, assetColumnsAliasedA, where)

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListWithSource: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]repository.AssetWithSource, 0, 100)
	for rows.Next() {
		var a entity.Asset
		var sourceMetadataJSON []byte
		var sourceName sql.NullString
		if err := rows.Scan(
			&a.ID, &a.UUID, &a.InfospaceID, &a.UserID, &a.Kind, &a.Title,
			&a.ParentAssetID, &a.PartIndex, &a.BlobPath, &a.TextContent,
			&a.SourceIdentifier, &sourceMetadataJSON, &a.EventTimestamp,
			&a.ContentHash, &a.ProcessingStatus, &a.ProcessingError, &a.SourceID,
			&a.CreatedAt, &a.UpdatedAt, &sourceName,
		); err != nil {
			return nil, fmt.Errorf("ListWithSource: Scan: %w", err)
		}
		if len(sourceMetadataJSON) > 0 {
			_ = json.Unmarshal(sourceMetadataJSON, &a.SourceMetadata)
		}
		result = append(result, repository.AssetWithSource{Asset: &a, SourceName: sourceName.String})
	}
	return result, rows.Err()
}

func (repo *AssetRepo) Search(ctx context.Context, keywords []string, filters repository.AssetSearchFilters) ([]*entity.Asset, error) {
	if len(keywords) == 0 {
		return []*entity.Asset{}, nil
	}
	where, args := repo.qb.BuildWhereClause(keywords, filters, "")
	query := `SELECT ` + assetColumns + ` FROM assets ` + where + ` ORDER BY created_at DESC`
	return repo.queryAssets(ctx, query, args...)
}

func (repo *AssetRepo) queryAssets(ctx context.Context, query string, args ...interface{}) ([]*entity.Asset, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryAssets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	assets := make([]*entity.Asset, 0, 100)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("queryAssets: Scan: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (repo *AssetRepo) Create(ctx context.Context, a *entity.Asset) error {
	sourceMetadataJSON, err := json.Marshal(a.SourceMetadata)
	if err != nil {
		return fmt.Errorf("Create: marshal source_metadata: %w", err)
	}
	const query = `
INSERT INTO assets (uuid, infospace_id, user_id, kind, title, parent_asset_id, part_index,
	blob_path, text_content, source_identifier, source_metadata, event_timestamp,
	content_hash, processing_status, processing_error, source_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())
RETURNING id, created_at, updated_at`
	err = repo.db.QueryRowContext(ctx, query,
		a.UUID, a.InfospaceID, a.UserID, a.Kind, a.Title, a.ParentAssetID, a.PartIndex,
		a.BlobPath, a.TextContent, a.SourceIdentifier, sourceMetadataJSON, a.EventTimestamp,
		a.ContentHash, a.ProcessingStatus, a.ProcessingError, a.SourceID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *AssetRepo) CreateBatch(ctx context.Context, assets []*entity.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CreateBatch: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO assets (uuid, infospace_id, user_id, kind, title, parent_asset_id, part_index,
	blob_path, text_content, source_identifier, source_metadata, event_timestamp,
	content_hash, processing_status, processing_error, source_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())
RETURNING id, created_at, updated_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("CreateBatch: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range assets {
		sourceMetadataJSON, err := json.Marshal(a.SourceMetadata)
		if err != nil {
			return fmt.Errorf("CreateBatch: marshal source_metadata: %w", err)
		}
		if err := stmt.QueryRowContext(ctx,
			a.UUID, a.InfospaceID, a.UserID, a.Kind, a.Title, a.ParentAssetID, a.PartIndex,
			a.BlobPath, a.TextContent, a.SourceIdentifier, sourceMetadataJSON, a.EventTimestamp,
			a.ContentHash, a.ProcessingStatus, a.ProcessingError, a.SourceID,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return fmt.Errorf("CreateBatch: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CreateBatch: commit: %w", err)
	}
	return nil
}

func (repo *AssetRepo) Update(ctx context.Context, a *entity.Asset) error {
	sourceMetadataJSON, err := json.Marshal(a.SourceMetadata)
	if err != nil {
		return fmt.Errorf("Update: marshal source_metadata: %w", err)
	}
	const query = `
UPDATE assets SET
	title = $1, blob_path = $2, text_content = $3, source_identifier = $4,
	source_metadata = $5, event_timestamp = $6, content_hash = $7,
	processing_status = $8, processing_error = $9, updated_at = NOW()
WHERE id = $10`
	res, err := repo.db.ExecContext(ctx, query,
		a.Title, a.BlobPath, a.TextContent, a.SourceIdentifier,
		sourceMetadataJSON, a.EventTimestamp, a.ContentHash,
		a.ProcessingStatus, a.ProcessingError, a.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *AssetRepo) UpdateProcessingStatus(ctx context.Context, id int64, status entity.ProcessingStatus, procErr *string) error {
	const query = `UPDATE assets SET processing_status = $1, processing_error = $2, updated_at = NOW() WHERE id = $3`
	_, err := repo.db.ExecContext(ctx, query, status, procErr, id)
	if err != nil {
		return fmt.Errorf("UpdateProcessingStatus: %w", err)
	}
	return nil
}

func (repo *AssetRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM assets WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *AssetRepo) DeleteBatch(ctx context.Context, ids []int64) (*entity.BulkOperationError, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `DELETE FROM assets WHERE id = ANY($1) RETURNING id`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("DeleteBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	succeeded := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("DeleteBatch: Scan: %w", err)
		}
		succeeded[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DeleteBatch: %w", err)
	}

	result := &entity.BulkOperationError{FailedIDsReason: map[int64]string{}}
	for _, id := range ids {
		if succeeded[id] {
			result.SuccessfulIDs = append(result.SuccessfulIDs, id)
		} else {
			result.FailedIDsReason[id] = "not found"
		}
	}
	if len(result.FailedIDsReason) == 0 {
		return nil, nil
	}
	return result, nil
}

func (repo *AssetRepo) ExistsByContentHash(ctx context.Context, infospaceID int64, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	const query = `SELECT EXISTS (SELECT 1 FROM assets WHERE infospace_id = $1 AND content_hash = $2)`
	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, infospaceID, hash).Scan(&exists); err != nil {
		return false, fmt.Errorf("ExistsByContentHash: %w", err)
	}
	return exists, nil
}
