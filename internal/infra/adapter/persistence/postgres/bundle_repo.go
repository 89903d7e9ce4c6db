package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// BundleRepo is the PostgreSQL implementation of repository.BundleRepository.
// The asset/bundle relationship lives in a link table (bundle_assets), kept
// separate from the bundles table itself so Bundle.AssetCount is a cached,
// recomputed projection rather than a source of truth.
type BundleRepo struct{ db *sql.DB }

// NewBundleRepo constructs a PostgreSQL-backed BundleRepository.
func NewBundleRepo(db *sql.DB) repository.BundleRepository {
	return &BundleRepo{db: db}
}

const bundleColumns = `id, uuid, infospace_id, user_id, name, purpose, asset_count, created_at, updated_at`

func scanBundle(scanner interface{ Scan(...any) error }) (*entity.Bundle, error) {
	var b entity.Bundle
	err := scanner.Scan(&b.ID, &b.UUID, &b.InfospaceID, &b.UserID, &b.Name, &b.Purpose,
		&b.AssetCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (repo *BundleRepo) Get(ctx context.Context, id int64) (*entity.Bundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM bundles WHERE id = $1 LIMIT 1`
	b, err := scanBundle(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return b, nil
}

func (repo *BundleRepo) List(ctx context.Context, infospaceID int64) ([]*entity.Bundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM bundles WHERE infospace_id = $1 ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, infospaceID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	bundles := make([]*entity.Bundle, 0, 20)
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

func (repo *BundleRepo) Create(ctx context.Context, b *entity.Bundle) error {
	const query = `
INSERT INTO bundles (uuid, infospace_id, user_id, name, purpose, asset_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,0,NOW(),NOW())
RETURNING id, created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query, b.UUID, b.InfospaceID, b.UserID, b.Name, b.Purpose).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *BundleRepo) Update(ctx context.Context, b *entity.Bundle) error {
	const query = `UPDATE bundles SET name = $1, purpose = $2, updated_at = NOW() WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, b.Name, b.Purpose, b.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *BundleRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM bundles WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *BundleRepo) AddAssets(ctx context.Context, bundleID int64, assetIDs []int64) error {
	if len(assetIDs) == 0 {
		return nil
	}
	const query = `
INSERT INTO bundle_assets (bundle_id, asset_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING`
	_, err := repo.db.ExecContext(ctx, query, bundleID, pq.Array(assetIDs))
	if err != nil {
		return fmt.Errorf("AddAssets: %w", err)
	}
	return nil
}

func (repo *BundleRepo) RemoveAssets(ctx context.Context, bundleID int64, assetIDs []int64) error {
	if len(assetIDs) == 0 {
		return nil
	}
	const query = `DELETE FROM bundle_assets WHERE bundle_id = $1 AND asset_id = ANY($2)`
	_, err := repo.db.ExecContext(ctx, query, bundleID, pq.Array(assetIDs))
	if err != nil {
		return fmt.Errorf("RemoveAssets: %w", err)
	}
	return nil
}

func (repo *BundleRepo) ListAssetIDs(ctx context.Context, bundleID int64) ([]int64, error) {
	const query = `SELECT asset_id FROM bundle_assets WHERE bundle_id = $1 ORDER BY asset_id ASC`
	rows, err := repo.db.QueryContext(ctx, query, bundleID)
	if err != nil {
		return nil, fmt.Errorf("ListAssetIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, 50)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListAssetIDs: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (repo *BundleRepo) RecomputeAssetCount(ctx context.Context, bundleID int64) error {
	const query = `
UPDATE bundles SET
	asset_count = (SELECT COUNT(*) FROM bundle_assets WHERE bundle_id = $1),
	updated_at = NOW()
WHERE id = $1`
	_, err := repo.db.ExecContext(ctx, query, bundleID)
	if err != nil {
		return fmt.Errorf("RecomputeAssetCount: %w", err)
	}
	return nil
}
