package repository

import (
	"context"

	"infospace/internal/domain/entity"
)

// BundleRepository persists Bundles and their weak many-to-many links to
// Assets. Deleting a Bundle never deletes its linked Assets (spec §3).
type BundleRepository interface {
	Get(ctx context.Context, id int64) (*entity.Bundle, error)
	List(ctx context.Context, infospaceID int64) ([]*entity.Bundle, error)
	Create(ctx context.Context, bundle *entity.Bundle) error
	Update(ctx context.Context, bundle *entity.Bundle) error
	Delete(ctx context.Context, id int64) error
	AddAssets(ctx context.Context, bundleID int64, assetIDs []int64) error
	RemoveAssets(ctx context.Context, bundleID int64, assetIDs []int64) error
	ListAssetIDs(ctx context.Context, bundleID int64) ([]int64, error)
	// RecomputeAssetCount recounts and persists Bundle.AssetCount from the
	// link table, used after AddAssets/RemoveAssets.
	RecomputeAssetCount(ctx context.Context, bundleID int64) error
}
