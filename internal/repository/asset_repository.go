package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
)

// AssetWithSource pairs an Asset with the name of the Source it was ingested
// from, mirroring the join the HTTP list/search handlers need.
type AssetWithSource struct {
	Asset      *entity.Asset
	SourceName string
}

// AssetSearchFilters contains optional filters for asset search/listing.
type AssetSearchFilters struct {
	InfospaceID *int64
	SourceID    *int64
	Kind        *entity.AssetKind
	ParentID    *int64 // when set, list only children of this asset
	From        *time.Time
	To          *time.Time
}

// AssetRepository persists Assets and the parent/child hierarchy between
// them (spec §3: Asset.parent_asset_id / part_index).
type AssetRepository interface {
	Get(ctx context.Context, id int64) (*entity.Asset, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*entity.Asset, error)
	List(ctx context.Context, filters AssetSearchFilters) ([]*entity.Asset, error)
	ListPaginated(ctx context.Context, filters AssetSearchFilters, offset, limit int) ([]*entity.Asset, error)
	Count(ctx context.Context, filters AssetSearchFilters) (int64, error)
	// ListChildren returns all assets whose ParentAssetID equals parentID,
	// ordered by PartIndex ascending (PDF pages, CSV rows, sheet rows).
	ListChildren(ctx context.Context, parentID int64) ([]*entity.Asset, error)
	ListWithSource(ctx context.Context, filters AssetSearchFilters) ([]AssetWithSource, error)
	Search(ctx context.Context, keywords []string, filters AssetSearchFilters) ([]*entity.Asset, error)
	Create(ctx context.Context, asset *entity.Asset) error
	// CreateBatch inserts many assets (e.g. CSV rows, PDF pages) in a single
	// transaction, matching the bulk-child-creation path of the processors.
	CreateBatch(ctx context.Context, assets []*entity.Asset) error
	Update(ctx context.Context, asset *entity.Asset) error
	UpdateProcessingStatus(ctx context.Context, id int64, status entity.ProcessingStatus, procErr *string) error
	Delete(ctx context.Context, id int64) error
	DeleteBatch(ctx context.Context, ids []int64) (*entity.BulkOperationError, error)
	// ExistsByContentHash reports whether an asset with this content hash
	// already exists in the infospace, used by FileHandler/DirectFileHandler
	// dedup (spec §4.2). Always returns false for a nil hash.
	ExistsByContentHash(ctx context.Context, infospaceID int64, hash string) (bool, error)
}
