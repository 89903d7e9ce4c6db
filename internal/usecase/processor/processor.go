// Package processor expands a parent Asset's raw content into child Assets
// (CSV rows, Excel sheets/rows, PDF pages) or enriches it in place (web
// pages), mirroring the processing pipeline each ingestion handler hands
// its assets to after creation.
package processor

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
)

// ProcessingError reports a processor's inability to process an asset
// (bad encoding, empty file, unsupported structure).
type ProcessingError struct {
	AssetID int64
	Reason  string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing asset %d: %s", e.AssetID, e.Reason)
}

// Context bundles the dependencies and per-run options a Processor needs.
// It is built once per processing run and passed to every processor the
// Registry dispatches to.
type Context struct {
	StorageProvider storage.Provider
	AssetRepo       repository.AssetRepository
	Options         entity.Metadata
	MaxRows         int
}

// Processor expands or enriches a single Asset. CanProcess lets the
// Registry route without a type switch on asset.Kind.
type Processor interface {
	CanProcess(asset *entity.Asset) bool
	Process(ctx context.Context, pctx *Context, asset *entity.Asset) ([]*Node, error)
}

// Node is a newly-created child asset paired with its own children, none
// of which have a real ID yet. A processor that only produces one level of
// children (CSV rows, PDF pages) returns leaf Nodes; one that produces a
// hierarchy (Excel sheets owning rows) nests them. The caller persists a
// Node's Asset first, then stamps the resulting ID onto each child's
// ParentAssetID before persisting it, recursing down the tree.
type Node struct {
	Asset    *entity.Asset
	Children []*Node
}

// defaultMaxRows bounds how many child rows a single CSV/Excel asset can
// produce, protecting against pathological inputs creating millions of
// child assets in one run.
const defaultMaxRows = 50000
