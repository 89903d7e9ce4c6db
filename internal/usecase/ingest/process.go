package ingest

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
	"infospace/internal/usecase/processor"
)

// runProcessor looks up asset's owning Processor and, if one exists, runs
// it synchronously: the parent asset's in-place mutations (TextContent,
// Title, SourceMetadata) and every child Node it produced are persisted,
// depth-first, before returning. Returns (nil, false, nil) if no processor
// claims the asset — not an error, just nothing to do yet.
func runProcessor(ctx context.Context, reg *processor.Registry, assetRepo repository.AssetRepository, sp storage.Provider, asset *entity.Asset, opts entity.Metadata) ([]*entity.Asset, bool, error) {
	proc, ok := reg.ProcessorFor(asset)
	if !ok {
		return nil, false, nil
	}

	pctx := &processor.Context{StorageProvider: sp, AssetRepo: assetRepo, Options: opts}
	nodes, err := proc.Process(ctx, pctx, asset)
	if err != nil {
		msg := err.Error()
		asset.ProcessingStatus = entity.ProcessingStatusFailed
		asset.ProcessingError = &msg
		_ = assetRepo.UpdateProcessingStatus(ctx, asset.ID, entity.ProcessingStatusFailed, &msg)
		return nil, true, fmt.Errorf("process asset %d: %w", asset.ID, err)
	}

	asset.ProcessingStatus = entity.ProcessingStatusReady
	if err := assetRepo.Update(ctx, asset); err != nil {
		return nil, true, fmt.Errorf("save processed asset %d: %w", asset.ID, err)
	}

	children, err := persistNodes(ctx, assetRepo, nodes)
	if err != nil {
		return nil, true, err
	}
	return children, true, nil
}

// persistNodes creates each Node's asset, stamping the real ID it gets back
// onto its children's ParentAssetID before recursing — see the Node doc
// comment in the processor package for why this can't be done up front.
func persistNodes(ctx context.Context, repo repository.AssetRepository, nodes []*processor.Node) ([]*entity.Asset, error) {
	var all []*entity.Asset
	for _, n := range nodes {
		if err := repo.Create(ctx, n.Asset); err != nil {
			return nil, fmt.Errorf("create asset %q: %w", n.Asset.Title, err)
		}
		all = append(all, n.Asset)

		for _, child := range n.Children {
			parentID := n.Asset.ID
			child.Asset.ParentAssetID = &parentID
		}
		childAssets, err := persistNodes(ctx, repo, n.Children)
		if err != nil {
			return nil, err
		}
		all = append(all, childAssets...)
	}
	return all, nil
}
