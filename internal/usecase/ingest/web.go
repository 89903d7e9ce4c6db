package ingest

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
	"infospace/internal/usecase/processor"
)

// WebHandler creates a WEB Asset pointing at a URL and, when requested,
// scrapes it inline via the WebProcessor (spec §4.2).
type WebHandler struct {
	AssetRepo repository.AssetRepository
	Storage   storage.Provider
	Registry  *processor.Registry
}

func (h *WebHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, rawURL string, opts Options) ([]*entity.Asset, error) {
	assetTitle := title
	if assetTitle == "" {
		assetTitle = rawURL
	}

	asset := entity.NewAsset(infospaceID, userID, entity.AssetKindWeb, assetTitle)
	asset.SourceIdentifier = &rawURL
	asset.SourceMetadata = mergeMetadata(opts.Metadata, ingestedAtMetadata(string(entity.SourceKindWebPage)))

	if err := h.AssetRepo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("create web asset for %s: %w", rawURL, err)
	}

	assets := []*entity.Asset{asset}

	if opts.ScrapeImmediately {
		children, _, err := runProcessor(ctx, h.Registry, h.AssetRepo, h.Storage, asset, opts.Metadata)
		if err != nil {
			return assets, err
		}
		assets = append(assets, children...)
	}

	return assets, nil
}
