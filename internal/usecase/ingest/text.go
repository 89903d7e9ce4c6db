package ingest

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// TextHandler wraps pasted text in a single TEXT Asset. There is nothing to
// process: the text itself is the content.
type TextHandler struct {
	AssetRepo repository.AssetRepository
}

func (h *TextHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, text string, opts Options) ([]*entity.Asset, error) {
	assetTitle := title
	if assetTitle == "" {
		assetTitle = "Pasted text"
	}

	asset := entity.NewAsset(infospaceID, userID, entity.AssetKindText, assetTitle)
	asset.TextContent = &text
	asset.SourceMetadata = mergeMetadata(opts.Metadata, ingestedAtMetadata(string(entity.SourceKindText)))
	asset.ProcessingStatus = entity.ProcessingStatusReady

	if err := h.AssetRepo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("create text asset: %w", err)
	}

	return []*entity.Asset{asset}, nil
}
