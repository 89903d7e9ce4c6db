package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/storage"
	"infospace/internal/repository"
	"infospace/internal/usecase/processor"
)

// FileHandler turns an uploaded file's bytes into a persisted Asset, storing
// the blob under user_<uid>/<uuid><ext> and invoking the matching Processor
// inline when Strategy says to (spec §4.2).
type FileHandler struct {
	AssetRepo repository.AssetRepository
	Storage   storage.Provider
	Registry  *processor.Registry
	Strategy  *processor.Strategy
}

func (h *FileHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, upload FileUpload, opts Options) ([]*entity.Asset, error) {
	ext := filepath.Ext(upload.Filename)
	kind := processor.DetectAssetKindFromExtension(ext)

	assetTitle := title
	if assetTitle == "" {
		assetTitle = upload.Filename
	}

	method := upload.IngestionMethod
	if method == "" {
		method = string(entity.SourceKindFileUpload)
	}

	asset := entity.NewAsset(infospaceID, userID, kind, assetTitle)
	asset.SourceMetadata = mergeMetadata(opts.Metadata, ingestedAtMetadata(method))
	asset.SourceMetadata["original_filename"] = upload.Filename
	if upload.SourceURL != "" {
		asset.SourceIdentifier = &upload.SourceURL
	}

	hash := sha256.Sum256(upload.Data)
	hashHex := hex.EncodeToString(hash[:])
	asset.ContentHash = &hashHex

	size := int64(len(upload.Data))
	blobPath := fmt.Sprintf("user_%d/%s%s", userID, asset.UUID.String(), ext)
	if _, err := h.Storage.Put(ctx, blobPath, bytes.NewReader(upload.Data)); err != nil {
		return nil, fmt.Errorf("store upload %q: %w", upload.Filename, err)
	}
	asset.BlobPath = &blobPath

	if err := h.AssetRepo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("create asset for upload %q: %w", upload.Filename, err)
	}

	assets := []*entity.Asset{asset}

	if kind.Processable() && h.Strategy.ShouldProcessImmediately(asset, preferImmediate(opts), &size) {
		children, _, err := runProcessor(ctx, h.Registry, h.AssetRepo, h.Storage, asset, opts.Metadata)
		if err != nil {
			return assets, err
		}
		assets = append(assets, children...)
	}

	return assets, nil
}

// preferImmediate surfaces Options.UserPreferImmediate only when ProcessImmediately
// was explicitly turned off by the caller, matching the original's two-knob
// (global default + per-call override) semantics.
func preferImmediate(opts Options) *bool {
	if opts.UserPreferImmediate != nil {
		return opts.UserPreferImmediate
	}
	if !opts.ProcessImmediately {
		no := false
		return &no
	}
	return nil
}

