package ingest

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/fetcher"
)

// BinaryDownloader fetches the raw bytes a URL points directly at.
// *fetcher.BinaryFetcher satisfies this; tests can substitute a fake.
type BinaryDownloader interface {
	Fetch(ctx context.Context, urlStr string) (*fetcher.Download, error)
}

// DirectFileHandler downloads the bytes a URL points directly at (a PDF,
// CSV, or other file served without a landing page) and delegates to
// FileHandler for kind detection, storage and inline processing.
type DirectFileHandler struct {
	Fetcher BinaryDownloader
	File    *FileHandler
}

func (h *DirectFileHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, rawURL string, opts Options) ([]*entity.Asset, error) {
	dl, err := h.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("download direct file %s: %w", rawURL, err)
	}

	filename := dl.Filename
	if filename == "" {
		filename = "download"
	}

	upload := FileUpload{
		Filename:        filename,
		Data:            dl.Data,
		SourceURL:       dl.FinalURL,
		IngestionMethod: string(entity.SourceKindDirectFile),
	}

	subOpts := opts
	subOpts.Metadata = mergeMetadata(opts.Metadata, entity.Metadata{"source_url": dl.FinalURL})

	return h.File.Handle(ctx, infospaceID, userID, title, upload, subOpts)
}
