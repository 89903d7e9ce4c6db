package ingest

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
	"infospace/internal/usecase/fetch"
)

// RSSHandler parses a feed URL into a parent WEB asset (the feed itself)
// with one child WEB asset per entry, up to Options.MaxItems.
type RSSHandler struct {
	AssetRepo repository.AssetRepository
	Fetcher   fetch.FeedFetcher
}

func (h *RSSHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, feedURL string, opts Options) ([]*entity.Asset, error) {
	items, err := h.Fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = 25
	}
	truncated := len(items) > maxItems
	if truncated {
		items = items[:maxItems]
	}

	feedTitle := title
	if feedTitle == "" {
		feedTitle = feedURL
	}

	parent := entity.NewAsset(infospaceID, userID, entity.AssetKindWeb, feedTitle)
	parent.SourceIdentifier = &feedURL
	parent.SourceMetadata = mergeMetadata(opts.Metadata, ingestedAtMetadata(string(entity.SourceKindRSSFeed)))
	parent.SourceMetadata["feed_url"] = feedURL
	parent.SourceMetadata["entry_count"] = len(items)
	parent.SourceMetadata["truncated"] = truncated
	parent.ProcessingStatus = entity.ProcessingStatusReady

	if err := h.AssetRepo.Create(ctx, parent); err != nil {
		return nil, fmt.Errorf("create feed asset for %s: %w", feedURL, err)
	}

	assets := []*entity.Asset{parent}

	for i, item := range items {
		entryTitle := item.Title
		if entryTitle == "" {
			entryTitle = item.URL
		}

		entry := entity.NewAsset(infospaceID, userID, entity.AssetKindWeb, entryTitle)
		parentID := parent.ID
		entry.ParentAssetID = &parentID
		entry.PartIndex = intPtr(i)
		if item.URL != "" {
			entry.SourceIdentifier = &item.URL
		}
		if item.Content != "" {
			content := item.Content
			entry.TextContent = &content
		}
		if !item.PublishedAt.IsZero() {
			published := item.PublishedAt
			entry.EventTimestamp = &published
		}
		entry.SourceMetadata = entity.Metadata{
			"feed_url":   feedURL,
			"entry_index": i,
		}
		entry.ProcessingStatus = entity.ProcessingStatusReady

		if err := h.AssetRepo.Create(ctx, entry); err != nil {
			return assets, fmt.Errorf("create feed entry %d for %s: %w", i, feedURL, err)
		}
		assets = append(assets, entry)
	}

	return assets, nil
}

func intPtr(v int) *int { return &v }
