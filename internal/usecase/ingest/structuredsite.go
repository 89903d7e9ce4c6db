package ingest

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/scraper"
	"infospace/internal/repository"
	"infospace/internal/usecase/fetch"
)

// StructuredSiteHandler parses a single index page of a known JS-framework
// site (Webflow CMS, Next.js, Remix) into a parent WEB asset with one child
// WEB asset per listed item, reading the item list from the framework's own
// embedded data rather than readability-scraping rendered HTML. This is the
// structured counterpart to RSSHandler for sites with no feed.
type StructuredSiteHandler struct {
	AssetRepo repository.AssetRepository
	// Scrapers is keyed by framework name ("Webflow", "NextJS", "Remix"),
	// mirroring scraper.ScraperFactory.CreateScrapers().
	Scrapers map[string]fetch.FeedFetcher
}

func (h *StructuredSiteHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, framework string, rootURL string, cfg *entity.ScraperConfig, opts Options) ([]*entity.Asset, error) {
	fetcher, ok := h.Scrapers[framework]
	if !ok {
		return nil, fmt.Errorf("structured site ingestion: no scraper registered for framework %q", framework)
	}
	if cfg == nil {
		cfg = &entity.ScraperConfig{}
	}

	fetchCtx := context.WithValue(ctx, scraper.ScraperConfigKey, cfg)
	items, err := fetcher.Fetch(fetchCtx, rootURL)
	if err != nil {
		return nil, fmt.Errorf("scrape %s site %s: %w", framework, rootURL, err)
	}

	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = 25
	}
	truncated := len(items) > maxItems
	if truncated {
		items = items[:maxItems]
	}

	pageTitle := title
	if pageTitle == "" {
		pageTitle = rootURL
	}

	parent := entity.NewAsset(infospaceID, userID, entity.AssetKindWeb, pageTitle)
	parent.SourceIdentifier = &rootURL
	parent.SourceMetadata = mergeMetadata(opts.Metadata, ingestedAtMetadata(string(entity.SourceKindStructuredWeb)))
	parent.SourceMetadata["framework"] = framework
	parent.SourceMetadata["item_count"] = len(items)
	parent.SourceMetadata["truncated"] = truncated
	parent.ProcessingStatus = entity.ProcessingStatusReady

	if err := h.AssetRepo.Create(ctx, parent); err != nil {
		return nil, fmt.Errorf("create structured site asset for %s: %w", rootURL, err)
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
			"framework":   framework,
			"entry_index": i,
		}
		entry.ProcessingStatus = entity.ProcessingStatusReady

		if err := h.AssetRepo.Create(ctx, entry); err != nil {
			return assets, fmt.Errorf("create structured site entry %d for %s: %w", i, rootURL, err)
		}
		assets = append(assets, entry)
	}

	return assets, nil
}
