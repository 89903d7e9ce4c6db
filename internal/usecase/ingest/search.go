package ingest

import (
	"context"
	"fmt"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/provider/search"
	"infospace/internal/repository"
)

// defaultSearchResults bounds how many hits a bare search-query string
// produces when Options.MaxItems isn't set.
const defaultSearchResults = 10

// SearchHandler runs a free-text query through a search.Provider and
// creates one WEB Asset per result, stamping rank/score metadata (spec
// §4.2).
type SearchHandler struct {
	AssetRepo repository.AssetRepository
	Provider  search.Provider
}

func (h *SearchHandler) Handle(ctx context.Context, infospaceID, userID int64, title string, query string, opts Options) ([]*entity.Asset, error) {
	maxResults := opts.MaxItems
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}

	results, err := h.Provider.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var assets []*entity.Asset
	for rank, result := range results {
		assetTitle := result.Title
		if assetTitle == "" {
			assetTitle = result.URL
		}

		asset := entity.NewAsset(infospaceID, userID, entity.AssetKindWeb, assetTitle)
		asset.SourceIdentifier = &result.URL
		asset.SourceMetadata = mergeMetadata(opts.Metadata, ingestedAtMetadata(string(entity.SourceKindSearchQuery)))
		asset.SourceMetadata["search_query"] = query
		asset.SourceMetadata["search_provider"] = h.Provider.Name()
		asset.SourceMetadata["search_rank"] = rank
		if result.Snippet != "" {
			asset.SourceMetadata["search_snippet"] = result.Snippet
		}
		asset.ProcessingStatus = entity.ProcessingStatusReady

		if err := h.AssetRepo.Create(ctx, asset); err != nil {
			return assets, fmt.Errorf("create search result asset for %s: %w", result.URL, err)
		}
		assets = append(assets, asset)
	}

	return assets, nil
}
