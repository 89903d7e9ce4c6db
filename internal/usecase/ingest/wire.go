package ingest

import (
	"infospace/internal/infra/fetcher"
	"infospace/internal/infra/storage"
	"infospace/internal/infra/provider/search"
	"infospace/internal/repository"
	"infospace/internal/usecase/fetch"
	"infospace/internal/usecase/processor"
)

// readabilityScraper adapts *fetcher.ReadabilityFetcher (which returns
// *fetcher.ScrapedPage) to processor.ScrapingProvider (which expects
// *processor.ScrapedPage). The two types carry identical fields but Go
// interfaces require the concrete method signature to match exactly, so a
// thin translation lives here at the wiring boundary instead of collapsing
// the usecase/infra package split.
type readabilityScraper struct {
	fetcher *fetcher.ReadabilityFetcher
}

func NewScrapingProvider(f *fetcher.ReadabilityFetcher) processor.ScrapingProvider {
	return &readabilityScraper{fetcher: f}
}

func (s *readabilityScraper) Scrape(url string) (*processor.ScrapedPage, error) {
	page, err := s.fetcher.Scrape(url)
	if err != nil {
		return nil, err
	}
	return &processor.ScrapedPage{
		Title:           page.Title,
		TextContent:     page.TextContent,
		TopImage:        page.TopImage,
		Images:          page.Images,
		PublicationDate: page.PublicationDate,
		Summary:         page.Summary,
	}, nil
}

// Dependencies bundles everything NewRouter needs to construct the Router
// and its eight handlers.
type Dependencies struct {
	AssetRepo  repository.AssetRepository
	SourceRepo repository.SourceRepository
	BundleRepo repository.BundleRepository
	Storage    storage.Provider
	Registry   *processor.Registry
	Strategy   *processor.Strategy

	BinaryFetcher *fetcher.BinaryFetcher
	FeedFetcher   fetch.FeedFetcher
	// StructuredScrapers is keyed by framework name ("Webflow", "NextJS",
	// "Remix"), typically built via scraper.NewScraperFactory(...).CreateScrapers().
	StructuredScrapers map[string]fetch.FeedFetcher
	SearchProvider search.Provider
}

// NewRouter wires the eight ingestion handlers and the Router that
// dispatches to them.
func NewRouter(deps Dependencies) *Router {
	fileHandler := &FileHandler{
		AssetRepo: deps.AssetRepo,
		Storage:   deps.Storage,
		Registry:  deps.Registry,
		Strategy:  deps.Strategy,
	}
	webHandler := &WebHandler{
		AssetRepo: deps.AssetRepo,
		Storage:   deps.Storage,
		Registry:  deps.Registry,
	}

	return &Router{
		AssetRepo:  deps.AssetRepo,
		SourceRepo: deps.SourceRepo,
		BundleRepo: deps.BundleRepo,

		File: fileHandler,
		Text: &TextHandler{AssetRepo: deps.AssetRepo},
		Web:  webHandler,
		DirectFile: &DirectFileHandler{
			Fetcher: deps.BinaryFetcher,
			File:    fileHandler,
		},
		URLList: &URLListHandler{Web: webHandler},
		RSS: &RSSHandler{
			AssetRepo: deps.AssetRepo,
			Fetcher:   deps.FeedFetcher,
		},
		SiteDiscovery: &SiteDiscoveryHandler{Web: webHandler},
		StructuredSite: &StructuredSiteHandler{
			AssetRepo: deps.AssetRepo,
			Scrapers:  deps.StructuredScrapers,
		},
		Search: &SearchHandler{
			AssetRepo: deps.AssetRepo,
			Provider:  deps.SearchProvider,
		},
	}
}
