// Package ingest routes a heterogeneous input locator (file upload, URL,
// list of URLs, pasted text, RSS feed, or bare search query) to the handler
// that turns it into one or more Assets, then hands each new processable
// Asset to the processor registry when immediate processing is requested.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
	"infospace/internal/usecase/processor"
)

// FileUpload is the bytes+metadata shape a FileLocator carries. SourceURL is
// set by DirectFileHandler so the resulting asset still records where the
// file came from; it is empty for a genuine user upload.
type FileUpload struct {
	Filename  string
	Data      []byte
	SourceURL string
	// IngestionMethod overrides the default SourceKindFileUpload stamp,
	// used by DirectFileHandler to record SourceKindDirectFile instead.
	IngestionMethod string
}

// Locator is the sealed set of input shapes the Router can dispatch.
type Locator interface{ isLocator() }

type FileLocator struct{ Upload FileUpload }
type TextLocator struct{ Text string }
type StringLocator struct{ Value string }
type URLListLocator struct{ URLs []string }

// StructuredSiteLocator names a known JS-framework index page to parse via
// its embedded data instead of readability-scraping rendered HTML.
type StructuredSiteLocator struct {
	Framework string // "Webflow", "NextJS", or "Remix"
	RootURL   string
	Config    *entity.ScraperConfig
}

func (FileLocator) isLocator()          {}
func (TextLocator) isLocator()          {}
func (StringLocator) isLocator()        {}
func (URLListLocator) isLocator()       {}
func (StructuredSiteLocator) isLocator() {}

// Options mirrors the per-call knobs every handler reads from (spec §4.1).
type Options struct {
	ProcessImmediately bool
	ScrapeImmediately  bool
	MaxItems           int
	MaxDepth           int
	MaxURLs            int
	UseBulkScraping    bool
	MaxThreads         int
	CreateImageAssets  bool
	BaseTitle          string
	Metadata           entity.Metadata
	UserPreferImmediate *bool // explicit override fed to Strategy
}

// DefaultOptions returns the documented per-field defaults.
func DefaultOptions() Options {
	return Options{
		ProcessImmediately: true,
		MaxItems:           25,
		MaxDepth:            2,
		MaxURLs:              40,
		MaxThreads:          4,
	}
}

// ErrUnsupportedLocator is returned when a Locator has no matching handler.
type ErrUnsupportedLocator struct{ Kind string }

func (e *ErrUnsupportedLocator) Error() string {
	return fmt.Sprintf("ingest: no handler for locator kind %q", e.Kind)
}

// Router is the ingestion entry point: it detects the locator's source
// type and dispatches to the owning Handler, then links the resulting
// assets to a bundle if one was requested.
type Router struct {
	AssetRepo  repository.AssetRepository
	SourceRepo repository.SourceRepository
	BundleRepo repository.BundleRepository

	File          *FileHandler
	Text          *TextHandler
	Web           *WebHandler
	DirectFile    *DirectFileHandler
	URLList       *URLListHandler
	RSS           *RSSHandler
	SiteDiscovery *SiteDiscoveryHandler
	StructuredSite *StructuredSiteHandler
	Search        *SearchHandler
}

// Ingest dispatches loc to its handler and, if bundleID is given, links
// every returned asset to that bundle (spec §4.1: increment asset_count by
// only the newly-linked assets).
func (r *Router) Ingest(ctx context.Context, loc Locator, infospaceID, userID int64, title string, bundleID *int64, opts Options) ([]*entity.Asset, error) {
	assets, err := r.dispatch(ctx, loc, infospaceID, userID, title, opts)
	if err != nil {
		return nil, err
	}

	if bundleID != nil && len(assets) > 0 {
		ids := make([]int64, len(assets))
		for i, a := range assets {
			ids[i] = a.ID
		}
		if err := r.BundleRepo.AddAssets(ctx, *bundleID, ids); err != nil {
			return nil, fmt.Errorf("link assets to bundle %d: %w", *bundleID, err)
		}
		if err := r.BundleRepo.RecomputeAssetCount(ctx, *bundleID); err != nil {
			return nil, fmt.Errorf("recompute bundle %d asset count: %w", *bundleID, err)
		}
	}

	return assets, nil
}

func (r *Router) dispatch(ctx context.Context, loc Locator, infospaceID, userID int64, title string, opts Options) ([]*entity.Asset, error) {
	switch l := loc.(type) {
	case FileLocator:
		return r.File.Handle(ctx, infospaceID, userID, title, l.Upload, opts)
	case TextLocator:
		return r.Text.Handle(ctx, infospaceID, userID, title, l.Text, opts)
	case URLListLocator:
		return r.URLList.Handle(ctx, infospaceID, userID, title, l.URLs, opts)
	case StringLocator:
		return r.dispatchString(ctx, l.Value, infospaceID, userID, title, opts)
	case StructuredSiteLocator:
		return r.StructuredSite.Handle(ctx, infospaceID, userID, title, l.Framework, l.RootURL, l.Config, opts)
	default:
		return nil, &ErrUnsupportedLocator{Kind: fmt.Sprintf("%T", loc)}
	}
}

// binaryExtensions are the path suffixes that mark a bare URL as a direct
// file download rather than a web page to scrape (spec §4.1 step 3).
var binaryExtensions = []string{".pdf", ".doc", ".docx", ".csv", ".xlsx", ".zip", ".tar", ".gz"}

func (r *Router) dispatchString(ctx context.Context, value string, infospaceID, userID int64, title string, opts Options) ([]*entity.Asset, error) {
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return r.Search.Handle(ctx, infospaceID, userID, title, value, opts)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return r.Web.Handle(ctx, infospaceID, userID, title, value, opts)
	}
	path := strings.ToLower(parsed.Path)

	switch {
	case strings.HasSuffix(path, ".rss") || strings.HasSuffix(path, ".xml") ||
		strings.Contains(path, "/feed/") || strings.Contains(path, "/feeds/"):
		return r.RSS.Handle(ctx, infospaceID, userID, title, value, opts)
	case hasBinaryExtension(path):
		return r.DirectFile.Handle(ctx, infospaceID, userID, title, value, opts)
	case path == "" || path == "/" || strings.Contains(path, "discover"):
		return r.SiteDiscovery.Handle(ctx, infospaceID, userID, title, value, opts)
	default:
		return r.Web.Handle(ctx, infospaceID, userID, title, value, opts)
	}
}

func hasBinaryExtension(path string) bool {
	for _, ext := range binaryExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// ingestedAtMetadata stamps the two fields every handler must record per
// spec §4.2: ingestion_method and ingested_at (UTC ISO-8601).
func ingestedAtMetadata(method string) entity.Metadata {
	return entity.Metadata{
		"ingestion_method": method,
		"ingested_at":      time.Now().UTC().Format(time.RFC3339),
	}
}

func mergeMetadata(dst entity.Metadata, src entity.Metadata) entity.Metadata {
	if dst == nil {
		dst = entity.Metadata{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
