package processor

import (
	"path/filepath"
	"strings"

	"infospace/internal/domain/entity"
)

// fileExtensionMap is the canonical extension-to-AssetKind mapping; every
// upload-driven handler routes through DetectAssetKindFromExtension instead
// of hand-rolling its own switch.
var fileExtensionMap = map[string]entity.AssetKind{
	".pdf":  entity.AssetKindPDF,
	".txt":  entity.AssetKindText,
	".md":   entity.AssetKindText,
	".doc":  entity.AssetKindFile,
	".docx": entity.AssetKindFile,

	".csv":  entity.AssetKindCSV,
	".xlsx": entity.AssetKindExcel,
	".xls":  entity.AssetKindExcel,
	".json": entity.AssetKindFile,

	".jpg":  entity.AssetKindImage,
	".jpeg": entity.AssetKindImage,
	".png":  entity.AssetKindImage,
	".gif":  entity.AssetKindImage,
	".webp": entity.AssetKindImage,
	".bmp":  entity.AssetKindImage,
	".svg":  entity.AssetKindImage,

	".mp4":  entity.AssetKindVideo,
	".avi":  entity.AssetKindVideo,
	".mov":  entity.AssetKindVideo,
	".webm": entity.AssetKindVideo,
	".mp3":  entity.AssetKindAudio,
	".wav":  entity.AssetKindAudio,
	".ogg":  entity.AssetKindAudio,

	".mbox": entity.AssetKindMbox,
	".eml":  entity.AssetKindEmail,

	".zip": entity.AssetKindFile,
	".tar": entity.AssetKindFile,
	".gz":  entity.AssetKindFile,
}

// Default processing limits, overridable per-run via Context.Options.
const (
	DefaultMaxPages   = 1000
	DefaultMaxImages  = 8
	DefaultTimeoutSec = 30
)

// DetectAssetKindFromExtension maps a file extension (with or without its
// leading dot) to the AssetKind a handler should tag a new upload with.
// Unknown extensions fall back to AssetKindFile rather than erroring, since
// an unrecognized file is still a valid, if unprocessed, asset.
func DetectAssetKindFromExtension(ext string) entity.AssetKind {
	if ext == "" {
		return entity.AssetKindFile
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if kind, ok := fileExtensionMap[ext]; ok {
		return kind
	}
	return entity.AssetKindFile
}

// IsRSSFeedURL is a lightweight heuristic for routing a bare URL to the RSS
// handler versus the web/site-discovery handlers, based on common feed URL
// shapes rather than fetching and inspecting content.
func IsRSSFeedURL(url string) bool {
	if url == "" {
		return false
	}
	patterns := []string{"/rss", "/feed", "/atom", ".rss", ".xml", "rss.", "feed.", "feeds/", "/feed.xml", "/rss.xml"}
	lower := strings.ToLower(url)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Registry routes an asset to the Processor that can expand it, checking
// blob_path extension before falling back to asset kind — mirroring how
// ExcelProcessor overrides CSVProcessor for the same kind space.
type Registry struct {
	byExtension map[string]Processor
	byKind      map[entity.AssetKind]Processor
}

func NewRegistry() *Registry {
	return &Registry{
		byExtension: make(map[string]Processor),
		byKind:      make(map[entity.AssetKind]Processor),
	}
}

func (r *Registry) RegisterByKind(kind entity.AssetKind, p Processor) {
	r.byKind[kind] = p
}

func (r *Registry) RegisterByExtension(ext string, p Processor) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.byExtension[ext] = p
}

// ProcessorFor returns the processor that owns this asset, or false if none
// is registered for it.
func (r *Registry) ProcessorFor(asset *entity.Asset) (Processor, bool) {
	if asset.BlobPath != nil {
		ext := strings.ToLower(filepath.Ext(*asset.BlobPath))
		if p, ok := r.byExtension[ext]; ok && p.CanProcess(asset) {
			return p, true
		}
	}
	if p, ok := r.byKind[asset.Kind]; ok && p.CanProcess(asset) {
		return p, true
	}
	return nil, false
}

// NewDefaultRegistry wires the built-in processors the same way the
// original's register_processors() does: CSV/PDF/Web by kind, Excel by
// extension override.
func NewDefaultRegistry(scraper ScrapingProvider, maxImages int) *Registry {
	r := NewRegistry()
	r.RegisterByKind(entity.AssetKindCSV, NewCSVProcessor())
	r.RegisterByKind(entity.AssetKindPDF, NewPDFProcessor())
	r.RegisterByKind(entity.AssetKindWeb, NewWebProcessor(scraper, maxImages))
	excel := NewExcelProcessor()
	r.RegisterByKind(entity.AssetKindExcel, excel)
	r.RegisterByExtension(".xlsx", excel)
	r.RegisterByExtension(".xls", excel)
	return r
}
