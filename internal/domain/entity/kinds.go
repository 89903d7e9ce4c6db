package entity

// AssetKind identifies the shape and provenance of an Asset's content.
type AssetKind string

const (
	AssetKindPDF     AssetKind = "PDF"
	AssetKindCSV     AssetKind = "CSV"
	AssetKindCSVRow  AssetKind = "CSV_ROW"
	AssetKindPDFPage AssetKind = "PDF_PAGE"
	AssetKindWeb     AssetKind = "WEB"
	AssetKindImage   AssetKind = "IMAGE"
	AssetKindText    AssetKind = "TEXT"
	AssetKindArticle AssetKind = "ARTICLE"
	AssetKindMbox    AssetKind = "MBOX"
	AssetKindEmail   AssetKind = "EMAIL"
	AssetKindVideo   AssetKind = "VIDEO"
	AssetKindAudio   AssetKind = "AUDIO"
	AssetKindFile      AssetKind = "FILE"
	AssetKindExcel     AssetKind = "EXCEL"
	AssetKindExcelSheet AssetKind = "EXCEL_SHEET"
	AssetKindExcelRow  AssetKind = "EXCEL_ROW"
)

// requiresParent returns true for kinds that only ever exist as children.
func (k AssetKind) requiresParent() bool {
	switch k {
	case AssetKindPDFPage, AssetKindCSVRow, AssetKindImage, AssetKindExcelSheet, AssetKindExcelRow:
		return true
	default:
		return false
	}
}

// Processable reports whether this kind has a registered content processor
// under default routing (spec §6, PROCESSABLE_KINDS).
func (k AssetKind) Processable() bool {
	switch k {
	case AssetKindCSV, AssetKindPDF, AssetKindWeb, AssetKindMbox, AssetKindExcel:
		return true
	default:
		return false
	}
}

// ProcessingStatus tracks the lifecycle of an Asset's content processing.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "PENDING"
	ProcessingStatusProcessing ProcessingStatus = "PROCESSING"
	ProcessingStatusReady      ProcessingStatus = "READY"
	ProcessingStatusFailed     ProcessingStatus = "FAILED"
)

// SourceKind identifies how a Source's assets were ingested.
type SourceKind string

const (
	SourceKindFileUpload    SourceKind = "FILE_UPLOAD"
	SourceKindURLList       SourceKind = "URL_LIST"
	SourceKindRSSFeed       SourceKind = "RSS_FEED"
	SourceKindDirectFile    SourceKind = "DIRECT_FILE"
	SourceKindSiteDiscovery SourceKind = "SITE_DISCOVERY"
	SourceKindWebPage       SourceKind = "WEB_PAGE"
	SourceKindSearchQuery   SourceKind = "SEARCH_QUERY"
	SourceKindText          SourceKind = "TEXT"
	SourceKindAdhoc         SourceKind = "ADHOC"
	SourceKindStructuredWeb SourceKind = "STRUCTURED_WEB"
)

// ScraperConfig parameterizes a framework-specific structured-site scraper
// (Webflow CMS, Next.js, Remix) that extracts a page listing directly from
// its embedded data rather than readability-scraping rendered HTML. Only
// the fields relevant to the chosen framework are set; the rest stay zero.
type ScraperConfig struct {
	// Webflow CSS selectors for its rendered collection list.
	ItemSelector  string `json:"item_selector,omitempty"`
	TitleSelector string `json:"title_selector,omitempty"`
	DateSelector  string `json:"date_selector,omitempty"`
	URLSelector   string `json:"url_selector,omitempty"`
	DateFormat    string `json:"date_format,omitempty"`

	// Next.js __NEXT_DATA__ JSON path to the item array (default
	// "initialSeedData").
	DataKey string `json:"data_key,omitempty"`

	// Remix route loader data key carrying the item array.
	ContextKey string `json:"context_key,omitempty"`

	// URLPrefix is prepended to relative item URLs for every framework.
	URLPrefix string `json:"url_prefix,omitempty"`
}

// RunStatus is the lifecycle state of an AnnotationRun (spec §4.5).
type RunStatus string

const (
	RunStatusPending               RunStatus = "PENDING"
	RunStatusRunning                RunStatus = "RUNNING"
	RunStatusCompleted              RunStatus = "COMPLETED"
	RunStatusCompletedWithErrors     RunStatus = "COMPLETED_WITH_ERRORS"
	RunStatusFailed                 RunStatus = "FAILED"
	RunStatusPaused                 RunStatus = "PAUSED"
)

// IsTerminal reports whether the run status accepts no further transitions
// other than the documented retry path (FAILED -> PENDING).
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCompletedWithErrors
}

// AnnotationStatus is the lifecycle state of a single Annotation.
type AnnotationStatus string

const (
	AnnotationStatusPending  AnnotationStatus = "PENDING"
	AnnotationStatusSuccess  AnnotationStatus = "SUCCESS"
	AnnotationStatusFailed   AnnotationStatus = "FAILED"
)
