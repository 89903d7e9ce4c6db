package asset

import (
	"encoding/json"
	"errors"
	"net/http"

	"infospace/internal/domain/entity"
	"infospace/internal/handler/http/respond"
	"infospace/internal/usecase/ingest"
)

type IngestHandler struct{ Router *ingest.Router }

// ingestOptionsDTO mirrors ingest.Options for JSON decoding; a nil pointer
// on the wire leaves the corresponding ingest.DefaultOptions() field
// untouched.
type ingestOptionsDTO struct {
	ProcessImmediately *bool           `json:"process_immediately"`
	ScrapeImmediately  *bool           `json:"scrape_immediately"`
	MaxItems           *int            `json:"max_items"`
	MaxDepth           *int            `json:"max_depth"`
	MaxURLs            *int            `json:"max_urls"`
	UseBulkScraping    *bool           `json:"use_bulk_scraping"`
	MaxThreads         *int            `json:"max_threads"`
	CreateImageAssets  *bool           `json:"create_image_assets"`
	Metadata           entity.Metadata `json:"metadata"`
}

func (o ingestOptionsDTO) toOptions(baseTitle string) ingest.Options {
	opts := ingest.DefaultOptions()
	opts.BaseTitle = baseTitle
	opts.Metadata = o.Metadata
	if o.ProcessImmediately != nil {
		opts.ProcessImmediately = *o.ProcessImmediately
	}
	if o.ScrapeImmediately != nil {
		opts.ScrapeImmediately = *o.ScrapeImmediately
	}
	if o.MaxItems != nil {
		opts.MaxItems = *o.MaxItems
	}
	if o.MaxDepth != nil {
		opts.MaxDepth = *o.MaxDepth
	}
	if o.MaxURLs != nil {
		opts.MaxURLs = *o.MaxURLs
	}
	if o.UseBulkScraping != nil {
		opts.UseBulkScraping = *o.UseBulkScraping
	}
	if o.MaxThreads != nil {
		opts.MaxThreads = *o.MaxThreads
	}
	if o.CreateImageAssets != nil {
		opts.CreateImageAssets = *o.CreateImageAssets
	}
	return opts
}

// ingestRequest is the discriminated-union request body for every locator
// kind the ingest.Router dispatches except file upload, which has its own
// multipart endpoint (upload.go).
type ingestRequest struct {
	// Kind selects the locator: "text", "url" (bare string, re-dispatched by
	// ingest.Router.dispatchString), "url_list", or "structured_site".
	Kind          string               `json:"kind"`
	Title         string               `json:"title"`
	Text          string               `json:"text"`
	Value         string               `json:"value"`
	URLs          []string             `json:"urls"`
	Framework     string               `json:"framework"`
	RootURL       string               `json:"root_url"`
	ScraperConfig *entity.ScraperConfig `json:"scraper_config"`
	BundleID      *int64               `json:"bundle_id"`
	Options       ingestOptionsDTO     `json:"options"`
}

// ServeHTTP ingests content from a text blob, bare URL, URL list, or
// structured-site locator, optionally linking the resulting assets to a
// bundle.
// @Summary      Ingest assets
// @Description  Ingests content via one of: text, url, url_list, structured_site
// @Tags         assets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        request body ingestRequest true "ingestion request"
// @Success      201 {array} DTO "created assets"
// @Failure      400 {string} string "Bad request"
// @Failure      401 {string} string "Authentication required"
// @Failure      500 {string} string "internal error"
// @Router       /assets/ingest [post]
func (h IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var loc ingest.Locator
	switch req.Kind {
	case "text":
		if req.Text == "" {
			respond.SafeError(w, http.StatusBadRequest, errors.New("text is required for kind=text"))
			return
		}
		loc = ingest.TextLocator{Text: req.Text}
	case "url":
		if req.Value == "" {
			respond.SafeError(w, http.StatusBadRequest, errors.New("value is required for kind=url"))
			return
		}
		loc = ingest.StringLocator{Value: req.Value}
	case "search":
		if req.Value == "" {
			respond.SafeError(w, http.StatusBadRequest, errors.New("value is required for kind=search"))
			return
		}
		loc = ingest.StringLocator{Value: req.Value}
	case "url_list":
		if len(req.URLs) == 0 {
			respond.SafeError(w, http.StatusBadRequest, errors.New("urls is required for kind=url_list"))
			return
		}
		loc = ingest.URLListLocator{URLs: req.URLs}
	case "structured_site":
		if req.Framework == "" || req.RootURL == "" {
			respond.SafeError(w, http.StatusBadRequest, errors.New("framework and root_url are required for kind=structured_site"))
			return
		}
		loc = ingest.StructuredSiteLocator{Framework: req.Framework, RootURL: req.RootURL, Config: req.ScraperConfig}
	default:
		respond.SafeError(w, http.StatusBadRequest, errors.New("unsupported kind: "+req.Kind))
		return
	}

	// Auth tokens carry no numeric user id yet (see infospaceIDFromRequest);
	// UserID is left zero until the auth layer grows infospace membership.
	assets, err := h.Router.Ingest(r.Context(), loc, infospaceID, 0, req.Title, req.BundleID, req.Options.toOptions(req.Title))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTOList(assets))
}
