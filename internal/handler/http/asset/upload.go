package asset

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"infospace/internal/handler/http/respond"
	"infospace/internal/usecase/ingest"
)

var errUploadTooLarge = errors.New("uploaded file exceeds the maximum allowed size")

type UploadHandler struct{ Router *ingest.Router }

const maxUploadBytes = 32 << 20 // 32MB, matching processor.Registry's default handling of file assets

// ServeHTTP accepts a multipart file upload and routes it through
// ingest.FileHandler.
// @Summary      Upload asset file
// @Description  Uploads a file (CSV, PDF, Excel, or generic) as a new asset
// @Tags         assets
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        file formData file true "file to upload"
// @Param        title formData string false "asset title"
// @Param        bundle_id formData int false "bundle to link the new asset(s) to"
// @Success      201 {array} DTO "created assets"
// @Failure      400 {string} string "Bad request"
// @Failure      401 {string} string "Authentication required"
// @Router       /assets/upload [post]
func (h UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) > maxUploadBytes {
		respond.SafeError(w, http.StatusBadRequest, errUploadTooLarge)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	var bundleID *int64
	if raw := r.FormValue("bundle_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		bundleID = &id
	}

	loc := ingest.FileLocator{Upload: ingest.FileUpload{Filename: header.Filename, Data: data}}

	// Auth tokens carry no numeric user id yet (see infospaceIDFromRequest);
	// UserID is left zero until the auth layer grows infospace membership.
	assets, err := h.Router.Ingest(r.Context(), loc, infospaceID, 0, title, bundleID, ingest.DefaultOptions())
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTOList(assets))
}
