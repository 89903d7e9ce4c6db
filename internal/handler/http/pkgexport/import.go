package pkgexport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"infospace/internal/handler/http/respond"
	"infospace/internal/usecase/pkgexport"
)

const maxImportBytes = 64 << 20 // 64MB, generous headroom over a single asset's upload cap

var errImportTooLarge = errors.New("uploaded package exceeds the maximum allowed size")

type ImportHandler struct {
	Deps pkgexport.Dependencies
}

// ImportResultDTO is the wire shape of an ImportResult.
type ImportResultDTO struct {
	ResourceType string   `json:"resource_type"`
	SourceUUID   string   `json:"source_uuid"`
	LocalID      int64    `json:"local_id"`
	LocalUUID    string   `json:"local_uuid"`
	Outcome      string   `json:"outcome"`
	Warnings     []string `json:"warnings,omitempty"`
}

func toImportResultDTO(res *pkgexport.ImportResult) ImportResultDTO {
	return ImportResultDTO{
		ResourceType: string(res.ResourceType),
		SourceUUID:   res.SourceUUID,
		LocalID:      res.LocalID,
		LocalUUID:    res.LocalUUID.String(),
		Outcome:      string(res.Outcome),
		Warnings:     res.Warnings,
	}
}

// ServeHTTP accepts an uploaded package ZIP and reconstructs it against the
// requesting infospace, skipping any entity whose UUID already exists
// locally (spec §4.9.3's only supported conflict strategy).
// @Summary      Import package
// @Description  Imports a previously exported package ZIP into an infospace
// @Tags         pkgexport
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        file formData file true "package ZIP to import"
// @Success      200 {object} ImportResultDTO "import outcome"
// @Failure      400 {string} string "Bad request"
// @Router       /import [post]
func (h ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) > maxImportBytes {
		respond.SafeError(w, http.StatusBadRequest, errImportTooLarge)
		return
	}

	pkg, err := pkgexport.FromZip(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	// Auth tokens carry no numeric user id yet; UserID is left zero until
	// the auth layer grows infospace membership.
	imp := pkgexport.NewImporter(h.Deps, infospaceID, 0)

	var result *pkgexport.ImportResult
	switch pkg.Metadata.PackageType {
	case pkgexport.ResourceTypeAsset:
		result, err = imp.ImportAsset(r.Context(), pkg, pkgexport.ConflictStrategySkip)
	case pkgexport.ResourceTypeSource:
		result, err = imp.ImportSource(r.Context(), pkg, pkgexport.ConflictStrategySkip)
	case pkgexport.ResourceTypeSchema:
		result, err = imp.ImportSchema(r.Context(), pkg, pkgexport.ConflictStrategySkip)
	case pkgexport.ResourceTypeRun:
		result, err = imp.ImportRun(r.Context(), pkg, pkgexport.ConflictStrategySkip)
	case pkgexport.ResourceTypeBundle:
		result, err = imp.ImportBundle(r.Context(), pkg, pkgexport.ConflictStrategySkip)
	case pkgexport.ResourceTypeDataset:
		result, err = imp.ImportDataset(r.Context(), pkg, pkgexport.ConflictStrategySkip)
	case pkgexport.ResourceTypeMixed:
		result, err = imp.ImportMixed(r.Context(), pkg, pkgexport.ConflictStrategySkip)
	default:
		err = fmt.Errorf("unsupported package type %q", pkg.Metadata.PackageType)
	}
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusOK, toImportResultDTO(result))
}
