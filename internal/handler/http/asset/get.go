package asset

import (
	"errors"
	"net/http"

	"infospace/internal/handler/http/pathutil"
	"infospace/internal/handler/http/respond"
	"infospace/internal/repository"
)

type GetHandler struct{ Repo repository.AssetRepository }

var errAssetNotFound = errors.New("asset not found")

// ServeHTTP retrieves a single Asset by ID.
// @Summary      Get asset
// @Description  Retrieves a single asset by ID
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Asset ID"
// @Success      200 {object} DTO "asset"
// @Failure      400 {string} string "Bad request - invalid ID"
// @Failure      404 {string} string "Not found"
// @Router       /assets/{id} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/assets/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if a == nil {
		respond.SafeError(w, http.StatusNotFound, errAssetNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(a))
}
