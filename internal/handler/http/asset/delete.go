package asset

import (
	"net/http"

	"infospace/internal/handler/http/pathutil"
	"infospace/internal/handler/http/respond"
	"infospace/internal/repository"
)

type DeleteHandler struct{ Repo repository.AssetRepository }

// ServeHTTP deletes an asset by ID.
// @Summary      Delete asset
// @Description  Deletes an asset by ID
// @Tags         assets
// @Security     BearerAuth
// @Param        id path int true "Asset ID"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request - invalid ID"
// @Failure      500 {string} string "internal error"
// @Router       /assets/{id} [delete]
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/assets/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type BulkDeleteHandler struct{ Repo repository.AssetRepository }

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// ServeHTTP deletes many assets in one transaction, reporting any ids that
// failed without aborting the rest (spec's BulkOperationError semantics).
// @Summary      Bulk delete assets
// @Description  Deletes many assets by ID; per-id failures are reported without aborting the batch
// @Tags         assets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body bulkDeleteRequest true "ids to delete"
// @Success      200 {object} entity.BulkOperationError "partial failure report, empty if every id succeeded"
// @Failure      400 {string} string "Bad request"
// @Router       /assets/bulk-delete [post]
func (h BulkDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.IDs) == 0 {
		respond.SafeError(w, http.StatusBadRequest, errEmptyIDs)
		return
	}

	result, err := h.Repo.DeleteBatch(r.Context(), req.IDs)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}
