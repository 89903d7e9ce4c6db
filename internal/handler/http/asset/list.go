package asset

import (
	"net/http"

	"infospace/internal/domain/entity"
	"infospace/internal/handler/http/respond"
	"infospace/internal/repository"
)

type ListHandler struct{ Repo repository.AssetRepository }

// ServeHTTP lists Assets in the requested infospace, optionally filtered by
// source_id, kind, and parent_id.
// @Summary      List assets
// @Description  Lists assets belonging to the given infospace
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        source_id query int false "filter by source"
// @Param        kind query string false "filter by asset kind"
// @Param        parent_id query int false "filter by parent asset (children only)"
// @Success      200 {array} DTO "assets"
// @Failure      400 {string} string "Bad request"
// @Failure      401 {string} string "Authentication required"
// @Failure      500 {string} string "internal error"
// @Router       /assets [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	filters := entity.AssetSearchFilters{InfospaceID: &infospaceID}
	if sourceID, err := parseInt64Query(r, "source_id"); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	} else {
		filters.SourceID = sourceID
	}
	if parentID, err := parseInt64Query(r, "parent_id"); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	} else {
		filters.ParentID = parentID
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k := entity.AssetKind(kind)
		filters.Kind = &k
	}

	list, err := h.Repo.List(r.Context(), filters)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOList(list))
}
