package bundle

import (
	"encoding/json"
	"errors"
	"net/http"

	"infospace/internal/handler/http/respond"
	bundleUC "infospace/internal/usecase/bundle"
)

type CreateHandler struct{ Svc bundleUC.Service }

// ServeHTTP creates a new Bundle, optionally seeded with asset_ids.
// @Summary      Create bundle
// @Description  Creates a new bundle within the given infospace
// @Tags         bundles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        bundle body object true "bundle fields: name, purpose, asset_ids"
// @Success      201 {object} DTO "created bundle"
// @Failure      400 {string} string "Bad request"
// @Router       /bundles [post]
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name     string  `json:"name"`
		Purpose  string  `json:"purpose"`
		AssetIDs []int64 `json:"asset_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("name required"))
		return
	}

	// Auth tokens carry no numeric user id yet (see infospaceIDFromRequest);
	// UserID is left zero until the auth layer grows infospace membership.
	b, err := h.Svc.Create(r.Context(), bundleUC.CreateInput{
		InfospaceID: infospaceID,
		Name:        req.Name,
		Purpose:     req.Purpose,
		AssetIDs:    req.AssetIDs,
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(b))
}
