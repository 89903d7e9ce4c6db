package bundle

import (
	"net/http"

	"infospace/internal/handler/http/respond"
	bundleUC "infospace/internal/usecase/bundle"
)

type ListHandler struct{ Svc bundleUC.Service }

// ServeHTTP lists every Bundle in the requested infospace.
// @Summary      List bundles
// @Tags         bundles
// @Security     BearerAuth
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Success      200 {array} DTO "bundles"
// @Failure      400 {string} string "Bad request"
// @Router       /bundles [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.Svc.List(r.Context(), infospaceID)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, b := range list {
		out = append(out, toDTO(b))
	}
	respond.JSON(w, http.StatusOK, out)
}

type GetHandler struct{ Svc bundleUC.Service }

// ServeHTTP retrieves a single Bundle and its linked asset ids.
// @Summary      Get bundle
// @Tags         bundles
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Bundle ID"
// @Success      200 {object} DTO "bundle"
// @Failure      400 {string} string "Bad request"
// @Failure      404 {string} string "Not found"
// @Router       /bundles/{id} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractBundleID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if err == bundleUC.ErrBundleNotFound {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	assetIDs, err := h.Svc.AssetIDs(r.Context(), id)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	dto := toDTO(b)
	respond.JSON(w, http.StatusOK, struct {
		DTO
		AssetIDs []int64 `json:"asset_ids"`
	}{DTO: dto, AssetIDs: assetIDs})
}
