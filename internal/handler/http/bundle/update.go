package bundle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"infospace/internal/handler/http/respond"
	bundleUC "infospace/internal/usecase/bundle"
)

// extractBundleID pulls the numeric id out of "/bundles/{id}" and
// "/bundles/{id}/assets" alike, unlike pathutil.ExtractID which only
// strips a fixed prefix and parses the remainder whole.
func extractBundleID(r *http.Request) (int64, error) {
	rest := strings.TrimPrefix(r.URL.Path, "/bundles/")
	idStr, _, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid bundle id")
	}
	return id, nil
}

type UpdateHandler struct{ Svc bundleUC.Service }

// ServeHTTP updates a bundle's name/purpose. Omitted fields are unchanged.
// @Summary      Update bundle
// @Tags         bundles
// @Security     BearerAuth
// @Accept       json
// @Param        id path int true "Bundle ID"
// @Param        bundle body object true "fields to update: name, purpose"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Failure      404 {string} string "Not found"
// @Router       /bundles/{id} [put]
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractBundleID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Name    string `json:"name"`
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	err = h.Svc.Update(r.Context(), bundleUC.UpdateInput{ID: id, Name: req.Name, Purpose: req.Purpose})
	if err != nil {
		code := http.StatusBadRequest
		if err == bundleUC.ErrBundleNotFound {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type DeleteHandler struct{ Svc bundleUC.Service }

// ServeHTTP deletes a bundle. Linked assets are left untouched.
// @Summary      Delete bundle
// @Tags         bundles
// @Security     BearerAuth
// @Param        id path int true "Bundle ID"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Router       /bundles/{id} [delete]
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractBundleID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AddAssetsHandler struct{ Svc bundleUC.Service }

type assetIDsRequest struct {
	AssetIDs []int64 `json:"asset_ids"`
}

// ServeHTTP links asset_ids to the bundle.
// @Summary      Add assets to bundle
// @Tags         bundles
// @Security     BearerAuth
// @Accept       json
// @Param        id path int true "Bundle ID"
// @Param        request body assetIDsRequest true "asset ids to link"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Router       /bundles/{id}/assets [post]
func (h AddAssetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractBundleID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req assetIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.AddAssets(r.Context(), id, req.AssetIDs); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type RemoveAssetsHandler struct{ Svc bundleUC.Service }

// ServeHTTP unlinks asset_ids from the bundle.
// @Summary      Remove assets from bundle
// @Tags         bundles
// @Security     BearerAuth
// @Accept       json
// @Param        id path int true "Bundle ID"
// @Param        request body assetIDsRequest true "asset ids to unlink"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Router       /bundles/{id}/assets [delete]
func (h RemoveAssetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractBundleID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req assetIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.RemoveAssets(r.Context(), id, req.AssetIDs); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
