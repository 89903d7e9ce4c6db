package run

import (
	"encoding/json"
	"errors"
	"net/http"

	"infospace/internal/handler/http/respond"
	annotationUC "infospace/internal/usecase/annotation"
	bundleUC "infospace/internal/usecase/bundle"
)

type CreateHandler struct {
	Svc       *annotationUC.Service
	BundleSvc bundleUC.Service
}

// ServeHTTP creates a PENDING AnnotationRun targeting schema_ids over either
// an explicit asset_ids list or the members of target_bundle_id (the
// handler's job is resolving that XOR into a concrete asset id list; the
// run itself only ever sees asset_ids, per usecase/annotation.Service).
// @Summary      Create annotation run
// @Description  Creates a run targeting schema_ids over asset_ids or target_bundle_id
// @Tags         runs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        run body object true "run fields: name, schema_ids, asset_ids, target_bundle_id, include_parent_context, context_window, model_name"
// @Success      201 {object} DTO "created run"
// @Failure      400 {string} string "Bad request"
// @Router       /runs [post]
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name                 string  `json:"name"`
		SchemaIDs            []int64 `json:"schema_ids"`
		AssetIDs             []int64 `json:"asset_ids"`
		TargetBundleID       *int64  `json:"target_bundle_id"`
		IncludeParentContext bool    `json:"include_parent_context"`
		ContextWindow        int     `json:"context_window"`
		ModelName            string  `json:"model_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.AssetIDs) > 0 && req.TargetBundleID != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("asset_ids and target_bundle_id are mutually exclusive"))
		return
	}

	assetIDs := req.AssetIDs
	if req.TargetBundleID != nil {
		assetIDs, err = h.BundleSvc.AssetIDs(r.Context(), *req.TargetBundleID)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
	}

	run, err := h.Svc.CreateRun(r.Context(), infospaceID, 0, req.Name, req.SchemaIDs, assetIDs, annotationUC.RunOptions{
		IncludeParentContext: req.IncludeParentContext,
		ContextWindow:        req.ContextWindow,
		ModelName:            req.ModelName,
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(run))
}
