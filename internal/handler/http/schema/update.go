package schema

import (
	"encoding/json"
	"net/http"

	"infospace/internal/domain/entity"
	"infospace/internal/handler/http/pathutil"
	"infospace/internal/handler/http/respond"
	schemaUC "infospace/internal/usecase/schema"
)

type UpdateHandler struct{ Svc schemaUC.Service }

// ServeHTTP updates a schema's Instructions/FieldSpecificJustificationCfg.
// OutputContract is immutable; bump the version via a new schema instead.
// @Summary      Update schema
// @Tags         schemas
// @Security     BearerAuth
// @Accept       json
// @Param        id path int true "Schema ID"
// @Param        schema body object true "fields to update: instructions, field_specific_justification_configs"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Failure      404 {string} string "Not found"
// @Router       /schemas/{id} [put]
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/schemas/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Instructions                  string          `json:"instructions"`
		FieldSpecificJustificationCfg entity.Metadata `json:"field_specific_justification_configs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	err = h.Svc.Update(r.Context(), schemaUC.UpdateInput{
		ID:                            id,
		Instructions:                  req.Instructions,
		FieldSpecificJustificationCfg: req.FieldSpecificJustificationCfg,
	})
	if err != nil {
		code := http.StatusBadRequest
		if err == schemaUC.ErrSchemaNotFound {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type DeleteHandler struct{ Svc schemaUC.Service }

// ServeHTTP deletes a schema. Runs that reference it are left as-is.
// @Summary      Delete schema
// @Tags         schemas
// @Security     BearerAuth
// @Param        id path int true "Schema ID"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Router       /schemas/{id} [delete]
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/schemas/")
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
