package schema

import (
	"encoding/json"
	"errors"
	"net/http"

	"infospace/internal/domain/entity"
	"infospace/internal/handler/http/respond"
	schemaUC "infospace/internal/usecase/schema"
)

type CreateHandler struct{ Svc schemaUC.Service }

// ServeHTTP creates a new version-1 AnnotationSchema, rejecting a
// malformed output_contract before persistence.
// @Summary      Create schema
// @Description  Creates a new annotation schema with a JSON-schema output_contract
// @Tags         schemas
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        schema body object true "schema fields: name, output_contract, instructions, target_level"
// @Success      201 {object} DTO "created schema"
// @Failure      400 {string} string "Bad request - invalid input or non-compiling output_contract"
// @Router       /schemas [post]
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name                          string          `json:"name"`
		OutputContract                entity.Metadata `json:"output_contract"`
		Instructions                  string          `json:"instructions"`
		FieldSpecificJustificationCfg entity.Metadata `json:"field_specific_justification_configs"`
		TargetLevel                   string          `json:"target_level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" || len(req.OutputContract) == 0 {
		respond.SafeError(w, http.StatusBadRequest, errors.New("name and output_contract are required"))
		return
	}

	sch, err := h.Svc.Create(r.Context(), schemaUC.CreateInput{
		InfospaceID:                   infospaceID,
		Name:                          req.Name,
		OutputContract:                req.OutputContract,
		Instructions:                  req.Instructions,
		FieldSpecificJustificationCfg: req.FieldSpecificJustificationCfg,
		TargetLevel:                   req.TargetLevel,
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(sch))
}
