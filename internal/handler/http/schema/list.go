package schema

import (
	"net/http"

	"infospace/internal/handler/http/pathutil"
	"infospace/internal/handler/http/respond"
	schemaUC "infospace/internal/usecase/schema"
)

type ListHandler struct{ Svc schemaUC.Service }

// ServeHTTP lists every schema in the infospace, latest and prior versions
// alike.
// @Summary      List schemas
// @Tags         schemas
// @Security     BearerAuth
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Success      200 {array} DTO
// @Failure      400 {string} string "Bad request"
// @Router       /schemas [get]
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
	dtos := make([]DTO, len(list))
	for i, s := range list {
		dtos[i] = toDTO(s)
	}
	respond.JSON(w, http.StatusOK, dtos)
}

type GetHandler struct{ Svc schemaUC.Service }

// ServeHTTP returns a single schema by ID.
// @Summary      Get schema
// @Tags         schemas
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Schema ID"
// @Success      200 {object} DTO
// @Failure      404 {string} string "Not found"
// @Router       /schemas/{id} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/schemas/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	sch, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if err == schemaUC.ErrSchemaNotFound {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(sch))
}
