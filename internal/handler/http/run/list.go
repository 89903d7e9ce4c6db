package run

import (
	"net/http"

	"infospace/internal/handler/http/pathutil"
	"infospace/internal/handler/http/respond"
	annotationUC "infospace/internal/usecase/annotation"
)

type ListHandler struct{ Repo *annotationUC.Service }

// ServeHTTP lists every run in the infospace.
// @Summary      List annotation runs
// @Tags         runs
// @Security     BearerAuth
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Success      200 {array} DTO
// @Failure      400 {string} string "Bad request"
// @Router       /runs [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.Repo.RunRepo.List(r.Context(), infospaceID)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]DTO, len(list))
	for i, run := range list {
		dtos[i] = toDTO(run)
	}
	respond.JSON(w, http.StatusOK, dtos)
}

type GetHandler struct{ Repo *annotationUC.Service }

// ServeHTTP returns a single run by ID.
// @Summary      Get annotation run
// @Tags         runs
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Run ID"
// @Success      200 {object} DTO
// @Failure      404 {string} string "Not found"
// @Router       /runs/{id} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/runs/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	run, err := h.Repo.RunRepo.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, http.StatusNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(run))
}
