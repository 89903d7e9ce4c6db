package run

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"infospace/internal/handler/http/respond"
	annotationUC "infospace/internal/usecase/annotation"
)

// extractRunID pulls the numeric id out of "/runs/{id}/execute" and its
// /pause, /retry siblings, mirroring bundle's own extractBundleID.
func extractRunID(r *http.Request) (int64, error) {
	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	idStr, _, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid run id")
	}
	return id, nil
}

type ExecuteHandler struct{ Svc *annotationUC.Service }

// ServeHTTP drives a run from PENDING (or a resumed RUNNING) through every
// (asset, schema) pair. The request blocks for the run's duration; callers
// wanting fire-and-forget execution should invoke this from a worker
// goroutine instead.
// @Summary      Execute annotation run
// @Tags         runs
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Router       /runs/{id}/execute [post]
func (h ExecuteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractRunID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Execute(r.Context(), id); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PauseHandler struct{ Svc *annotationUC.Service }

// ServeHTTP pauses a RUNNING run.
// @Summary      Pause annotation run
// @Tags         runs
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Router       /runs/{id}/pause [post]
func (h PauseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractRunID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Pause(r.Context(), id); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type RetryHandler struct{ Svc *annotationUC.Service }

// ServeHTTP resets a FAILED run back to PENDING, clearing its error message.
// @Summary      Retry annotation run
// @Tags         runs
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      204 "No Content"
// @Failure      400 {string} string "Bad request"
// @Router       /runs/{id}/retry [post]
func (h RetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := extractRunID(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Retry(r.Context(), id); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
