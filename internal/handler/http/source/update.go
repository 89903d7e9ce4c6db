package source

import (
	"encoding/json"
	"errors"
	"net/http"

	"infospace/internal/domain/entity"
	"infospace/internal/handler/http/pathutil"
	"infospace/internal/handler/http/respond"
	srcUC "infospace/internal/usecase/source"
)

type UpdateHandler struct{ Svc srcUC.Service }

// ServeHTTP updates an existing source's name, status, and/or details.
// @Summary      Update source
// @Description  Updates an existing source. Omitted fields are left unchanged.
// @Tags         sources
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path int true "Source ID"
// @Param        source body object true "fields to update: name, status, details"
// @Success      204 "No Content" headers(X-RateLimit-Limit=integer,X-RateLimit-Remaining=integer,X-RateLimit-Reset=integer)
// @Failure      400 {string} string "Bad request - invalid input"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      404 {string} string "Not found - source not found"
// @Failure      429 {string} string "Too many requests - rate limit exceeded" headers(X-RateLimit-Limit=integer,X-RateLimit-Remaining=integer,X-RateLimit-Reset=integer,Retry-After=integer)
// @Router       /sources/{id} [put]
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name    string          `json:"name"`
		Status  string          `json:"status"`
		Details entity.Metadata `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	err = h.Svc.Update(r.Context(), srcUC.UpdateInput{
		ID:      id,
		Name:    req.Name,
		Status:  req.Status,
		Details: req.Details,
	})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, srcUC.ErrSourceNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
