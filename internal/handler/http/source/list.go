package source

import (
	"net/http"

	"infospace/internal/handler/http/respond"
	srcUC "infospace/internal/usecase/source"
)

type ListHandler struct{ Svc srcUC.Service }

// ServeHTTP lists every Source in the requested infospace.
// @Summary      List sources
// @Description  Lists every source belonging to the given infospace
// @Tags         sources
// @Security     BearerAuth
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Success      200 {array} DTO "sources" headers(X-RateLimit-Limit=integer,X-RateLimit-Remaining=integer,X-RateLimit-Reset=integer)
// @Failure      400 {string} string "Bad request - missing or invalid infospace_id"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - insufficient permissions"
// @Failure      429 {string} string "Too many requests - rate limit exceeded" headers(X-RateLimit-Limit=integer,X-RateLimit-Remaining=integer,X-RateLimit-Reset=integer,Retry-After=integer)
// @Failure      500 {string} string "internal error"
// @Router       /sources [get]
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
	for _, e := range list {
		out = append(out, toDTO(e))
	}
	respond.JSON(w, http.StatusOK, out)
}
