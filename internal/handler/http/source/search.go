package source

import (
	"errors"
	"net/http"

	"infospace/internal/handler/http/respond"
	srcUC "infospace/internal/usecase/source"
)

type SearchHandler struct{ Svc srcUC.Service }

// ServeHTTP searches sources within an infospace by keyword.
// @Summary      Search sources
// @Description  Finds sources within the given infospace whose name matches keyword
// @Tags         sources
// @Security     BearerAuth
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        keyword query string true "search keyword"
// @Success      200 {array} DTO "search results"
// @Failure      400 {string} string "Bad request"
// @Failure      401 {string} string "Authentication required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      500 {string} string "Server error"
// @Router       /sources/search [get]
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("keyword query param required"))
		return
	}

	list, err := h.Svc.Search(r.Context(), infospaceID, keyword)
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
