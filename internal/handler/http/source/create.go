package source

import (
	"encoding/json"
	"errors"
	"net/http"

	"infospace/internal/domain/entity"
	"infospace/internal/handler/http/respond"
	srcUC "infospace/internal/usecase/source"
)

type CreateHandler struct{ Svc srcUC.Service }

// ServeHTTP creates a new Source scoped to the requesting infospace.
// @Summary      Create source
// @Description  Creates a new source within the given infospace
// @Tags         sources
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        infospace_id query int true "Infospace ID"
// @Param        source body object true "source fields: name, kind, details"
// @Success      201 {object} DTO "created source"
// @Failure      400 {string} string "Bad request - invalid input"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Router       /sources [post]
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infospaceID, err := infospaceIDFromRequest(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name    string          `json:"name"`
		Kind    string          `json:"kind"`
		Details entity.Metadata `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" || req.Kind == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("name and kind required"))
		return
	}

	// Auth tokens carry no numeric user id yet (see infospaceIDFromRequest);
	// UserID is left zero until the auth layer grows infospace membership.
	src, err := h.Svc.Create(r.Context(), srcUC.CreateInput{
		InfospaceID: infospaceID,
		Name:        req.Name,
		Kind:        entity.SourceKind(req.Kind),
		Details:     req.Details,
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(src))
}
