package source

import (
	"errors"
	"net/http"
	"strconv"
)

// infospaceIDFromRequest reads the infospace_id query parameter every
// source endpoint is scoped by. A dedicated auth-derived infospace
// membership context (spec §1's JWT membership gate) supersedes this once
// built; until then every request must name its infospace explicitly.
func infospaceIDFromRequest(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("infospace_id")
	if raw == "" {
		return 0, errors.New("infospace_id query parameter required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("infospace_id must be a positive integer")
	}
	return id, nil
}
