package bundle

import (
	"errors"
	"net/http"
	"strconv"
)

// infospaceIDFromRequest reads the infospace_id query parameter every
// bundle endpoint is scoped by, mirroring internal/handler/http/source's
// own helper.
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
