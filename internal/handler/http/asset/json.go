package asset

import (
	"encoding/json"
	"errors"
	"net/http"
)

var errEmptyIDs = errors.New("ids must be non-empty")

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
