// Package search provides small helpers shared by the repository layer's
// keyword-search queries: ILIKE escaping and a default query timeout.
package search

import (
	"strings"
	"time"
)

// DefaultSearchTimeout bounds how long a keyword/similarity search query may
// run before its context is cancelled.
const DefaultSearchTimeout = 5 * time.Second

// EscapeILIKE escapes PostgreSQL ILIKE wildcard characters in a user-supplied
// keyword and wraps it for a substring match. Without this, a keyword
// containing `%` or `_` would silently widen the match instead of being
// searched for literally.
func EscapeILIKE(keyword string) string {
	escaped := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	).Replace(keyword)
	return "%" + escaped + "%"
}
