package pkgexport

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// unsafeFilenameChars matches everything secureFilename strips, mirroring
// werkzeug's secure_filename character class (spec §4.9.2).
var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// secureFilename restricts name to a safe character class, collapsing runs
// of unsafe characters to "_" and dropping any directory components, so it
// is safe to use as a single path segment inside files/. Falls back to
// unnamed_file_<hex8> when nothing safe remains.
func secureFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_.")
	if base == "" {
		return fmt.Sprintf("unnamed_file_%s", uuid.New().String()[:8])
	}
	return base
}
