package diff

import (
	"fmt"
	"path/filepath"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Unified returns a unified diff turning the current content of path
// into the planned content. It is empty when both are equal.
func Unified(path, current, planned string) string {
	if current == planned {
		return ""
	}

	name := filepath.ToSlash(path)
	edits := myers.ComputeEdits(span.URIFromPath(name), current, planned)
	return fmt.Sprint(gotextdiff.ToUnified(name+" (on disk)", name+" (planned)", current, edits))
}

// Binary reports whether content looks binary and should not be diffed
func Binary(content []byte) bool {
	n := len(content)
	if n > 8000 {
		n = 8000
	}
	for _, c := range content[:n] {
		if c == 0 {
			return true
		}
	}
	return false
}
