// Package fileid derives stable document IDs from file paths.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	prefix  = "md:"
	hexSize = 16
)

// DocumentID returns a stable ID for the markdown file at path. Relative paths are
// resolved against the working directory first, so "./a.md" and its absolute form
// share an ID. Reloading the same file keeps the ID; only the revision changes.
func DocumentID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return prefix + hex.EncodeToString(hash[:])[:hexSize]
}
