package file

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MakeKey builds a fresh storage key. The extension is taken from fileName
// when present, otherwise from the MIME type.
func MakeKey(fileName, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ExtensionFor(mimeType)
	}
	return uuid.NewString() + ext
}

// SafeKey rejects keys that would escape a storage root.
func SafeKey(key string) bool {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return false
	}
	return true
}
