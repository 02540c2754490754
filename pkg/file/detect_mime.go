package file

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMimeType sniffs data. It returns "application/octet-stream" when
// nothing matches.
func DetectMimeType(data []byte) string {
	return mimetype.Detect(data).String()
}

func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// ExtensionFor returns the extension (with dot) registered for a MIME type, or
// "" when unknown.
func ExtensionFor(mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil {
		return m.Extension()
	}
	return ""
}
