package file

import (
	"path/filepath"
	"strings"
)

// OutputFileName derives the name of a re-encoded copy: the base name of the
// original without its extension, plus ".min.<ext>". An empty original name
// yields an empty result.
func OutputFileName(original, ext string) string {
	if original == "" {
		return ""
	}
	base := filepath.Base(original)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return name + ".min." + ext
}
