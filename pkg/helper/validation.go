package helper

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseBool reads an optional boolean parameter; "" yields def.
func ParseBool(name, value string, def bool) (bool, error) {
	if strings.TrimSpace(value) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("parameter %s: %q is not a boolean", name, value)
	}
	return b, nil
}

// ParseInt reads an optional integer parameter; "" yields def.
func ParseInt(name, value string, def int) (int, error) {
	if strings.TrimSpace(value) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %q is not an integer", name, value)
	}
	return n, nil
}

// KindFromMime maps a MIME type to the declared kind of an attachment:
// "image/png" -> "image", "video/mp4" -> "video".
func KindFromMime(mimeType string) string {
	top, _, found := strings.Cut(strings.ToLower(mimeType), "/")
	if !found {
		return ""
	}
	switch top {
	case "image", "video", "audio", "text":
		return top
	case "application":
		if strings.HasSuffix(mimeType, "pdf") {
			return "pdf"
		}
	}
	return ""
}

// Extension returns the lowercase extension of filename without the dot.
func Extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
