package util

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFilename reduces an uploaded filename to a safe base name: path
// components are stripped and anything outside [A-Za-z0-9._-] is replaced
// with an underscore. Returns "upload" if nothing usable remains.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}

// FileExtension returns the lower-cased extension of name without the
// leading dot, or "" if there is none.
func FileExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return strings.TrimPrefix(ext, ".")
}
