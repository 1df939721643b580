package slug

import (
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	dashRuns     = regexp.MustCompile(`-{2,}`)
)

// Make converts a display name into a URL-safe slug: lowercase, punctuation
// stripped, whitespace collapsed into single hyphens.
func Make(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = invalidChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValid reports whether the value already conforms to the slug shape.
func IsValid(value string) bool {
	if value == "" {
		return false
	}
	return value == Make(value)
}
