// Package sanitize strips markup from user-provided profile text.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	leadingSlashes = regexp.MustCompile(`^/+`)
	entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", "\"", "&#39;", "'")
)

// StripHTML removes all HTML tags, keeping the text between them.
// Tags smuggled in as entities are removed on a second pass.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a free-text profile field (real name, nickname, address).
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr is Text for optional fields. A value that is empty after
// sanitizing becomes nil so the column is cleared rather than set to "".
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}

// TrimLeadingSlashes removes every leading '/' from a storage path.
func TrimLeadingSlashes(p string) string {
	return leadingSlashes.ReplaceAllString(p, "")
}
