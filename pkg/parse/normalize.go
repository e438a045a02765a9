package parse

import (
	"regexp"
	"strings"
)

// NormalizeURL standardizes a URL string for duplicate comparison:
// lowercased with a single trailing slash stripped. This is deliberately
// coarser than full URL normalization: two listings that differ only in
// case or a trailing slash are the same certification.
func NormalizeURL(rawURL string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rawURL)), "/")
}

// NormalizeName standardizes a display name for duplicate comparison.
// Case-folded only; no other transformation, so "Intro to Cloud" and
// "intro to cloud" collide but "Intro to Cloud 2" does not.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims a string and collapses internal whitespace
// runs (including newlines from HTML text nodes) to single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// EnsureScheme prepends https:// to a bare URL. Raw tabular input often
// carries scheme-less URLs; the canonical dataset requires absolute ones.
func EnsureScheme(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "https://" + rawURL
	}
	return rawURL
}
