package auth

import "strings"

// Slugify lowercases name and replaces each run of whitespace with a single
// hyphen. Other characters are kept as-is.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
