package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization currently trims surrounding
// whitespace and lower-cases the address.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Label normalizes a single-word model answer (sentiment labels and the like)
// before it is compared against a fixed vocabulary.
func Label(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
