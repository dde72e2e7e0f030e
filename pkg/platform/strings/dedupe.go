// Package strings normalizes user-supplied string lists.
package strings

import (
	"strings"
)

// DedupeAndTrim drops blanks and repeats after trimming. Order of first
// occurrence is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// SplitList splits every element on sep and normalizes the pieces, so
// "a, b" and ["a", "b"] agree. Env vars and repeated query parameters both
// arrive this way.
//
//	SplitList([]string{"a:9092, b:9092", "a:9092"}, ",")
//	// Returns: []string{"a:9092", "b:9092"}
func SplitList(values []string, sep string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, sep)...)
	}
	return DedupeAndTrim(parts)
}
