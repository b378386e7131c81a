package document

import "strings"

// PathSeparator joins path segments.
const PathSeparator = "."

// JoinPath appends key to prefix. An empty prefix yields key unchanged.
func JoinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + PathSeparator + key
}

// SplitPath splits a dotted path into its segments. Segments are taken
// verbatim, so "a..b" addresses the empty key between a and b.
func SplitPath(path string) []string {
	return strings.Split(path, PathSeparator)
}

// Lookup walks root along path and returns the raw node. Walking stops with
// ok=false at the first absent segment.
func Lookup(root *Value, path string) (*Value, bool) {
	current := root
	for _, segment := range SplitPath(path) {
		next, ok := current.Child(segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}
