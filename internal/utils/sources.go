package utils

import (
	"slices"
	"strings"
)

// UniqueSources splits a newline or comma separated list of source names,
// trims them, drops blanks and duplicates and returns them sorted.
func UniqueSources(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	seen := make(map[string]struct{}, len(fields))
	sources := make([]string, 0, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}

	slices.Sort(sources)
	return sources
}
