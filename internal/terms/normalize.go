// Package terms normalizes the configurable term lists used by filters and classifiers.
package terms

import "strings"

// Normalize trims and lowercases each term and drops the ones left empty.
// The input is never modified; a nil input yields an empty list.
func Normalize(terms []string) []string {
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		normalized = append(normalized, term)
	}
	return normalized
}

// Union concatenates normalized lists in order. Duplicates are kept.
func Union(lists ...[]string) []string {
	size := 0
	for _, list := range lists {
		size += len(list)
	}
	union := make([]string, 0, size)
	for _, list := range lists {
		union = append(union, list...)
	}
	return union
}
