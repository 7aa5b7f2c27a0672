// Package titlefilter keeps or drops items by whether their title starts with a configured prefix.
package titlefilter

import (
	"strings"

	"github.com/jonathan/match-ranker/internal/metadata"
	"github.com/jonathan/match-ranker/internal/terms"
	"github.com/jonathan/match-ranker/internal/types"
)

// Filter returns the items whose title starts with at least one prefix, in input order.
// Prefix matching is case-insensitive and ignores surrounding whitespace.
// Items without a usable title are kept only when keepNullTitles is set.
// When no prefix survives normalization the input is returned unchanged.
func Filter(items []types.Candidate, prefixes []string, keepNullTitles bool) []types.Candidate {
	normalized := terms.Normalize(prefixes)
	if len(normalized) == 0 {
		return items
	}

	kept := make([]types.Candidate, 0, len(items))
	for _, item := range items {
		title, ok := ResolveTitle(item)
		if !ok {
			if keepNullTitles {
				kept = append(kept, item)
			}
			continue
		}
		if HasAnyPrefix(strings.ToLower(title), normalized) {
			kept = append(kept, item)
		}
	}
	return kept
}

// ResolveTitle returns the trimmed title of an item, preferring the direct
// title field over metadata.title. Blank titles are treated as absent.
func ResolveTitle(item types.Candidate) (string, bool) {
	if item.Title != nil {
		if title, ok := item.Title.Resolve(); ok {
			if title = strings.TrimSpace(title); title != "" {
				return title, true
			}
		}
	}

	title, ok := metadata.Extract(item.Metadata, metadata.FieldTitle)
	if !ok {
		return "", false
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	return title, true
}

// HasAnyPrefix reports whether text starts with any of the prefixes.
func HasAnyPrefix(text string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}
