package fastpath

import (
	"sort"
	"strings"

	"github.com/jonathan/match-ranker/internal/terms"
	"github.com/jonathan/match-ranker/internal/titlefilter"
	"github.com/jonathan/match-ranker/internal/types"
)

const (
	tierPositive = iota
	tierDemoted
	tierAux
	tierRest
	tierCount
)

// ClassifyAndMerge excludes, classifies and merges matches into at most limit entries.
func ClassifyAndMerge(matches []types.Candidate, profile types.Profile, limit int) []types.Candidate {
	if limit <= 0 {
		return []types.Candidate{}
	}
	rules := Compile(profile)
	if !rules.requirePositive {
		return survivors(matches, rules, limit)
	}

	var buckets [tierCount][]int
	owned := make(map[string]struct{}, len(matches))
	for i, c := range matches {
		f := identity(c)
		if rules.excluded(&f) {
			continue
		}
		key := c.DedupKey()
		if key == "" {
			continue
		}
		if _, taken := owned[key]; taken {
			continue
		}
		owned[key] = struct{}{}

		f.complete(c)
		switch {
		case rules.include.matches(&f):
			buckets[tierPositive] = append(buckets[tierPositive], i)
			if rules.demoted(&f) {
				buckets[tierDemoted] = append(buckets[tierDemoted], i)
			}
		case rules.aux.matches(&f):
			buckets[tierAux] = append(buckets[tierAux], i)
		default:
			buckets[tierRest] = append(buckets[tierRest], i)
		}
	}

	out := make([]types.Candidate, 0, min(limit, len(owned)))
	emitted := make([]bool, len(matches))
	for _, bucket := range buckets {
		for _, i := range bucket {
			if len(out) == limit {
				return out
			}
			if emitted[i] {
				continue
			}
			emitted[i] = true
			out = append(out, matches[i])
		}
	}
	return out
}

// survivors returns the first limit matches that are not hard-excluded.
func survivors(matches []types.Candidate, rules *Rules, limit int) []types.Candidate {
	out := make([]types.Candidate, 0, min(limit, len(matches)))
	for _, c := range matches {
		f := identity(c)
		if rules.excluded(&f) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

// FilterByTitlePrefix keeps items whose title starts with one of prefixes.
func FilterByTitlePrefix(items []types.Candidate, prefixes []string, keepNullTitles bool) []types.Candidate {
	compiled := CompilePrefixes(prefixes)
	if len(compiled) == 0 {
		return items
	}

	kept := make([]types.Candidate, 0, len(items))
	for _, item := range items {
		title, ok := titlefilter.ResolveTitle(item)
		if !ok {
			if keepNullTitles {
				kept = append(kept, item)
			}
			continue
		}
		lower := strings.ToLower(title)
		for _, prefix := range compiled {
			if strings.HasPrefix(lower, prefix) {
				kept = append(kept, item)
				break
			}
		}
	}
	return kept
}

// CompilePrefixes normalizes prefixes, shortest first, dropping any prefix
// that extends another one since the shorter prefix already decides the match.
func CompilePrefixes(prefixes []string) []string {
	normalized := terms.Normalize(prefixes)
	sort.SliceStable(normalized, func(i, j int) bool {
		return len(normalized[i]) < len(normalized[j])
	})

	compiled := make([]string, 0, len(normalized))
	for _, prefix := range normalized {
		redundant := false
		for _, shorter := range compiled {
			if strings.HasPrefix(prefix, shorter) {
				redundant = true
				break
			}
		}
		if !redundant {
			compiled = append(compiled, prefix)
		}
	}
	return compiled
}
