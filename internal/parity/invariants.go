package parity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/match-ranker/internal/classify"
	"github.com/jonathan/match-ranker/internal/rank"
	"github.com/jonathan/match-ranker/internal/terms"
	"github.com/jonathan/match-ranker/internal/titlefilter"
	"github.com/jonathan/match-ranker/internal/types"
)

// InvariantsBinding names the invariant checker in mismatches that report
// a single engine breaking a rule on its own output.
const InvariantsBinding = "invariants"

// FilterViolations runs the title filter on e and returns every rule its
// output breaks: it must be an in-order subset of items, keep only items
// with a matching title (or no title when keepNull is set), return items
// unchanged when no prefix survives normalization, and be idempotent.
// Engine errors are returned as is; comparing engines reports them.
func FilterViolations(e rank.Engine, items []types.Candidate, prefixes []string, keepNull bool) ([]string, error) {
	out, err := e.FilterByTitlePrefix(items, prefixes, keepNull)
	if err != nil {
		return nil, err
	}

	var violations []string
	normalized := terms.Normalize(prefixes)

	if len(normalized) == 0 {
		same, err := sameCandidates(out, items)
		if err != nil {
			return nil, err
		}
		if !same {
			violations = append(violations, "output differs from input with no active prefixes")
		}
	}

	subset, err := isSubsequence(out, items)
	if err != nil {
		return nil, err
	}
	if !subset {
		violations = append(violations, "output is not an in-order subset of the input")
	}

	if len(normalized) > 0 {
		for _, item := range out {
			title, ok := titlefilter.ResolveTitle(item)
			if !ok {
				if !keepNull {
					violations = append(violations, fmt.Sprintf("item %q has no title but null titles are dropped", item.ID))
				}
				continue
			}
			if !titlefilter.HasAnyPrefix(strings.ToLower(title), normalized) {
				violations = append(violations, fmt.Sprintf("item %q title %q starts with no prefix", item.ID, title))
			}
		}
	}

	again, err := e.FilterByTitlePrefix(out, prefixes, keepNull)
	if err != nil {
		return nil, err
	}
	same, err := sameCandidates(again, out)
	if err != nil {
		return nil, err
	}
	if !same {
		violations = append(violations, "filtering the output again changes it")
	}

	return violations, nil
}

// MergeViolations runs classify-and-merge on e and returns every rule its
// output breaks: the size bound, no excluded candidate, and then either the
// truncated survivor list or, when a positive match is required, unique
// keys owned by their first occurrence in positive, aux, rest order.
func MergeViolations(e rank.Engine, matches []types.Candidate, profile types.Profile, limit int) ([]string, error) {
	out, err := e.ClassifyAndMerge(matches, profile, limit)
	if err != nil {
		return nil, err
	}

	var violations []string
	rules := classify.NewRules(profile)

	var survivors []types.Candidate
	for _, c := range matches {
		if !rules.Excluded(c) {
			survivors = append(survivors, c)
		}
	}

	if len(out) > max(limit, 0) {
		violations = append(violations, fmt.Sprintf("%d results exceed limit %d", len(out), limit))
	}
	for _, c := range out {
		if rules.Excluded(c) {
			violations = append(violations, fmt.Sprintf("excluded candidate %q in output", c.ID))
		}
	}

	if !profile.RequirePositive {
		want := survivors[:min(max(limit, 0), len(survivors))]
		same, err := sameCandidates(out, want)
		if err != nil {
			return nil, err
		}
		if !same {
			violations = append(violations, fmt.Sprintf("output is not the first %d survivors", len(want)))
		}
		return violations, nil
	}

	owner := make(map[string]int)
	for i, c := range survivors {
		key := c.DedupKey()
		if _, taken := owner[key]; !taken && key != "" {
			owner[key] = i
		}
	}
	if want := min(max(limit, 0), len(owner)); len(out) != want {
		violations = append(violations, fmt.Sprintf("%d results, expected %d", len(out), want))
	}

	seen := make(map[string]bool, len(out))
	lastTier, lastIndex := -1, -1
	for _, c := range out {
		key := c.DedupKey()
		if key == "" {
			violations = append(violations, fmt.Sprintf("candidate %q has an empty dedup key", c.ID))
			continue
		}
		if seen[key] {
			violations = append(violations, fmt.Sprintf("dedup key %q emitted twice", key))
			continue
		}
		seen[key] = true

		index, ok := owner[key]
		if !ok {
			violations = append(violations, fmt.Sprintf("dedup key %q is not held by any survivor", key))
			continue
		}
		same, err := sameCandidates([]types.Candidate{c}, survivors[index:index+1])
		if err != nil {
			return nil, err
		}
		if !same {
			violations = append(violations, fmt.Sprintf("dedup key %q emitted from a later duplicate", key))
		}

		tier := tierOf(rules, survivors[index])
		switch {
		case tier < lastTier:
			violations = append(violations, fmt.Sprintf("candidate %q breaks positive, aux, rest order", c.ID))
		case tier == lastTier && index < lastIndex:
			violations = append(violations, fmt.Sprintf("candidate %q breaks input order within its tier", c.ID))
		}
		lastTier, lastIndex = tier, index
	}

	return violations, nil
}

// tierOf ranks a candidate 0 when positive, 1 when aux and 2 otherwise.
func tierOf(rules classify.Rules, c types.Candidate) int {
	positive, aux, _ := rules.Flags(c)
	switch {
	case positive:
		return 0
	case aux:
		return 1
	default:
		return 2
	}
}

func sameCandidates(a, b []types.Candidate) (bool, error) {
	left, err := Canonical(a)
	if err != nil {
		return false, err
	}
	right, err := Canonical(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

// isSubsequence reports whether every element of sub appears in list, in order.
func isSubsequence(sub, list []types.Candidate) (bool, error) {
	j := 0
	for _, c := range sub {
		want, err := json.Marshal(c)
		if err != nil {
			return false, fmt.Errorf("failed to encode candidate: %w", err)
		}
		for ; j < len(list); j++ {
			got, err := json.Marshal(list[j])
			if err != nil {
				return false, fmt.Errorf("failed to encode candidate: %w", err)
			}
			if bytes.Equal(want, got) {
				break
			}
		}
		if j == len(list) {
			return false, nil
		}
		j++
	}
	return true, nil
}
