// Package merge turns classified matches into a bounded, deduplicated, tier-ordered result.
package merge

import "github.com/jonathan/match-ranker/internal/types"

// Tier is one prioritized pass over the classified matches.
type Tier struct {
	Name  string
	Match func(c types.ClassifiedCandidate) bool
}

// Tier names, in fill order.
const (
	TierPositive = "positive"
	TierDemoted  = "demoted_positive"
	TierAux      = "aux"
	TierRest     = "rest"
)

// DefaultTiers is the fill order applied when a profile requires a positive match.
// The demoted pass can only see candidates the positive pass already
// considered, so it never emits; it is kept to preserve the pass sequence.
var DefaultTiers = []Tier{
	{Name: TierPositive, Match: func(c types.ClassifiedCandidate) bool { return c.Positive }},
	{Name: TierDemoted, Match: func(c types.ClassifiedCandidate) bool { return c.DemotedPositive }},
	{Name: TierAux, Match: func(c types.ClassifiedCandidate) bool { return c.Aux }},
	{Name: TierRest, Match: func(c types.ClassifiedCandidate) bool { return !c.Positive && !c.Aux }},
}

// Stats records how many candidates each tier emitted.
type Stats struct {
	Emitted map[string]int `json:"emitted"`
}

// Merge bounds the classified matches to limit entries.
// Without requirePositive the survivors are truncated in input order with no
// dedup. Otherwise DefaultTiers are filled in order; within a tier input order
// is kept and candidates with an empty dedup key are skipped. A dedup key
// belongs to its first occurrence in input order: later duplicates are never
// emitted, even when they classify into a higher tier.
func Merge(classified []types.ClassifiedCandidate, requirePositive bool, limit int) ([]types.Candidate, Stats) {
	stats := Stats{Emitted: make(map[string]int)}
	if limit <= 0 {
		return []types.Candidate{}, stats
	}

	if !requirePositive {
		n := min(limit, len(classified))
		out := make([]types.Candidate, 0, n)
		for _, c := range classified[:n] {
			out = append(out, c.Candidate)
		}
		return out, stats
	}

	return Fill(classified, DefaultTiers, limit)
}

// Fill runs the tiers in order over classified, sharing one emitted-key set.
func Fill(classified []types.ClassifiedCandidate, tiers []Tier, limit int) ([]types.Candidate, Stats) {
	stats := Stats{Emitted: make(map[string]int, len(tiers))}
	out := make([]types.Candidate, 0, min(limit, len(classified)))

	keys := make([]string, len(classified))
	owner := make(map[string]int, len(classified))
	for i, c := range classified {
		key := c.Candidate.DedupKey()
		keys[i] = key
		if _, taken := owner[key]; !taken && key != "" {
			owner[key] = i
		}
	}
	seen := make(map[string]struct{}, len(classified))

	for _, tier := range tiers {
		for i, c := range classified {
			if len(out) >= limit {
				return out, stats
			}
			if !tier.Match(c) {
				continue
			}
			key := keys[i]
			if key == "" || owner[key] != i {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c.Candidate)
			stats.Emitted[tier.Name]++
		}
	}
	return out, stats
}
