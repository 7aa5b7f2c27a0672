// Package matcher provides multi-pattern substring matching using an Aho-Corasick automaton.
// It wraps the petar-dambovaliev/aho-corasick library so that a whole term
// list is tested against a text in one pass.
package matcher

import (
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Set answers "does this text contain any of the terms" for a fixed term list.
// Matching is byte-wise and case-sensitive; callers lowercase both sides.
// A Set is immutable after construction and safe for concurrent use.
type Set struct {
	automaton aho.AhoCorasick
	terms     []string
}

// NewSet compiles terms into a Set. Empty and repeated terms are dropped.
func NewSet(terms []string) *Set {
	unique := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		unique = append(unique, term)
	}

	s := &Set{terms: unique}
	if len(unique) == 0 {
		return s
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	s.automaton = builder.Build(unique)
	return s
}

// Empty reports whether the set has no terms and therefore never matches.
func (s *Set) Empty() bool {
	return s == nil || len(s.terms) == 0
}

// ContainsAny reports whether text contains at least one term.
func (s *Set) ContainsAny(text string) bool {
	if s.Empty() || text == "" {
		return false
	}
	return len(s.automaton.FindAll(text)) > 0
}
