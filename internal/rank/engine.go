// Package rank exposes the title filter and the classify-and-merge pipeline
// behind one interface with two interchangeable bindings: the optimized
// fast path and the portable reference implementation.
package rank

import (
	"github.com/jonathan/match-ranker/internal/classify"
	"github.com/jonathan/match-ranker/internal/fastpath"
	"github.com/jonathan/match-ranker/internal/merge"
	"github.com/jonathan/match-ranker/internal/titlefilter"
	"github.com/jonathan/match-ranker/internal/types"
)

// Binding names accepted by New and by configuration.
const (
	BindingOptimized = "optimized"
	BindingReference = "reference"
)

// Operation names used in logs and metrics.
const (
	OpFilterByTitlePrefix = "filter_by_title_prefix"
	OpClassifyAndMerge    = "classify_and_merge"
)

// Engine is the stable signature shared by every binding.
type Engine interface {
	// Name identifies the binding.
	Name() string
	// FilterByTitlePrefix keeps the items whose title starts with one of prefixes.
	FilterByTitlePrefix(items []types.Candidate, prefixes []string, keepNullTitles bool) ([]types.Candidate, error)
	// ClassifyAndMerge returns at most finalLimit deduplicated, tier-ordered matches.
	ClassifyAndMerge(matches []types.Candidate, profile types.Profile, finalLimit int) ([]types.Candidate, error)
}

// Reference is the portable implementation: plain substring loops and one
// full pass per merge tier. It never returns an error.
type Reference struct{}

// Name implements Engine.
func (Reference) Name() string { return BindingReference }

// FilterByTitlePrefix implements Engine.
func (Reference) FilterByTitlePrefix(items []types.Candidate, prefixes []string, keepNullTitles bool) ([]types.Candidate, error) {
	return titlefilter.Filter(items, prefixes, keepNullTitles), nil
}

// ClassifyAndMerge implements Engine.
func (Reference) ClassifyAndMerge(matches []types.Candidate, profile types.Profile, finalLimit int) ([]types.Candidate, error) {
	result, _ := merge.Merge(classify.Classify(matches, profile), profile.RequirePositive, finalLimit)
	return result, nil
}

// Optimized is the compiled fast path.
type Optimized struct{}

// Name implements Engine.
func (Optimized) Name() string { return BindingOptimized }

// FilterByTitlePrefix implements Engine.
func (Optimized) FilterByTitlePrefix(items []types.Candidate, prefixes []string, keepNullTitles bool) ([]types.Candidate, error) {
	return fastpath.FilterByTitlePrefix(items, prefixes, keepNullTitles), nil
}

// ClassifyAndMerge implements Engine.
func (Optimized) ClassifyAndMerge(matches []types.Candidate, profile types.Profile, finalLimit int) ([]types.Candidate, error) {
	return fastpath.ClassifyAndMerge(matches, profile, finalLimit), nil
}
