// Package classify applies a profile's exclusion and inclusion rules to retrieved matches.
package classify

import (
	"strings"

	"github.com/jonathan/match-ranker/internal/terms"
	"github.com/jonathan/match-ranker/internal/types"
)

// Rules is a profile with every term list normalized.
type Rules struct {
	RequirePositive bool

	Exclude []string
	Demote  []string

	IncludeCompany  []string
	IncludeTitle    []string
	IncludeHeadline []string // company and title terms, also used for free text
	IncludeWebsite  []string
	IncludeIndustry []string

	AuxCompany  []string
	AuxTitle    []string
	AuxHeadline []string
	AuxWebsite  []string
	AuxIndustry []string
}

// NewRules normalizes the term lists of a profile once per request.
func NewRules(profile types.Profile) Rules {
	r := Rules{
		RequirePositive: profile.RequirePositive,
		Exclude:         terms.Normalize(profile.ExcludeTerms),
		Demote:          terms.Normalize(profile.DemoteTerms),
		IncludeCompany:  terms.Normalize(profile.IncludeCompanyTerms),
		IncludeTitle:    terms.Normalize(profile.IncludeTitleTerms),
		IncludeWebsite:  terms.Normalize(profile.IncludeWebsiteTerms),
		IncludeIndustry: terms.Normalize(profile.IncludeIndustryTerms),
		AuxCompany:      terms.Normalize(profile.AuxCompanyTerms),
		AuxTitle:        terms.Normalize(profile.AuxTitleTerms),
		AuxWebsite:      terms.Normalize(profile.AuxWebsiteTerms),
		AuxIndustry:     terms.Normalize(profile.AuxIndustryTerms),
	}
	r.IncludeHeadline = terms.Union(r.IncludeCompany, r.IncludeTitle)
	r.AuxHeadline = terms.Union(r.AuxCompany, r.AuxTitle)
	return r
}

// ContainsAny reports whether text is present and contains any non-empty term,
// ignoring case. Terms are expected to be normalized already.
func ContainsAny(text string, ok bool, terms []string) bool {
	if !ok || len(terms) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
