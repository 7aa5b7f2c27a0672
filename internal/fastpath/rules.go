// Package fastpath is the optimized rendition of the title filter and the
// classify-and-merge pipeline. Profiles are compiled into Aho-Corasick term
// sets, candidate fields are resolved and lowercased once, and merge tiers are
// bucketed in a single classification pass.
package fastpath

import (
	"strings"

	"github.com/jonathan/match-ranker/internal/matcher"
	"github.com/jonathan/match-ranker/internal/metadata"
	"github.com/jonathan/match-ranker/internal/terms"
	"github.com/jonathan/match-ranker/internal/types"
)

// Rules is a profile compiled into term sets.
type Rules struct {
	requirePositive bool

	exclude *matcher.Set
	demote  *matcher.Set

	include termGroup
	aux     termGroup
}

// termGroup holds the per-field sets of one inclusion level (include or aux).
type termGroup struct {
	company  *matcher.Set
	title    *matcher.Set
	headline *matcher.Set // company and title terms; also applied to free text
	website  *matcher.Set
	industry *matcher.Set
}

func compileGroup(company, title, website, industry []string) termGroup {
	c := terms.Normalize(company)
	t := terms.Normalize(title)
	return termGroup{
		company:  matcher.NewSet(c),
		title:    matcher.NewSet(t),
		headline: matcher.NewSet(terms.Union(c, t)),
		website:  matcher.NewSet(terms.Normalize(website)),
		industry: matcher.NewSet(terms.Normalize(industry)),
	}
}

// Compile normalizes and compiles every term list of profile.
func Compile(profile types.Profile) *Rules {
	return &Rules{
		requirePositive: profile.RequirePositive,
		exclude:         matcher.NewSet(terms.Normalize(profile.ExcludeTerms)),
		demote:          matcher.NewSet(terms.Normalize(profile.DemoteTerms)),
		include: compileGroup(profile.IncludeCompanyTerms, profile.IncludeTitleTerms,
			profile.IncludeWebsiteTerms, profile.IncludeIndustryTerms),
		aux: compileGroup(profile.AuxCompanyTerms, profile.AuxTitleTerms,
			profile.AuxWebsiteTerms, profile.AuxIndustryTerms),
	}
}

// fields holds the lowercased metadata of one candidate. Absent fields are "",
// which no non-empty term can match.
type fields struct {
	company  string
	title    string
	headline string
	website  string
	industry string
	freeText string
}

func lowered(m types.Metadata, key string) string {
	text, ok := metadata.Extract(m, key)
	if !ok {
		return ""
	}
	return strings.ToLower(text)
}

// identity resolves the fields the hard-exclude rule looks at.
func identity(c types.Candidate) fields {
	return fields{
		company:  lowered(c.Metadata, metadata.FieldCompany),
		title:    lowered(c.Metadata, metadata.FieldTitle),
		headline: lowered(c.Metadata, metadata.FieldHeadline),
	}
}

// complete resolves the remaining fields used for positive and aux flags.
func (f *fields) complete(c types.Candidate) {
	f.website = lowered(c.Metadata, metadata.FieldWebsite)
	f.industry = lowered(c.Metadata, metadata.FieldIndustry)
	f.freeText = lowered(c.Metadata, metadata.FieldFreeText)
}

func (r *Rules) excluded(f *fields) bool {
	if r.exclude.Empty() {
		return false
	}
	return r.exclude.ContainsAny(f.company) ||
		r.exclude.ContainsAny(f.title) ||
		r.exclude.ContainsAny(f.headline)
}

func (g *termGroup) matches(f *fields) bool {
	return g.company.ContainsAny(f.company) ||
		g.title.ContainsAny(f.title) ||
		g.headline.ContainsAny(f.headline) ||
		g.website.ContainsAny(f.website) ||
		g.industry.ContainsAny(f.industry) ||
		g.headline.ContainsAny(f.freeText)
}

func (r *Rules) demoted(f *fields) bool {
	return r.demote.ContainsAny(f.company) ||
		r.demote.ContainsAny(f.title) ||
		r.demote.ContainsAny(f.headline)
}
