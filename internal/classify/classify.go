package classify

import (
	"github.com/jonathan/match-ranker/internal/metadata"
	"github.com/jonathan/match-ranker/internal/types"
)

// field is a resolved metadata value; ok is false when absent.
type field struct {
	text string
	ok   bool
}

func extract(c types.Candidate, key string) field {
	text, ok := metadata.Extract(c.Metadata, key)
	return field{text: text, ok: ok}
}

// Excluded reports whether company, title or headline contains an exclude term.
func (r Rules) Excluded(c types.Candidate) bool {
	if len(r.Exclude) == 0 {
		return false
	}
	for _, key := range []string{metadata.FieldCompany, metadata.FieldTitle, metadata.FieldHeadline} {
		f := extract(c, key)
		if ContainsAny(f.text, f.ok, r.Exclude) {
			return true
		}
	}
	return false
}

// Classify drops hard-excluded matches and flags the survivors.
// Flags are only computed when the profile requires a positive match;
// otherwise every survivor is returned unflagged, in input order.
func Classify(matches []types.Candidate, profile types.Profile) []types.ClassifiedCandidate {
	rules := NewRules(profile)

	classified := make([]types.ClassifiedCandidate, 0, len(matches))
	for _, c := range matches {
		if rules.Excluded(c) {
			continue
		}
		entry := types.ClassifiedCandidate{Candidate: c}
		if rules.RequirePositive {
			entry.Positive, entry.Aux, entry.DemotedPositive = rules.Flags(c)
		}
		classified = append(classified, entry)
	}
	return classified
}

// Flags computes the positive, aux and demoted-positive flags of one candidate.
// Aux is only set when positive is not; demotion never revokes positive.
func (r Rules) Flags(c types.Candidate) (positive, aux, demoted bool) {
	company := extract(c, metadata.FieldCompany)
	title := extract(c, metadata.FieldTitle)
	headline := extract(c, metadata.FieldHeadline)
	website := extract(c, metadata.FieldWebsite)
	industry := extract(c, metadata.FieldIndustry)
	freeText := extract(c, metadata.FieldFreeText)

	positive = ContainsAny(company.text, company.ok, r.IncludeCompany) ||
		ContainsAny(title.text, title.ok, r.IncludeTitle) ||
		ContainsAny(headline.text, headline.ok, r.IncludeHeadline) ||
		ContainsAny(website.text, website.ok, r.IncludeWebsite) ||
		ContainsAny(industry.text, industry.ok, r.IncludeIndustry) ||
		ContainsAny(freeText.text, freeText.ok, r.IncludeHeadline)

	if !positive {
		aux = ContainsAny(company.text, company.ok, r.AuxCompany) ||
			ContainsAny(title.text, title.ok, r.AuxTitle) ||
			ContainsAny(headline.text, headline.ok, r.AuxHeadline) ||
			ContainsAny(website.text, website.ok, r.AuxWebsite) ||
			ContainsAny(industry.text, industry.ok, r.AuxIndustry) ||
			ContainsAny(freeText.text, freeText.ok, r.AuxHeadline)
	}

	if positive {
		demoted = ContainsAny(company.text, company.ok, r.Demote) ||
			ContainsAny(title.text, title.ok, r.Demote) ||
			ContainsAny(headline.text, headline.ok, r.Demote)
	}

	return positive, aux, demoted
}
