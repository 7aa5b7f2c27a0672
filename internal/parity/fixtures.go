package parity

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/match-ranker/internal/rank"
	"github.com/jonathan/match-ranker/internal/types"
)

// Fixture is a hand-written case with the expected output ids.
// Operation is one of the rank operation names.
type Fixture struct {
	Name      string
	Operation string

	// classify-and-merge inputs
	Matches    string
	Profile    types.Profile
	FinalLimit int

	// title filter inputs
	Items    string
	Prefixes []string
	KeepNull bool

	Expected []string
}

// Decode returns the fixture's candidate list.
func (f Fixture) Decode() ([]types.Candidate, error) {
	raw := f.Matches
	if f.Operation == rank.OpFilterByTitlePrefix {
		raw = f.Items
	}
	var candidates []types.Candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return nil, fmt.Errorf("fixture %s: failed to decode candidates: %w", f.Name, err)
	}
	return candidates, nil
}

var tieredProfile = types.Profile{
	Active:              true,
	RequirePositive:     true,
	ExcludeTerms:        []string{"radio"},
	DemoteTerms:         []string{"intern"},
	IncludeCompanyTerms: []string{"acme"},
	IncludeTitleTerms:   []string{"owner"},
	IncludeWebsiteTerms: []string{".wine"},
	AuxCompanyTerms:     []string{"globex"},
	AuxIndustryTerms:    []string{"hospitality"},
}

const tieredMatches = `[
	{"id": "rest-1", "metadata": {"company": "Initech"}},
	{"id": "aux-1", "metadata": {"company": "Globex"}},
	{"id": "pos-1", "metadata": {"company": "ACME"}},
	{"id": "excluded", "metadata": {"company": "Acme", "headline": "Radio host"}},
	{"id": "demoted", "metadata": {"title": "Owner", "headline": "former INTERN"}},
	{"id": "aux-2", "metadata": {"companyIndustry": ["Hospitality"]}},
	{"id": "pos-2", "metadata": {"website": "napa.wine"}},
	{"id": "rest-2"}
]`

// Fixtures returns every hand-written edge case for the title filter and the
// classify-and-merge pipeline.
func Fixtures() []Fixture {
	return []Fixture{
		// title filter
		{
			Name:      "title prefix must start the title",
			Operation: rank.OpFilterByTitlePrefix,
			Items: `[
				{"id": "1", "title": "  WINERIES California"},
				{"id": "2", "title": "Coffee Shops Oregon"},
				{"id": "3", "title": "Awesome Wineries (should NOT match)"}
			]`,
			Prefixes: []string{" wineries "},
			Expected: []string{"1"},
		},
		{
			Name:      "blank prefixes are a no-op",
			Operation: rank.OpFilterByTitlePrefix,
			Items:     `[{"id": "1", "title": "x"}, {"id": "2"}, {"id": "3", "metadata": null}]`,
			Prefixes:  []string{"", "   "},
			Expected:  []string{"1", "2", "3"},
		},
		{
			Name:      "null titles kept on request",
			Operation: rank.OpFilterByTitlePrefix,
			Items: `[
				{"id": "1"},
				{"id": "2", "metadata": {"title": null}},
				{"id": "3", "metadata": {"title": "   "}},
				{"id": "4", "metadata": {"title": [null, null]}},
				{"id": "5", "metadata": {"title": "Tea room"}},
				{"id": "6", "metadata": {"title": "Bakery"}}
			]`,
			Prefixes: []string{"tea"},
			KeepNull: true,
			Expected: []string{"1", "2", "3", "4", "5"},
		},
		{
			Name:      "null titles dropped by default",
			Operation: rank.OpFilterByTitlePrefix,
			Items:     `[{"id": "1"}, {"id": "2", "metadata": {"title": "Tea room"}}]`,
			Prefixes:  []string{"tea"},
			Expected:  []string{"2"},
		},
		{
			Name:      "direct title preferred over metadata title",
			Operation: rank.OpFilterByTitlePrefix,
			Items: `[
				{"id": "1", "title": "Brewery", "metadata": {"title": "Winery"}},
				{"id": "2", "title": "  ", "metadata": {"title": "Winery"}},
				{"id": "3", "title": null, "metadata": {"title": ["Winery"]}}
			]`,
			Prefixes: []string{"winery"},
			Expected: []string{"2", "3"},
		},
		{
			Name:      "array and numeric titles",
			Operation: rank.OpFilterByTitlePrefix,
			Items: `[
				{"id": "1", "metadata": {"title": [null, "Wine bar", "Zoo"]}},
				{"id": "2", "metadata": {"title": ["Zoo", "Wine bar"]}},
				{"id": "3", "metadata": {"title": 2024}}
			]`,
			Prefixes: []string{"WINE", "20"},
			Expected: []string{"1", "3"},
		},

		// classify and merge
		{
			Name:      "exclude applies without requirePositive",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "1", "metadata": {"company": "KRADIO"}},
				{"id": "2", "metadata": {"title": "Radio host"}},
				{"id": "3", "metadata": {"headline": "ex-radio"}},
				{"id": "4", "metadata": {"website": "radio.com"}},
				{"id": "5", "metadata": {"metadata": "loves radio"}}
			]`,
			Profile:    types.Profile{ExcludeTerms: []string{"Radio"}},
			FinalLimit: 10,
			Expected:   []string{"4", "5"},
		},
		{
			Name:      "exclude applies with requirePositive",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "1", "metadata": {"company": "Acme Radio"}},
				{"id": "2", "metadata": {"company": "Acme"}}
			]`,
			Profile:    types.Profile{RequirePositive: true, ExcludeTerms: []string{"radio"}, IncludeCompanyTerms: []string{"acme"}},
			FinalLimit: 10,
			Expected:   []string{"2"},
		},
		{
			Name:      "no dedup or classification without requirePositive",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "1", "metadata": {"contactId": "c1"}},
				{"id": "2", "metadata": {"contactId": "c1", "company": "Acme"}},
				{"id": ""},
				{"id": "4"}
			]`,
			Profile:    types.Profile{IncludeCompanyTerms: []string{"acme"}},
			FinalLimit: 3,
			Expected:   []string{"1", "2", ""},
		},
		{
			Name:       "tier order",
			Operation:  rank.OpClassifyAndMerge,
			Matches:    tieredMatches,
			Profile:    tieredProfile,
			FinalLimit: 10,
			Expected:   []string{"pos-1", "demoted", "pos-2", "aux-1", "aux-2", "rest-1", "rest-2"},
		},
		{
			Name:       "tier order truncated",
			Operation:  rank.OpClassifyAndMerge,
			Matches:    tieredMatches,
			Profile:    tieredProfile,
			FinalLimit: 4,
			Expected:   []string{"pos-1", "demoted", "pos-2", "aux-1"},
		},
		{
			Name:      "first occurrence owns the contact id",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "first", "metadata": {"contactId": "c1", "company": "Initech"}},
				{"id": "second", "metadata": {"contactId": "c1", "company": "Acme"}},
				{"id": "third", "metadata": {"contactId": ["c1"], "company": "Acme"}}
			]`,
			Profile:    types.Profile{RequirePositive: true, IncludeCompanyTerms: []string{"acme"}},
			FinalLimit: 10,
			Expected:   []string{"first"},
		},
		{
			Name:      "id is the key without contact id",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "x", "metadata": {"contactId": ""}},
				{"id": "x", "metadata": {"company": "Acme"}},
				{"id": "y", "metadata": {"contactId": null, "company": "Acme"}}
			]`,
			Profile:    types.Profile{RequirePositive: true, IncludeCompanyTerms: []string{"acme"}},
			FinalLimit: 10,
			Expected:   []string{"y", "x"},
		},
		{
			Name:      "empty dedup key is never emitted",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "", "metadata": {"company": "Acme"}},
				{"id": "", "metadata": {"contactId": ""}},
				{"id": "1"}
			]`,
			Profile:    types.Profile{RequirePositive: true, IncludeCompanyTerms: []string{"acme"}},
			FinalLimit: 10,
			Expected:   []string{"1"},
		},
		{
			Name:       "zero limit",
			Operation:  rank.OpClassifyAndMerge,
			Matches:    tieredMatches,
			Profile:    tieredProfile,
			FinalLimit: 0,
			Expected:   []string{},
		},
		{
			Name:       "zero limit without requirePositive",
			Operation:  rank.OpClassifyAndMerge,
			Matches:    `[{"id": "1"}]`,
			FinalLimit: 0,
			Expected:   []string{},
		},
		{
			Name:      "empty term lists keep input order",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "b", "metadata": {"company": "Acme"}},
				{"id": "a", "metadata": null},
				{"id": "c"}
			]`,
			Profile:    types.Profile{RequirePositive: true, IncludeCompanyTerms: []string{"  ", ""}},
			FinalLimit: 10,
			Expected:   []string{"b", "a", "c"},
		},
		{
			Name:      "headline and free text use company and title terms",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "rest", "metadata": {"website": "owner.com"}},
				{"id": "free-text", "metadata": {"metadata": "Shop OWNER since 1990"}},
				{"id": "headline", "metadata": {"headline": "VP at Acme"}},
				{"id": "title-only", "metadata": {"title": "Acme"}}
			]`,
			Profile: types.Profile{
				RequirePositive:     true,
				IncludeCompanyTerms: []string{"acme"},
				IncludeTitleTerms:   []string{"owner"},
			},
			FinalLimit: 10,
			Expected:   []string{"free-text", "headline", "rest", "title-only"},
		},
		{
			Name:      "aux only when not positive",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "aux", "metadata": {"title": "Store Manager"}},
				{"id": "both", "metadata": {"company": "Acme", "title": "Manager"}}
			]`,
			Profile: types.Profile{
				RequirePositive:     true,
				IncludeCompanyTerms: []string{"acme"},
				AuxTitleTerms:       []string{"manager"},
			},
			FinalLimit: 1,
			Expected:   []string{"both"},
		},
		{
			Name:      "loosely typed metadata",
			Operation: rank.OpClassifyAndMerge,
			Matches: `[
				{"id": "bool", "metadata": {"metadata": true}},
				{"id": "number", "metadata": {"company": 1999}},
				{"id": "array", "metadata": {"company": [null, "Acme", "Radio"]}},
				{"id": "later-entry", "metadata": {"company": ["Initech", "Acme"]}}
			]`,
			Profile: types.Profile{
				RequirePositive:     true,
				ExcludeTerms:        []string{"radio"},
				IncludeCompanyTerms: []string{"acme", "199", "true"},
			},
			FinalLimit: 10,
			Expected:   []string{"bool", "number", "array", "later-entry"},
		},
	}
}
