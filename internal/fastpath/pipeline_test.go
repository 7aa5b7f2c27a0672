package fastpath

import (
	"testing"

	"github.com/jonathan/match-ranker/internal/types"
	"github.com/stretchr/testify/assert"
)

func candidate(id string, fields map[string]string) types.Candidate {
	m := types.Metadata{}
	for k, v := range fields {
		m[k] = types.ScalarValue(v)
	}
	return types.Candidate{ID: id, Metadata: m}
}

func ids(candidates []types.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.ID)
	}
	return out
}

func TestClassifyAndMerge_Tiers(t *testing.T) {
	profile := types.Profile{
		RequirePositive:     true,
		ExcludeTerms:        []string{"radio"},
		DemoteTerms:         []string{"intern"},
		IncludeCompanyTerms: []string{"acme"},
		AuxTitleTerms:       []string{"manager"},
	}
	matches := []types.Candidate{
		candidate("rest", map[string]string{"company": "Initech"}),
		candidate("aux", map[string]string{"title": "Store Manager"}),
		candidate("excluded", map[string]string{"company": "Acme Radio"}),
		candidate("demoted", map[string]string{"company": "Acme", "title": "Intern"}),
		candidate("positive", map[string]string{"headline": "ACME veteran"}),
	}

	got := ClassifyAndMerge(matches, profile, 10)
	assert.Equal(t, []string{"demoted", "positive", "aux", "rest"}, ids(got))

	bounded := ClassifyAndMerge(matches, profile, 3)
	assert.Equal(t, []string{"demoted", "positive", "aux"}, ids(bounded))
}

func TestClassifyAndMerge_WithoutRequirePositive(t *testing.T) {
	profile := types.Profile{ExcludeTerms: []string{"radio"}, IncludeCompanyTerms: []string{"acme"}}
	matches := []types.Candidate{
		candidate("1", map[string]string{"company": "Other", "contactId": "c1"}),
		candidate("2", map[string]string{"title": "radio host"}),
		candidate("3", map[string]string{"company": "Acme", "contactId": "c1"}),
		{ID: ""},
	}

	assert.Equal(t, []string{"1", "3", ""}, ids(ClassifyAndMerge(matches, profile, 5)))
	assert.Equal(t, []string{"1"}, ids(ClassifyAndMerge(matches, profile, 1)))
}

func TestClassifyAndMerge_FirstOccurrenceOwnsKey(t *testing.T) {
	profile := types.Profile{RequirePositive: true, IncludeCompanyTerms: []string{"acme"}}
	matches := []types.Candidate{
		candidate("first", map[string]string{"company": "Other", "contactId": "c1"}),
		candidate("second", map[string]string{"company": "Acme", "contactId": "c1"}),
	}

	assert.Equal(t, []string{"first"}, ids(ClassifyAndMerge(matches, profile, 5)))
}

func TestClassifyAndMerge_ZeroLimit(t *testing.T) {
	got := ClassifyAndMerge([]types.Candidate{{ID: "1"}}, types.Profile{}, 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCompilePrefixes(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "blank", input: []string{" ", ""}, expected: []string{}},
		{name: "longer prefix pruned", input: []string{"Wineries", " win "}, expected: []string{"win"}},
		{name: "duplicates pruned", input: []string{"tea", "TEA"}, expected: []string{"tea"}},
		{name: "unrelated kept shortest first", input: []string{"coffee", "tea"}, expected: []string{"tea", "coffee"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompilePrefixes(tt.input))
		})
	}
}

func TestFilterByTitlePrefix(t *testing.T) {
	title := func(s string) *types.MetadataValue {
		v := types.ScalarValue(s)
		return &v
	}
	items := []types.Candidate{
		{ID: "1", Title: title("  WINERIES California")},
		{ID: "2", Title: title("Coffee Shops Oregon")},
		{ID: "3", Title: title("Awesome Wineries (should NOT match)")},
		{ID: "4"},
	}

	assert.Equal(t, []string{"1"}, ids(FilterByTitlePrefix(items, []string{" wineries "}, false)))
	assert.Equal(t, []string{"1", "4"}, ids(FilterByTitlePrefix(items, []string{"wine", "wineries"}, true)))
	assert.Equal(t, items, FilterByTitlePrefix(items, []string{"  "}, false))
}

func BenchmarkClassifyAndMerge(b *testing.B) {
	profile := types.Profile{
		RequirePositive:     true,
		ExcludeTerms:        []string{"radio", "tv"},
		DemoteTerms:         []string{"intern"},
		IncludeCompanyTerms: []string{"acme", "globex", "initech"},
		IncludeTitleTerms:   []string{"owner", "founder"},
		AuxTitleTerms:       []string{"manager"},
	}
	matches := make([]types.Candidate, 0, 500)
	companies := []string{"Acme", "Umbrella", "Globex Radio", "Hooli"}
	titles := []string{"Owner", "Manager", "Intern", "Chef"}
	for i := 0; i < 500; i++ {
		matches = append(matches, candidate(string(rune('A'+i%26))+string(rune('a'+i/26)), map[string]string{
			"company": companies[i%len(companies)],
			"title":   titles[i%len(titles)],
		}))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ClassifyAndMerge(matches, profile, 50)
	}
}
