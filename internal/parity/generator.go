// Package parity drives differential tests between two engine bindings:
// hand-written fixtures plus seeded randomized trials, compared on their
// canonical serialization.
package parity

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/match-ranker/internal/types"
)

// vocabulary feeds both metadata text and profile terms so that terms hit often.
var vocabulary = []string{
	"acme", "radio", "winery", "wineries", "coffee", "intern", "owner",
	"manager", "founder", "tea", "wine", "café", "hospitality", "napa", ".com",
	"tv", "real estate", "a", "",
}

var metadataFields = []string{
	"company", "title", "headline", "website", "companyIndustry", "metadata", "contactId",
}

// Trial is one randomized input set for both operations.
type Trial struct {
	Seed       int64             `json:"seed"`
	Matches    []types.Candidate `json:"matches"`
	Profile    types.Profile     `json:"profile"`
	FinalLimit int               `json:"finalLimit"`
	Prefixes   []string          `json:"prefixes"`
	KeepNull   bool              `json:"keepNullTitles"`
}

// Generator produces deterministic trials from a seed.
type Generator struct {
	seed int64
	rng  *rand.Rand
	ids  []string
}

// NewGenerator returns a generator whose output depends only on seed.
func NewGenerator(seed int64) *Generator {
	g := &Generator{seed: seed, rng: rand.New(rand.NewSource(seed))}

	// A small id pool makes duplicate dedup keys common; "" makes empty keys possible.
	pool := 3 + g.rng.Intn(6)
	g.ids = append(g.ids, "")
	for i := 0; i < pool; i++ {
		id, err := uuid.NewRandomFromReader(g.rng)
		if err != nil {
			// rand.Rand reads never fail
			panic(fmt.Sprintf("failed to generate id: %v", err))
		}
		g.ids = append(g.ids, id.String())
	}
	return g
}

// Trial generates the next trial.
func (g *Generator) Trial() (Trial, error) {
	matches, err := g.matches(g.rng.Intn(25))
	if err != nil {
		return Trial{}, err
	}
	return Trial{
		Seed:       g.seed,
		Matches:    matches,
		Profile:    g.profile(),
		FinalLimit: g.limit(),
		Prefixes:   g.termList(4),
		KeepNull:   g.rng.Intn(2) == 0,
	}, nil
}

func (g *Generator) limit() int {
	switch g.rng.Intn(6) {
	case 0:
		return 0
	case 1:
		return 1
	default:
		return g.rng.Intn(30)
	}
}

func (g *Generator) profile() types.Profile {
	return types.Profile{
		Active:               g.rng.Intn(2) == 0,
		RequirePositive:      g.rng.Intn(3) != 0,
		ExcludeTerms:         g.termList(2),
		DemoteTerms:          g.termList(2),
		IncludeCompanyTerms:  g.termList(3),
		IncludeTitleTerms:    g.termList(3),
		IncludeWebsiteTerms:  g.termList(2),
		IncludeIndustryTerms: g.termList(2),
		AuxCompanyTerms:      g.termList(3),
		AuxTitleTerms:        g.termList(3),
		AuxWebsiteTerms:      g.termList(2),
		AuxIndustryTerms:     g.termList(2),
	}
}

// termList returns nil, an empty list, or up to maxLen authored-looking terms.
func (g *Generator) termList(maxLen int) []string {
	switch g.rng.Intn(5) {
	case 0:
		return nil
	case 1:
		return []string{}
	}
	n := 1 + g.rng.Intn(maxLen)
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, g.decorate(g.word()))
	}
	return list
}

func (g *Generator) word() string {
	return vocabulary[g.rng.Intn(len(vocabulary))]
}

// decorate applies random case and surrounding whitespace.
func (g *Generator) decorate(s string) string {
	switch g.rng.Intn(4) {
	case 0:
		s = strings.ToUpper(s)
	case 1:
		if s != "" {
			s = strings.ToUpper(s[:1]) + s[1:]
		}
	}
	switch g.rng.Intn(4) {
	case 0:
		s = "  " + s
	case 1:
		s += " \t"
	}
	return s
}

func (g *Generator) text() string {
	n := 1 + g.rng.Intn(3)
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, g.decorate(g.word()))
	}
	return strings.Join(words, " ")
}

// scalar returns a JSON-compatible scalar: mostly text, sometimes a number or bool.
func (g *Generator) scalar() any {
	switch g.rng.Intn(8) {
	case 0:
		return g.rng.Intn(1000)
	case 1:
		return g.rng.Float64() * 100
	case 2:
		return g.rng.Intn(2) == 0
	default:
		return g.text()
	}
}

func (g *Generator) value(field string) any {
	if field == "contactId" && g.rng.Intn(2) == 0 {
		return g.ids[g.rng.Intn(len(g.ids))]
	}
	switch g.rng.Intn(7) {
	case 0:
		return nil
	case 1:
		n := g.rng.Intn(4)
		arr := make([]any, n)
		for i := range arr {
			if g.rng.Intn(2) == 0 {
				arr[i] = g.scalar()
			}
		}
		return arr
	default:
		return g.scalar()
	}
}

// matches builds candidates as JSON and decodes them, so every metadata value
// goes through the same decoding a real request does.
func (g *Generator) matches(n int) ([]types.Candidate, error) {
	raw := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		c := map[string]any{"id": g.ids[g.rng.Intn(len(g.ids))]}
		if g.rng.Intn(4) == 0 {
			c["score"] = g.rng.Float64()
		}
		if g.rng.Intn(4) == 0 {
			c["title"] = g.value("title")
		}
		if g.rng.Intn(5) == 0 {
			c["name"] = g.text()
		}
		switch g.rng.Intn(8) {
		case 0:
			// no metadata key
		case 1:
			c["metadata"] = nil
		default:
			m := make(map[string]any)
			for _, field := range metadataFields {
				if g.rng.Intn(3) != 0 {
					m[field] = g.value(field)
				}
			}
			c["metadata"] = m
		}
		raw = append(raw, c)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generated matches: %w", err)
	}
	var matches []types.Candidate
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode generated matches: %w", err)
	}
	return matches, nil
}
