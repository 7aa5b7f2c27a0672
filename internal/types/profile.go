package types

import "github.com/go-playground/validator/v10"

// Profile is the externally persisted rule set applied to a batch of matches.
// Term lists are normalized by the engine; callers pass them as authored.
type Profile struct {
	Active          bool `json:"active"`
	RequirePositive bool `json:"requirePositive"`

	ExcludeTerms []string `json:"excludeTerms,omitempty"`
	DemoteTerms  []string `json:"demoteTerms,omitempty"`

	IncludeCompanyTerms  []string `json:"includeCompanyTerms,omitempty"`
	IncludeTitleTerms    []string `json:"includeTitleTerms,omitempty"`
	IncludeWebsiteTerms  []string `json:"includeWebsiteTerms,omitempty"`
	IncludeIndustryTerms []string `json:"includeIndustryTerms,omitempty"`

	AuxCompanyTerms  []string `json:"auxCompanyTerms,omitempty"`
	AuxTitleTerms    []string `json:"auxTitleTerms,omitempty"`
	AuxWebsiteTerms  []string `json:"auxWebsiteTerms,omitempty"`
	AuxIndustryTerms []string `json:"auxIndustryTerms,omitempty"`
}

// RankRequest is the envelope accepted by the rank command.
type RankRequest struct {
	Matches    []Candidate `json:"matches" validate:"dive"`
	Profile    Profile     `json:"profile"`
	FinalLimit int         `json:"finalLimit" validate:"gte=0"`
}

// FilterRequest is the envelope accepted by the filter-titles command.
type FilterRequest struct {
	Items          []Candidate `json:"items" validate:"dive"`
	Prefixes       []string    `json:"prefixes"`
	KeepNullTitles bool        `json:"keepNullTitles"`
}

// Validate validates the RankRequest using the validator.
func (r *RankRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the FilterRequest using the validator.
func (r *FilterRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
