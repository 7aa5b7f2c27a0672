// Package metadata resolves named fields from a candidate's metadata bag.
package metadata

import "github.com/jonathan/match-ranker/internal/types"

// Metadata fields consulted by the filters and classifiers.
const (
	FieldCompany  = "company"
	FieldTitle    = "title"
	FieldHeadline = "headline"
	FieldWebsite  = "website"
	FieldIndustry = "companyIndustry"
	FieldFreeText = "metadata"
	FieldContact  = types.ContactIDField
)

// Extract resolves key from m to a single string.
// ok is false when the bag is nil, the key is missing, the value is null,
// or an array value has no non-null entry.
func Extract(m types.Metadata, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, found := m[key]
	if !found {
		return "", false
	}
	return v.Resolve()
}
