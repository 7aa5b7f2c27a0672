package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_DedupKey(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected string
	}{
		{name: "contact id wins", json: `{"id":"m1","metadata":{"contactId":"c1"}}`, expected: "c1"},
		{name: "numeric contact id", json: `{"id":"m1","metadata":{"contactId":99}}`, expected: "99"},
		{name: "array contact id", json: `{"id":"m1","metadata":{"contactId":[null,"c2"]}}`, expected: "c2"},
		{name: "empty contact id falls back", json: `{"id":"m1","metadata":{"contactId":""}}`, expected: "m1"},
		{name: "null contact id falls back", json: `{"id":"m1","metadata":{"contactId":null}}`, expected: "m1"},
		{name: "no metadata", json: `{"id":"m1"}`, expected: "m1"},
		{name: "null metadata", json: `{"id":"m1","metadata":null}`, expected: "m1"},
		{name: "nothing usable", json: `{"id":""}`, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Candidate
			require.NoError(t, json.Unmarshal([]byte(tt.json), &c))
			assert.Equal(t, tt.expected, c.DedupKey())
		})
	}
}

func TestRankRequest_Validate(t *testing.T) {
	valid := RankRequest{FinalLimit: 0}
	assert.NoError(t, valid.Validate())

	invalid := RankRequest{FinalLimit: -1}
	assert.Error(t, invalid.Validate())
}

func TestProfile_JSONKeys(t *testing.T) {
	input := `{"active":true,"requirePositive":true,"excludeTerms":["radio"],"auxIndustryTerms":["wine"]}`

	var p Profile
	require.NoError(t, json.Unmarshal([]byte(input), &p))
	assert.True(t, p.Active)
	assert.True(t, p.RequirePositive)
	assert.Equal(t, []string{"radio"}, p.ExcludeTerms)
	assert.Equal(t, []string{"wine"}, p.AuxIndustryTerms)
}

func TestCandidate_RoundTripKeepsUnknownFieldsAndNulls(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "unknown members and explicit nulls",
			input:    `{"id":"1","name":"Napa Cellars","email":"a@b.c","title":null,"score":null,"metadata":{"company":"Napa"}}`,
			expected: `{"id":"1","score":null,"title":null,"metadata":{"company":"Napa"},"email":"a@b.c","name":"Napa Cellars"}`,
		},
		{
			name:     "nested unknown member",
			input:    `{"id":"2","links":{"site":["a","b"]},"score":0.25}`,
			expected: `{"id":"2","score":0.25,"links":{"site":["a","b"]}}`,
		},
		{
			name:     "null id and metadata",
			input:    `{"id":null,"metadata":null}`,
			expected: `{"id":null,"metadata":null}`,
		},
		{
			name:     "missing id",
			input:    `{"title":"Owner"}`,
			expected: `{"id":"","title":"Owner"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Candidate
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))

			data, err := json.Marshal(c)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
			if tt.name != "missing id" {
				assert.JSONEq(t, tt.input, string(data))
			}
		})
	}
}

func TestCandidate_NullTitleIsAbsent(t *testing.T) {
	var c Candidate
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","title":null,"score":null}`), &c))

	assert.Nil(t, c.Title)
	assert.Nil(t, c.Score)
	assert.Equal(t, "1", c.DedupKey())
}

func TestCandidate_DecodeErrors(t *testing.T) {
	var c Candidate
	err := json.Unmarshal([]byte(`{"id":7}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `candidate field "id"`)

	assert.Error(t, json.Unmarshal([]byte(`["not","an","object"]`), &c))
}

func TestCandidate_NullElementIsZero(t *testing.T) {
	var list []Candidate
	require.NoError(t, json.Unmarshal([]byte(`[null,{"id":"a","x":1}]`), &list))

	require.Len(t, list, 2)
	assert.Equal(t, Candidate{}, list[0])
	assert.Equal(t, json.RawMessage(`1`), list[1].Extra["x"])
}
