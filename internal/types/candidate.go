package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Metadata is the loosely-typed field bag attached to a retrieved record.
type Metadata map[string]MetadataValue

// Candidate is one retrieved record under consideration for a result page
type Candidate struct {
	ID    string   `json:"id"`
	Score *float64 `json:"score,omitempty"`
	// Title is the optional direct title, preferred over metadata.title by the title filter
	Title    *MetadataValue `json:"title,omitempty"`
	Metadata Metadata       `json:"metadata,omitempty"`

	// Extra holds every top-level member not captured above, verbatim.
	// A known member sent as an explicit null also lands here, so it is
	// re-emitted as null rather than dropped.
	Extra map[string]json.RawMessage `json:"-"`
}

// candidateFields lists the typed members in the order they are encoded.
var candidateFields = []string{"id", "score", "title", "metadata"}

// ContactIDField is the metadata field that overrides the candidate ID as dedup key.
const ContactIDField = "contactId"

// DedupKey returns the identity used to collapse duplicates: the resolved
// contactId when present and non-empty, otherwise the candidate ID.
// An empty key means the candidate cannot be emitted on the deduplicated path.
func (c Candidate) DedupKey() string {
	if c.Metadata != nil {
		if v, ok := c.Metadata[ContactIDField]; ok {
			if contactID, ok := v.Resolve(); ok && contactID != "" {
				return contactID
			}
		}
	}
	return c.ID
}

// UnmarshalJSON decodes the typed members and keeps the rest in Extra.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	decoded := Candidate{}
	for key, raw := range members {
		if isJSONNull(raw) {
			decoded.setExtra(key, raw)
			continue
		}

		var err error
		switch key {
		case "id":
			err = json.Unmarshal(raw, &decoded.ID)
		case "score":
			err = json.Unmarshal(raw, &decoded.Score)
		case "title":
			decoded.Title = &MetadataValue{}
			err = decoded.Title.UnmarshalJSON(raw)
		case "metadata":
			err = json.Unmarshal(raw, &decoded.Metadata)
		default:
			decoded.setExtra(key, raw)
		}
		if err != nil {
			return fmt.Errorf("failed to decode candidate field %q: %w", key, err)
		}
	}

	*c = decoded
	return nil
}

// MarshalJSON encodes the typed members first, then Extra in key order.
// An explicit null kept for a typed member is emitted in that member's slot.
func (c Candidate) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	write := func(key string, value any) error {
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return err
		}
		encodedValue, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode candidate field %q: %w", key, err)
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
		written++
		return nil
	}

	for _, key := range candidateFields {
		value, ok := c.typedField(key)
		if !ok {
			raw, kept := c.Extra[key]
			if !kept {
				continue
			}
			value = raw
		}
		if err := write(key, value); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(c.Extra))
	for key := range c.Extra {
		if !slices.Contains(candidateFields, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	for _, key := range keys {
		if err := write(key, c.Extra[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// typedField returns the value of a typed member, or false when it is unset.
// The id is always set unless an explicit null id was received.
func (c Candidate) typedField(key string) (any, bool) {
	switch key {
	case "id":
		if _, null := c.Extra["id"]; null && c.ID == "" {
			return nil, false
		}
		return c.ID, true
	case "score":
		return c.Score, c.Score != nil
	case "title":
		return c.Title, c.Title != nil
	case "metadata":
		return c.Metadata, c.Metadata != nil
	}
	return nil, false
}

func (c *Candidate) setExtra(key string, raw json.RawMessage) {
	if c.Extra == nil {
		c.Extra = make(map[string]json.RawMessage)
	}
	c.Extra[key] = append(json.RawMessage(nil), raw...)
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ClassifiedCandidate pairs a candidate with its request-scoped classification flags.
type ClassifiedCandidate struct {
	Candidate       Candidate `json:"candidate"`
	Positive        bool      `json:"positive"`
	Aux             bool      `json:"aux"`
	DemotedPositive bool      `json:"demoted_positive"`
}
