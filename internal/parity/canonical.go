package parity

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/match-ranker/internal/types"
)

// Canonical encodes an engine result for comparison. Metadata keys are
// emitted sorted and metadata values exactly as received, so two results
// are equal iff their canonical bytes are. A nil result encodes as an empty list.
func Canonical(result []types.Candidate) (json.RawMessage, error) {
	if result == nil {
		result = []types.Candidate{}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return data, nil
}

// outcome is the canonical form of one engine call, including a failed one.
func outcome(result []types.Candidate, callErr error) (json.RawMessage, error) {
	if callErr != nil {
		data, err := json.Marshal(map[string]string{"error": callErr.Error()})
		if err != nil {
			return nil, fmt.Errorf("failed to encode call error: %w", err)
		}
		return data, nil
	}
	return Canonical(result)
}

// IDs returns the ids of a result, in order.
func IDs(result []types.Candidate) []string {
	ids := make([]string, 0, len(result))
	for _, c := range result {
		ids = append(ids, c.ID)
	}
	return ids
}
