// Package types provides type definitions for the data contracts consumed and produced by the ranking engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MetadataKind identifies which case of the MetadataValue union is populated.
type MetadataKind int

const (
	// MetadataNull is an explicit JSON null (or the zero value).
	MetadataNull MetadataKind = iota
	// MetadataScalar is a string, number, bool or object, stored stringified.
	MetadataScalar
	// MetadataArray is an ordered list of nullable scalars.
	MetadataArray
)

// MetadataValue is a loosely-typed metadata field as delivered by the retrieval layer.
// Values are stringified once on decode; the original JSON is kept so that
// re-encoding a candidate emits exactly what was received.
type MetadataValue struct {
	kind   MetadataKind
	scalar string
	items  []*string
	raw    json.RawMessage
}

// NullValue returns a Null metadata value.
func NullValue() MetadataValue {
	return MetadataValue{kind: MetadataNull}
}

// ScalarValue returns a Scalar metadata value holding s.
func ScalarValue(s string) MetadataValue {
	return MetadataValue{kind: MetadataScalar, scalar: s}
}

// ArrayValue returns an Array metadata value. Nil entries are null elements.
func ArrayValue(items ...*string) MetadataValue {
	copied := make([]*string, len(items))
	copy(copied, items)
	return MetadataValue{kind: MetadataArray, items: copied}
}

// StringPtr returns a pointer to s, for building ArrayValue elements.
func StringPtr(s string) *string {
	return &s
}

// Kind reports which union case v holds.
func (v MetadataValue) Kind() MetadataKind {
	return v.kind
}

// Resolve returns the single string a value stands for.
// Scalars resolve to themselves, arrays to their first non-null element.
// Null values and arrays without a non-null element are absent.
func (v MetadataValue) Resolve() (string, bool) {
	switch v.kind {
	case MetadataScalar:
		return v.scalar, true
	case MetadataArray:
		for _, item := range v.items {
			if item != nil {
				return *item, true
			}
		}
	}
	return "", false
}

// UnmarshalJSON decodes any JSON value into the union.
func (v *MetadataValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	raw := make(json.RawMessage, len(trimmed))
	copy(raw, trimmed)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return fmt.Errorf("failed to decode metadata array: %w", err)
		}
		items := make([]*string, len(elements))
		for i, element := range elements {
			s, ok, err := stringifyJSON(element)
			if err != nil {
				return err
			}
			if ok {
				items[i] = &s
			}
		}
		*v = MetadataValue{kind: MetadataArray, items: items, raw: raw}
		return nil
	}

	s, ok, err := stringifyJSON(trimmed)
	if err != nil {
		return err
	}
	if !ok {
		*v = MetadataValue{kind: MetadataNull, raw: raw}
		return nil
	}
	*v = MetadataValue{kind: MetadataScalar, scalar: s, raw: raw}
	return nil
}

// MarshalJSON re-emits the received JSON verbatim, or encodes a constructed value.
func (v MetadataValue) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return v.raw, nil
	}
	switch v.kind {
	case MetadataScalar:
		return json.Marshal(v.scalar)
	case MetadataArray:
		return json.Marshal(v.items)
	default:
		return []byte("null"), nil
	}
}

// stringifyJSON converts one JSON value to its string form. ok is false for null.
func stringifyJSON(data json.RawMessage) (string, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", false, fmt.Errorf("empty metadata value")
	}

	switch trimmed[0] {
	case 'n':
		return "", false, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, fmt.Errorf("failed to decode metadata string: %w", err)
		}
		return s, true, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return "", false, fmt.Errorf("failed to decode metadata bool: %w", err)
		}
		return strconv.FormatBool(b), true, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", false, fmt.Errorf("failed to compact metadata value: %w", err)
		}
		return buf.String(), true, nil
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return "", false, fmt.Errorf("failed to decode metadata number: %w", err)
		}
		return FormatNumber(f), true, nil
	}
}

// FormatNumber renders a JSON number the way metadata numbers are stringified:
// shortest round-trip form, without an exponent for magnitudes in [1e-6, 1e21)
// and with an unpadded exponent ("1e-7", "1.5e+22") outside that range.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if math.Abs(f) < 1e21 && math.Abs(f) >= 1e-6 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exponent, ok := strings.Cut(s, "e")
	if !ok || len(exponent) < 2 {
		return s
	}
	digits := strings.TrimLeft(exponent[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + exponent[:1] + digits
}
