package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/reportdesk/report-portal/internal/constants"
)

// Row is one row record: field id to string-serialized value.
type Row map[string]string

// Payload is the data of one submission. Exactly one of Flat and Sheets is
// used: Flat for the legacy single-row layout, Sheets for row-based layouts.
// Every value is kept as text so persistence stays format-agnostic.
type Payload struct {
	Flat   map[string]string
	Sheets map[string][]Row
}

// NewFlatPayload wraps a legacy field id to value mapping.
func NewFlatPayload(values map[string]string) Payload {
	if values == nil {
		values = map[string]string{}
	}
	return Payload{Flat: values}
}

// NewRowsPayload wraps a sheet name to rows mapping.
func NewRowsPayload(sheets map[string][]Row) Payload {
	if sheets == nil {
		sheets = map[string][]Row{}
	}
	return Payload{Sheets: sheets}
}

// IsFlat reports whether p uses the legacy single-row shape.
func (p Payload) IsFlat() bool {
	return p.Sheets == nil
}

// FieldIDs returns every field id referenced by the payload, sorted.
func (p Payload) FieldIDs() []string {
	seen := map[string]struct{}{}
	for id := range p.Flat {
		seen[id] = struct{}{}
	}
	for _, rows := range p.Sheets {
		for _, row := range rows {
			for id := range row {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Unrecognized returns payload field ids the schema no longer declares, such
// as values captured before a field was removed. They are kept in storage but
// ignored when rendering.
func Unrecognized(s *TemplateSchema, p Payload) []string {
	var out []string
	for _, id := range p.FieldIDs() {
		if IsSequenceKey(id) {
			continue
		}
		if _, ok := s.Field(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

// MarshalJSON writes flat payloads as {"id": "value"} and row payloads as
// {"sheet": [{"id": "value"}, ...]}.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsFlat() {
		if p.Flat == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(p.Flat)
	}
	return json.Marshal(p.Sheets)
}

// UnmarshalJSON accepts both shapes. Scalar values of any JSON type are
// stringified; mixing scalars and row arrays at the top level is rejected.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}

	flat := map[string]string{}
	sheets := map[string][]Row{}
	for key, msg := range raw {
		trimmed := bytes.TrimSpace(msg)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var rows []map[string]any
			rdec := json.NewDecoder(bytes.NewReader(trimmed))
			rdec.UseNumber()
			if err := rdec.Decode(&rows); err != nil {
				return fmt.Errorf("sheet %q: rows must be objects: %w", key, err)
			}
			converted := make([]Row, len(rows))
			for i, r := range rows {
				row := make(Row, len(r))
				for id, v := range r {
					row[id] = Stringify(v)
				}
				converted[i] = row
			}
			sheets[key] = converted
			continue
		}
		var v any
		vdec := json.NewDecoder(bytes.NewReader(trimmed))
		vdec.UseNumber()
		if err := vdec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if _, isObject := v.(map[string]any); isObject {
			return fmt.Errorf("field %q: nested objects are not supported", key)
		}
		flat[key] = Stringify(v)
	}

	switch {
	case len(sheets) > 0 && len(flat) > 0:
		return fmt.Errorf("payload mixes flat values and sheet rows")
	case len(sheets) > 0:
		*p = Payload{Sheets: sheets}
	default:
		*p = Payload{Flat: flat}
	}
	return nil
}

// Stringify renders a decoded cell or JSON value as text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// IsSequenceKey reports whether a row key is the auto-numbering column some
// row editors send along with the data.
func IsSequenceKey(key string) bool {
	return strings.EqualFold(strings.TrimSpace(key), constants.SequenceHeader)
}
