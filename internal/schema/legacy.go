package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reportdesk/report-portal/internal/constants"
)

// FromRecord rebuilds a schema from its persisted columns. fieldsJSON is the
// field catalogue; sheetsJSON the sheet structure, where empty means the
// template predates sheet configuration and uses the flat layout.
//
// Both columns also accept the shapes written by earlier revisions:
// fields as a list of plain labels, and sheets as an object keyed by sheet
// name whose entries embed full field records. Key order is preserved.
// The result is not checked; callers run Check before relying on it.
func FromRecord(fieldsJSON, sheetsJSON, retiredJSON []byte) (*TemplateSchema, error) {
	fields, err := ParseFields(fieldsJSON)
	if err != nil {
		return nil, err
	}
	s := &TemplateSchema{Fields: fields}

	if len(bytes.TrimSpace(retiredJSON)) > 0 && !isJSONNull(retiredJSON) {
		if err := json.Unmarshal(retiredJSON, &s.Retired); err != nil {
			return nil, fmt.Errorf("retired field ids: %w", err)
		}
	}

	if len(bytes.TrimSpace(sheetsJSON)) == 0 || isJSONNull(sheetsJSON) {
		ids := make([]string, len(fields))
		for i, f := range fields {
			ids[i] = f.ID
		}
		s.Layout = LayoutFlat
		s.Sheets = []SheetSpec{{Name: constants.DefaultSheetName, FieldIDs: ids}}
		return s, nil
	}

	sheets, err := ParseSheets(sheetsJSON, fields)
	if err != nil {
		return nil, err
	}
	s.Layout = LayoutRows
	s.Sheets = sheets
	return s, nil
}

// MarshalFields serializes the field catalogue.
func (s *TemplateSchema) MarshalFields() ([]byte, error) {
	if s.Fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Fields)
}

// MarshalSheets serializes the sheet structure. Flat layouts have none.
func (s *TemplateSchema) MarshalSheets() ([]byte, error) {
	if s.Layout == LayoutFlat {
		return nil, nil
	}
	return json.Marshal(s.Sheets)
}

// MarshalRetired serializes retired field ids.
func (s *TemplateSchema) MarshalRetired() ([]byte, error) {
	if s.Retired == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Retired)
}

type legacyField struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// ParseFields decodes a field catalogue. Elements may be field records or
// bare labels; a bare label becomes a text field whose id is the label.
func ParseFields(data []byte) ([]Field, error) {
	if len(bytes.TrimSpace(data)) == 0 || isJSONNull(data) {
		return []Field{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fields must be a JSON array: %w", err)
	}

	fields := make([]Field, 0, len(raw))
	for i, msg := range raw {
		f, err := parseField(msg)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+1, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseField(msg json.RawMessage) (Field, error) {
	var label string
	if err := json.Unmarshal(msg, &label); err == nil {
		label = strings.TrimSpace(label)
		return Field{ID: label, Label: label, Type: FieldText}, nil
	}

	var lf legacyField
	if err := json.Unmarshal(msg, &lf); err != nil {
		return Field{}, err
	}
	typ, err := ParseFieldType(lf.Type)
	if err != nil {
		typ = FieldText
	}
	id := strings.TrimSpace(lf.ID)
	if id == "" {
		id = strings.TrimSpace(lf.Label)
	}
	label = strings.TrimSpace(lf.Label)
	if label == "" {
		label = id
	}
	return Field{ID: id, Label: label, Type: typ}, nil
}

// ParseSheets decodes a sheet structure in either the array form
// [{"name": ..., "field_ids": [...]}] or the ordered object form
// {"Sheet": {"fields": [...]}} / {"Sheet": [...]}.
func ParseSheets(data []byte, fields []Field) ([]SheetSpec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var sheets []SheetSpec
		if err := json.Unmarshal(trimmed, &sheets); err != nil {
			return nil, fmt.Errorf("sheet structure: %w", err)
		}
		for i := range sheets {
			if sheets[i].FieldIDs == nil {
				sheets[i].FieldIDs = []string{}
			}
		}
		return sheets, nil
	}
	return parseLegacySheets(trimmed, fields)
}

// parseLegacySheets walks the object token by token so the sheet order of the
// stored document survives.
func parseLegacySheets(data []byte, fields []Field) ([]SheetSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("sheet structure: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("sheet structure must be an array or an object")
	}

	byLabel := make(map[string]string, len(fields))
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		byLabel[f.Label] = f.ID
		known[f.ID] = struct{}{}
	}
	resolve := func(ref string) string {
		if _, ok := known[ref]; ok {
			return ref
		}
		if id, ok := byLabel[ref]; ok {
			return id
		}
		return ref
	}

	var sheets []SheetSpec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("sheet structure: %w", err)
		}
		name, _ := keyTok.(string)

		var body json.RawMessage
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}

		var entries []json.RawMessage
		var wrapped struct {
			Fields []json.RawMessage `json:"fields"`
		}
		if err := json.Unmarshal(body, &wrapped); err == nil {
			entries = wrapped.Fields
		} else if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("sheet %q: unsupported structure", name)
		}

		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			f, err := parseField(e)
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", name, err)
			}
			ids = append(ids, resolve(f.ID))
		}
		sheets = append(sheets, SheetSpec{Name: name, FieldIDs: ids})
	}
	return sheets, nil
}

func isJSONNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}
