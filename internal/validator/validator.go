// Package validator gates submission payloads against a template schema.
package validator

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/reportdesk/report-portal/internal/schema"
)

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Validate checks p against s and returns the normalized payload that should
// be stored. Normalization drops the sequence column and blank rows and trims
// number values. Every missing and every mistyped value is reported, not just
// the first one; when both kinds occur the returned error joins them.
//
// Validate never mutates its arguments.
func Validate(s *schema.TemplateSchema, p schema.Payload) (schema.Payload, error) {
	if err := s.Check(); err != nil {
		return schema.Payload{}, err
	}
	if p.IsFlat() {
		return validateFlat(s, p.Flat)
	}
	return validateRows(s, p.Sheets)
}

// IsNumber reports whether v parses as a locale-invariant decimal number
// after trimming surrounding whitespace.
func IsNumber(v string) bool {
	return decimalPattern.MatchString(strings.TrimSpace(v))
}

// IsBlankRow reports whether every value of row is empty, ignoring the
// sequence column.
func IsBlankRow(row schema.Row) bool {
	for k, v := range row {
		if schema.IsSequenceKey(k) {
			continue
		}
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func validateFlat(s *schema.TemplateSchema, values map[string]string) (schema.Payload, error) {
	var unknown []string
	for id := range values {
		if schema.IsSequenceKey(id) {
			continue
		}
		if _, ok := s.Field(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return schema.Payload{}, &schema.ValidationError{Reason: "payload references fields this template does not declare", Fields: unknown}
	}

	var c collector
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := c.check("", 0, f, values)
		if ok {
			out[f.ID] = v
		}
	}
	if err := c.err(); err != nil {
		return schema.Payload{}, err
	}
	return schema.NewFlatPayload(out), nil
}

func validateRows(s *schema.TemplateSchema, sheets map[string][]schema.Row) (schema.Payload, error) {
	var undeclared []string
	for name := range sheets {
		if _, ok := s.Sheet(name); !ok {
			undeclared = append(undeclared, name)
		}
	}
	if len(undeclared) > 0 {
		slices.Sort(undeclared)
		return schema.Payload{}, &schema.ValidationError{Reason: "payload references sheets this template does not declare", Sheets: undeclared}
	}
	// A workbook without any of the template's sheets carries no data at all.
	if !slices.ContainsFunc(s.SheetNames(), func(name string) bool { _, ok := sheets[name]; return ok }) {
		return schema.Payload{}, &schema.ValidationError{Reason: "payload contains none of the template's sheets", Sheets: s.SheetNames()}
	}

	var c collector
	out := make(map[string][]schema.Row, len(sheets))
	// Walk in declared order so reports are stable.
	for _, name := range s.SheetNames() {
		rows, ok := sheets[name]
		if !ok {
			continue
		}
		fields, err := s.SheetFields(name)
		if err != nil {
			return schema.Payload{}, err
		}

		var unknown []string
		kept := make([]schema.Row, 0, len(rows))
		for i, row := range rows {
			if IsBlankRow(row) {
				continue
			}
			for id := range row {
				if schema.IsSequenceKey(id) || slices.ContainsFunc(fields, func(f schema.Field) bool { return f.ID == id }) {
					continue
				}
				if !slices.Contains(unknown, id) {
					unknown = append(unknown, id)
				}
			}
			clean := make(schema.Row, len(fields))
			for _, f := range fields {
				if v, ok := c.check(name, i+1, f, row); ok {
					clean[f.ID] = v
				}
			}
			kept = append(kept, clean)
		}
		if len(unknown) > 0 {
			slices.Sort(unknown)
			return schema.Payload{}, &schema.ValidationError{Reason: "rows reference fields this sheet does not declare", Sheets: []string{name}, Fields: unknown}
		}
		out[name] = kept
	}
	if err := c.err(); err != nil {
		return schema.Payload{}, err
	}
	return schema.NewRowsPayload(out), nil
}

// collector accumulates per-value failures across a whole payload.
type collector struct {
	missing []schema.MissingField
	invalid []schema.InvalidValue
}

func (c *collector) check(sheet string, row int, f schema.Field, values map[string]string) (string, bool) {
	raw, present := values[f.ID]
	trimmed := strings.TrimSpace(raw)
	if !present || trimmed == "" {
		c.missing = append(c.missing, schema.MissingField{Sheet: sheet, Row: row, FieldID: f.ID})
		return "", false
	}
	switch f.Type {
	case schema.FieldNumber:
		if !decimalPattern.MatchString(trimmed) {
			c.invalid = append(c.invalid, schema.InvalidValue{Sheet: sheet, Row: row, FieldID: f.ID, Value: raw, Expected: f.Type})
			return "", false
		}
		return trimmed, true
	default:
		// Text and date values are stored verbatim.
		return raw, true
	}
}

func (c *collector) err() error {
	var errs []error
	if len(c.missing) > 0 {
		errs = append(errs, &schema.MissingFieldError{Missing: c.missing})
	}
	if len(c.invalid) > 0 {
		errs = append(errs, &schema.TypeError{Invalid: c.invalid})
	}
	return errors.Join(errs...)
}
