package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every typed error below unwraps to one of these so callers can
// branch with errors.Is without knowing the concrete type.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrSchema           = errors.New("schema inconsistency")
	ErrType             = errors.New("value does not match field type")
	ErrDuplicateField   = errors.New("duplicate field id")
	ErrAlreadyFinalized = errors.New("assignment already finalized")
)

// ValidationError reports malformed or incomplete input together with the
// sheets and fields at fault.
type ValidationError struct {
	Reason string   `json:"reason"`
	Sheets []string `json:"sheets,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if len(e.Sheets) > 0 {
		fmt.Fprintf(&b, " (sheets: %s)", strings.Join(e.Sheets, ", "))
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (fields: %s)", strings.Join(e.Fields, ", "))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MissingField locates one required value that was not supplied. Sheet and Row
// are empty for flat payloads; Row is 1-based within the submitted sheet.
type MissingField struct {
	Sheet   string `json:"sheet,omitempty"`
	Row     int    `json:"row,omitempty"`
	FieldID string `json:"field_id"`
}

// MissingFieldError lists every missing required value of a payload.
type MissingFieldError struct {
	Missing []MissingField `json:"missing"`
}

func (e *MissingFieldError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		if m.Sheet == "" {
			parts = append(parts, m.FieldID)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s row %d: %s", m.Sheet, m.Row, m.FieldID))
	}
	return "missing required fields: " + strings.Join(parts, "; ")
}

func (e *MissingFieldError) Unwrap() error { return ErrValidation }

// FieldIDs returns the distinct missing field ids in report order.
func (e *MissingFieldError) FieldIDs() []string {
	seen := make(map[string]struct{}, len(e.Missing))
	ids := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		if _, ok := seen[m.FieldID]; ok {
			continue
		}
		seen[m.FieldID] = struct{}{}
		ids = append(ids, m.FieldID)
	}
	return ids
}

// InvalidValue is a value that failed coercion to its field type.
type InvalidValue struct {
	Sheet    string    `json:"sheet,omitempty"`
	Row      int       `json:"row,omitempty"`
	FieldID  string    `json:"field_id"`
	Value    string    `json:"value"`
	Expected FieldType `json:"expected"`
}

// TypeError lists every value of a payload that failed type coercion.
type TypeError struct {
	Invalid []InvalidValue `json:"invalid"`
}

func (e *TypeError) Error() string {
	parts := make([]string, 0, len(e.Invalid))
	for _, v := range e.Invalid {
		ref := v.FieldID
		if v.Sheet != "" {
			ref = fmt.Sprintf("%s row %d: %s", v.Sheet, v.Row, v.FieldID)
		}
		parts = append(parts, fmt.Sprintf("%s=%q is not a %s", ref, v.Value, v.Expected))
	}
	return "invalid values: " + strings.Join(parts, "; ")
}

func (e *TypeError) Unwrap() error { return ErrType }

// SchemaError is an internal inconsistency of a stored schema, such as a sheet
// referencing a field that is not in the catalogue.
type SchemaError struct {
	Sheet   string
	FieldID string
	Reason  string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Sheet != "" && e.FieldID != "":
		return fmt.Sprintf("schema error: sheet %q references field %q: %s", e.Sheet, e.FieldID, e.Reason)
	case e.Sheet != "":
		return fmt.Sprintf("schema error: sheet %q: %s", e.Sheet, e.Reason)
	default:
		return "schema error: " + e.Reason
	}
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateFieldError is returned when an explicit field id is already taken.
type DuplicateFieldError struct {
	ID string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("field id %q already exists", e.ID)
}

func (e *DuplicateFieldError) Unwrap() error { return ErrDuplicateField }

// AlreadyFinalizedError is returned when single-submission mode rejects a
// resubmission.
type AlreadyFinalizedError struct {
	AssignmentID uint64
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("assignment %d is already completed", e.AssignmentID)
}

func (e *AlreadyFinalizedError) Unwrap() error { return ErrAlreadyFinalized }
