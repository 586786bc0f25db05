package schema

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/reportdesk/report-portal/internal/constants"
)

// FieldType is the data type of a template field.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate:
		return true
	}
	return false
}

// ParseFieldType parses a type name. An empty name means text.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return FieldText, nil
	}
	if !t.Valid() {
		return "", &ValidationError{Reason: fmt.Sprintf("unsupported field type %q", s)}
	}
	return t, nil
}

// Field is one named, typed data point of a template.
type Field struct {
	ID    string    `json:"id" yaml:"id"`
	Label string    `json:"label" yaml:"label"`
	Type  FieldType `json:"type" yaml:"type"`
}

// SheetSpec is a named, ordered partition of a template's fields.
type SheetSpec struct {
	Name     string   `json:"name" yaml:"name"`
	FieldIDs []string `json:"field_ids" yaml:"field_ids"`
}

// Layout selects how payloads of a template are shaped.
type Layout string

const (
	// LayoutFlat is the legacy single-row layout: one value per field id.
	LayoutFlat Layout = "flat"
	// LayoutRows holds any number of row records per sheet.
	LayoutRows Layout = "rows"
)

// TemplateSchema owns a template's field catalogue and its ordered sheets.
// Values are copies loaded from the store; callers mutate them and write back.
type TemplateSchema struct {
	Fields []Field     `json:"fields" yaml:"fields"`
	Sheets []SheetSpec `json:"sheets" yaml:"sheets"`
	Layout Layout      `json:"layout" yaml:"layout"`
	// Retired holds ids of removed fields; they are never handed out again.
	Retired []string `json:"retired,omitempty" yaml:"retired,omitempty"`
}

// New builds the default schema for a freshly created template: one sheet
// holding every field in declaration order. Fields without an id get one.
func New(fields []Field) (*TemplateSchema, error) {
	s := &TemplateSchema{Layout: LayoutRows}
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		added, err := s.addField(f.ID, f.Label, f.Type)
		if err != nil {
			return nil, err
		}
		ids = append(ids, added.ID)
	}
	s.Sheets = []SheetSpec{{Name: constants.DefaultSheetName, FieldIDs: ids}}
	return s, nil
}

// Clone returns a deep copy.
func (s *TemplateSchema) Clone() *TemplateSchema {
	c := &TemplateSchema{
		Fields:  slices.Clone(s.Fields),
		Layout:  s.Layout,
		Retired: slices.Clone(s.Retired),
		Sheets:  make([]SheetSpec, len(s.Sheets)),
	}
	for i, sh := range s.Sheets {
		c.Sheets[i] = SheetSpec{Name: sh.Name, FieldIDs: slices.Clone(sh.FieldIDs)}
	}
	return c
}

// Field looks up a field by id.
func (s *TemplateSchema) Field(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Sheet looks up a sheet by name.
func (s *TemplateSchema) Sheet(name string) (SheetSpec, bool) {
	if i := s.sheetIndex(name); i >= 0 {
		return s.Sheets[i], true
	}
	return SheetSpec{}, false
}

// SheetNames returns sheet names in declared order.
func (s *TemplateSchema) SheetNames() []string {
	names := make([]string, len(s.Sheets))
	for i, sh := range s.Sheets {
		names[i] = sh.Name
	}
	return names
}

// SheetFields resolves a sheet's field ids against the catalogue.
func (s *TemplateSchema) SheetFields(name string) ([]Field, error) {
	i := s.sheetIndex(name)
	if i < 0 {
		return nil, &NotFoundError{Kind: "sheet", ID: name}
	}
	fields := make([]Field, 0, len(s.Sheets[i].FieldIDs))
	for _, id := range s.Sheets[i].FieldIDs {
		f, ok := s.Field(id)
		if !ok {
			return nil, &SchemaError{Sheet: name, FieldID: id, Reason: "field is not in the catalogue"}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// AddField appends a field with a freshly generated id to the first sheet.
func (s *TemplateSchema) AddField(label string, typ FieldType) (Field, error) {
	return s.AddFieldWithID("", label, typ)
}

// AddFieldWithID is AddField with a caller-chosen id. An id that is in use or
// was used by a removed field yields a DuplicateFieldError.
func (s *TemplateSchema) AddFieldWithID(id, label string, typ FieldType) (Field, error) {
	f, err := s.addField(id, label, typ)
	if err != nil {
		return Field{}, err
	}
	if len(s.Sheets) == 0 {
		s.Sheets = []SheetSpec{{Name: constants.DefaultSheetName}}
	}
	s.Sheets[0].FieldIDs = append(s.Sheets[0].FieldIDs, f.ID)
	return f, nil
}

func (s *TemplateSchema) addField(id, label string, typ FieldType) (Field, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Field{}, &ValidationError{Reason: "field label is required"}
	}
	if typ == "" {
		typ = FieldText
	}
	if !typ.Valid() {
		return Field{}, &ValidationError{Reason: fmt.Sprintf("unsupported field type %q", typ), Fields: []string{label}}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = s.newFieldID()
	} else if s.idTaken(id) {
		return Field{}, &DuplicateFieldError{ID: id}
	}
	f := Field{ID: id, Label: label, Type: typ}
	s.Fields = append(s.Fields, f)
	return f, nil
}

func (s *TemplateSchema) newFieldID() string {
	for {
		id := "f_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		if !s.idTaken(id) {
			return id
		}
	}
}

// IsRetired reports whether id belonged to a removed field.
func (s *TemplateSchema) IsRetired(id string) bool {
	return slices.Contains(s.Retired, id)
}

func (s *TemplateSchema) idTaken(id string) bool {
	if _, ok := s.Field(id); ok {
		return true
	}
	return slices.Contains(s.Retired, id)
}

// RemoveField deletes a field from the catalogue and from every sheet. Sheets
// left empty are kept.
func (s *TemplateSchema) RemoveField(id string) error {
	i := slices.IndexFunc(s.Fields, func(f Field) bool { return f.ID == id })
	if i < 0 {
		return &NotFoundError{Kind: "field", ID: id}
	}
	s.Fields = slices.Delete(s.Fields, i, i+1)
	for j := range s.Sheets {
		s.Sheets[j].FieldIDs = slices.DeleteFunc(s.Sheets[j].FieldIDs, func(fid string) bool { return fid == id })
	}
	s.Retired = append(s.Retired, id)
	return nil
}

// RelabelField changes a field's display label.
func (s *TemplateSchema) RelabelField(id, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return &ValidationError{Reason: "field label is required", Fields: []string{id}}
	}
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			s.Fields[i].Label = label
			return nil
		}
	}
	return &NotFoundError{Kind: "field", ID: id}
}

// SetFieldType changes a field's data type.
func (s *TemplateSchema) SetFieldType(id string, typ FieldType) error {
	if !typ.Valid() {
		return &ValidationError{Reason: fmt.Sprintf("unsupported field type %q", typ), Fields: []string{id}}
	}
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			s.Fields[i].Type = typ
			return nil
		}
	}
	return &NotFoundError{Kind: "field", ID: id}
}

// AssignFieldsToSheet replaces the ordered field list of a sheet. The schema
// is left untouched when the result would leave any field without a sheet.
func (s *TemplateSchema) AssignFieldsToSheet(name string, fieldIDs []string) error {
	i := s.sheetIndex(name)
	if i < 0 {
		return &NotFoundError{Kind: "sheet", ID: name}
	}

	var unknown, dup []string
	seen := make(map[string]struct{}, len(fieldIDs))
	for _, id := range fieldIDs {
		if _, ok := s.Field(id); !ok {
			unknown = append(unknown, id)
			continue
		}
		if _, ok := seen[id]; ok {
			dup = append(dup, id)
		}
		seen[id] = struct{}{}
	}
	if len(unknown) > 0 {
		return &ValidationError{Reason: "fields do not belong to this template", Sheets: []string{name}, Fields: unknown}
	}
	if len(dup) > 0 {
		return &ValidationError{Reason: "fields listed more than once", Sheets: []string{name}, Fields: dup}
	}

	previous := s.Sheets[i].FieldIDs
	s.Sheets[i].FieldIDs = slices.Clone(fieldIDs)
	if orphans := s.orphans(); len(orphans) > 0 {
		s.Sheets[i].FieldIDs = previous
		return &ValidationError{Reason: "fields would not belong to any sheet", Sheets: []string{name}, Fields: orphans}
	}
	return nil
}

// AddSheet appends a sheet holding every field in catalogue order.
func (s *TemplateSchema) AddSheet(name string) error {
	name = strings.TrimSpace(name)
	if err := validSheetName(name); err != nil {
		return err
	}
	if s.sheetNameTaken(name, -1) {
		return &ValidationError{Reason: "sheet name already exists", Sheets: []string{name}}
	}
	ids := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		ids[i] = f.ID
	}
	s.Sheets = append(s.Sheets, SheetSpec{Name: name, FieldIDs: ids})
	return nil
}

// RemoveSheet deletes a sheet unless it is the last one or its removal would
// orphan a field.
func (s *TemplateSchema) RemoveSheet(name string) error {
	i := s.sheetIndex(name)
	if i < 0 {
		return &NotFoundError{Kind: "sheet", ID: name}
	}
	if len(s.Sheets) == 1 {
		return &ValidationError{Reason: "a template needs at least one sheet", Sheets: []string{name}}
	}
	removed := s.Sheets[i]
	s.Sheets = slices.Delete(s.Sheets, i, i+1)
	if orphans := s.orphans(); len(orphans) > 0 {
		s.Sheets = slices.Insert(s.Sheets, i, removed)
		return &ValidationError{Reason: "fields would not belong to any sheet", Sheets: []string{name}, Fields: orphans}
	}
	return nil
}

// RenameSheet renames a sheet in place, keeping its position.
func (s *TemplateSchema) RenameSheet(oldName, newName string) error {
	i := s.sheetIndex(oldName)
	if i < 0 {
		return &NotFoundError{Kind: "sheet", ID: oldName}
	}
	newName = strings.TrimSpace(newName)
	if newName == oldName {
		return nil
	}
	if err := validSheetName(newName); err != nil {
		return err
	}
	if s.sheetNameTaken(newName, i) {
		return &ValidationError{Reason: "sheet name already exists", Sheets: []string{newName}}
	}
	s.Sheets[i].Name = newName
	return nil
}

// Check verifies the schema's configuration: unique field ids, valid types,
// sheet names unique regardless of case, no dangling references, no orphan fields and no
// ambiguous header labels within a sheet.
func (s *TemplateSchema) Check() error {
	if len(s.Sheets) == 0 {
		return &SchemaError{Reason: "template has no sheets"}
	}

	ids := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.ID == "" {
			return &SchemaError{Reason: fmt.Sprintf("field %q has no id", f.Label)}
		}
		if _, ok := ids[f.ID]; ok {
			return &SchemaError{FieldID: f.ID, Reason: "field id is declared twice"}
		}
		if !f.Type.Valid() {
			return &SchemaError{FieldID: f.ID, Reason: fmt.Sprintf("unsupported field type %q", f.Type)}
		}
		ids[f.ID] = struct{}{}
	}

	names := make(map[string]struct{}, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh.Name == "" {
			return &SchemaError{Reason: "sheet without a name"}
		}
		key := strings.ToLower(sh.Name)
		if _, ok := names[key]; ok {
			return &SchemaError{Sheet: sh.Name, Reason: "sheet name is declared twice"}
		}
		names[key] = struct{}{}

		labels := make(map[string]string, len(sh.FieldIDs))
		var ambiguous []string
		for _, id := range sh.FieldIDs {
			f, ok := s.Field(id)
			if !ok {
				return &SchemaError{Sheet: sh.Name, FieldID: id, Reason: "field is not in the catalogue"}
			}
			if other, ok := labels[f.Label]; ok && other != id {
				ambiguous = append(ambiguous, id)
			}
			labels[f.Label] = id
		}
		if len(ambiguous) > 0 {
			return &ValidationError{Reason: "field labels must be unique within a sheet", Sheets: []string{sh.Name}, Fields: ambiguous}
		}
	}

	if orphans := s.orphans(); len(orphans) > 0 {
		return &ValidationError{Reason: "fields do not belong to any sheet", Fields: orphans}
	}
	return nil
}

// orphans returns ids of catalogue fields that no sheet references.
func (s *TemplateSchema) orphans() []string {
	used := make(map[string]struct{})
	for _, sh := range s.Sheets {
		for _, id := range sh.FieldIDs {
			used[id] = struct{}{}
		}
	}
	var out []string
	for _, f := range s.Fields {
		if _, ok := used[f.ID]; !ok {
			out = append(out, f.ID)
		}
	}
	return out
}

func (s *TemplateSchema) sheetIndex(name string) int {
	return slices.IndexFunc(s.Sheets, func(sh SheetSpec) bool { return sh.Name == name })
}

// sheetNameTaken compares case-insensitively, as worksheet names do. The
// sheet at index except is skipped so a sheet can change its own case.
func (s *TemplateSchema) sheetNameTaken(name string, except int) bool {
	for i, sh := range s.Sheets {
		if i != except && strings.EqualFold(sh.Name, name) {
			return true
		}
	}
	return false
}

// validSheetName enforces the worksheet naming rules of the xlsx format.
func validSheetName(name string) error {
	if name == "" {
		return &ValidationError{Reason: "sheet name is required"}
	}
	if utf8.RuneCountInString(name) > constants.MaxSheetNameRunes {
		return &ValidationError{Reason: fmt.Sprintf("sheet name is longer than %d characters", constants.MaxSheetNameRunes), Sheets: []string{name}}
	}
	if strings.ContainsAny(name, `:\/?*[]`) || strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return &ValidationError{Reason: "sheet name contains characters a spreadsheet cannot store", Sheets: []string{name}}
	}
	return nil
}
