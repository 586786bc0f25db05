// Package spreadsheet converts between template schemas with their payloads
// and xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of every workbook this package writes.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// plainDecimal matches numbers that can be written verbatim as numeric cells.
var plainDecimal = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Warning is a non-fatal decode finding. Missing lists field labels that
// were expected on the sheet but not found among its headers.
type Warning struct {
	Sheet   string   `json:"sheet"`
	Message string   `json:"message"`
	Missing []string `json:"missing_fields,omitempty"`
}

func (w Warning) String() string {
	if len(w.Missing) == 0 {
		return fmt.Sprintf("%s: %s", w.Sheet, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Sheet, w.Message, strings.Join(w.Missing, ", "))
}

// Encode renders p as a workbook with one worksheet per sheet of s, in the
// schema's order. Flat payloads get a single data row; row payloads get a
// leading sequence column and one line per row.
func Encode(s *schema.TemplateSchema, p schema.Payload) ([]byte, error) {
	return render(s, func(sheet string) ([]schema.Row, bool) {
		if p.IsFlat() {
			return []schema.Row{p.Flat}, false
		}
		return p.Sheets[sheet], true
	})
}

// EncodeBlank renders an input template: headers plus empty, pre-numbered
// rows for row layouts, or headers plus one empty row for flat layouts.
func EncodeBlank(s *schema.TemplateSchema) ([]byte, error) {
	return render(s, func(string) ([]schema.Row, bool) {
		if s.Layout == schema.LayoutFlat {
			return []schema.Row{{}}, false
		}
		return make([]schema.Row, constants.BlankTemplateRows), true
	})
}

type rowSource func(sheet string) (rows []schema.Row, numbered bool)

func render(s *schema.TemplateSchema, source rowSource) ([]byte, error) {
	if len(s.Sheets) == 0 {
		return nil, &schema.SchemaError{Reason: "template has no sheets"}
	}

	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	written := make(map[string]struct{}, len(s.Sheets))
	for i, sh := range s.Sheets {
		fields, err := s.SheetFields(sh.Name)
		if err != nil {
			return nil, err
		}
		// Worksheet names are case-insensitive; a second "data" would
		// silently reuse the "Data" worksheet.
		key := strings.ToLower(sh.Name)
		if _, dup := written[key]; dup {
			return nil, &schema.SchemaError{Sheet: sh.Name, Reason: "sheet name clashes with another sheet"}
		}
		written[key] = struct{}{}
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sh.Name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %q: %w", sh.Name, err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", sh.Name, err)
		}

		rows, numbered := source(sh.Name)
		if err := writeSheet(f, st, sh.Name, fields, rows, numbered); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, st *styles, sheet string, fields []schema.Field, rows []schema.Row, numbered bool) error {
	headers := make([]string, 0, len(fields)+1)
	if numbered {
		headers = append(headers, constants.SequenceHeader)
	}
	for _, fd := range fields {
		headers = append(headers, fd.Label)
	}
	if len(headers) == 0 {
		return nil
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %q: %w", h, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(h)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}

	offset := 1
	if !numbered {
		offset = 0
	}
	for r, row := range rows {
		line := r + 2
		if numbered {
			cell, _ := excelize.CoordinatesToCellName(1, line)
			if err := f.SetCellValue(sheet, cell, r+1); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, st.text); err != nil {
				return err
			}
		}
		for c, fd := range fields {
			cell, _ := excelize.CoordinatesToCellName(c+1+offset, line)
			if err := writeValue(f, st, sheet, cell, fd, row[fd.ID]); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func writeValue(f *excelize.File, st *styles, sheet, cell string, fd schema.Field, value string) error {
	style := st.text
	switch fd.Type {
	case schema.FieldNumber:
		style = st.number
	case schema.FieldDate:
		style = st.date
	}
	if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
		return err
	}

	switch {
	case value == "":
		return nil
	case fd.Type == schema.FieldNumber && plainDecimal.MatchString(value):
		return f.SetCellDefault(sheet, cell, value)
	default:
		return f.SetCellStr(sheet, cell, value)
	}
}

// Decode reads a workbook back into a payload shaped by s. Problems with the
// document's layout are reported as warnings, never as errors: a missing
// sheet or header only means less data. The error return is reserved for
// input that is not a workbook at all.
func Decode(r io.Reader, s *schema.TemplateSchema) (p schema.Payload, warnings []Warning, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, warnings = schema.Payload{}, nil
			err = &schema.ValidationError{Reason: fmt.Sprintf("spreadsheet could not be read: %v", rec)}
		}
	}()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return schema.Payload{}, nil, &schema.ValidationError{Reason: "file is not a readable spreadsheet"}
	}
	defer f.Close()

	flat := s.Layout == schema.LayoutFlat
	values := map[string]string{}
	sheets := map[string][]schema.Row{}

	for _, sh := range s.Sheets {
		fields, err := s.SheetFields(sh.Name)
		if err != nil {
			return schema.Payload{}, nil, err
		}
		if idx, _ := f.GetSheetIndex(sh.Name); idx < 0 {
			warnings = append(warnings, Warning{Sheet: sh.Name, Message: "sheet not found in workbook"})
			continue
		}

		raw, err := f.GetRows(sh.Name, excelize.Options{RawCellValue: true})
		if err != nil {
			warnings = append(warnings, Warning{Sheet: sh.Name, Message: "sheet could not be read"})
			continue
		}
		formatted, err := f.GetRows(sh.Name)
		if err != nil {
			formatted = raw
		}

		columns, missing := mapColumns(raw, fields, !flat)
		if len(missing) > 0 {
			warnings = append(warnings, Warning{Sheet: sh.Name, Message: "columns not found", Missing: missing})
		}

		end := len(raw)
		if flat {
			end = min(end, 2)
		}
		rows := make([]schema.Row, 0)
		for i := 1; i < end; i++ {
			row := make(schema.Row, len(columns))
			blank := true
			for _, fd := range fields {
				col, ok := columns[fd.ID]
				if !ok {
					continue
				}
				source := raw
				if fd.Type == schema.FieldDate {
					source = formatted
				}
				v := cellAt(source, i, col)
				if strings.TrimSpace(v) != "" {
					blank = false
				}
				row[fd.ID] = v
			}
			if blank {
				continue
			}
			if flat {
				for id, v := range row {
					values[id] = v
				}
				continue
			}
			rows = append(rows, row)
		}
		if !flat {
			sheets[sh.Name] = rows
		}
	}

	if flat {
		return schema.NewFlatPayload(values), warnings, nil
	}
	return schema.NewRowsPayload(sheets), warnings, nil
}

// mapColumns locates each field's column by its header label. Unknown
// headers are ignored. In numbered sheets a leading sequence column is
// skipped, so a field labelled like it still maps to its own column.
func mapColumns(rows [][]string, fields []schema.Field, numbered bool) (map[string]int, []string) {
	byLabel := map[string]int{}
	if len(rows) > 0 {
		for col, h := range rows[0] {
			h = strings.TrimSpace(h)
			if numbered && col == 0 && strings.EqualFold(h, constants.SequenceHeader) {
				continue
			}
			if _, seen := byLabel[h]; h != "" && !seen {
				byLabel[h] = col
			}
		}
	}

	columns := make(map[string]int, len(fields))
	var missing []string
	for _, fd := range fields {
		col, ok := byLabel[strings.TrimSpace(fd.Label)]
		if !ok {
			missing = append(missing, fd.Label)
			continue
		}
		columns[fd.ID] = col
	}
	return columns, missing
}

func cellAt(rows [][]string, row, col int) string {
	if row >= len(rows) || col >= len(rows[row]) {
		return ""
	}
	return rows[row][col]
}
