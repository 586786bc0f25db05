package spreadsheet

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// StatusSheetName is the worksheet of the status report workbook.
const StatusSheetName = "Report Status"

const statusHeaderRow = 4

// StatusRow is one assignment line of the status report.
type StatusRow struct {
	ID           uint64
	ReportName   string
	Organization string
	DueDate      time.Time
	Status       string
}

var statusFills = map[string]string{
	"completed": "C6EFCE",
	"pending":   "FFEB9C",
	"overdue":   "FFC7CE",
}

// EncodeStatusReport renders an overview of assignments: a title, the
// generation time, a filterable table and a hidden id column for lookups.
func EncodeStatusReport(rows []StatusRow, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := StatusSheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	centered, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0066B2"}},
		Border:    thinBorder(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	bordered, err := f.NewStyle(&excelize.Style{Border: thinBorder()})
	if err != nil {
		return nil, err
	}
	statusStyles := make(map[string]int, len(statusFills))
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Border: thinBorder(),
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, err
		}
		statusStyles[status] = id
	}

	if err := f.MergeCell(sheet, "A1", "E1"); err != nil {
		return nil, err
	}
	if err := f.SetCellStr(sheet, "A1", "Report Status"); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", title); err != nil {
		return nil, err
	}
	if err := f.MergeCell(sheet, "A2", "E2"); err != nil {
		return nil, err
	}
	if err := f.SetCellStr(sheet, "A2", "Generated on: "+generatedAt.Format(time.DateTime)); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A2", "A2", centered); err != nil {
		return nil, err
	}

	headers := []string{"Report Name", "Organization", "Due Date", "Status", "ID"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", statusHeaderRow), &headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", statusHeaderRow), fmt.Sprintf("E%d", statusHeaderRow), header); err != nil {
		return nil, err
	}

	for i, r := range rows {
		line := statusHeaderRow + 1 + i
		values := []any{r.ReportName, r.Organization, r.DueDate.Format(time.DateOnly), r.Status, r.ID}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", line), &values); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", line), fmt.Sprintf("E%d", line), bordered); err != nil {
			return nil, err
		}
		if id, ok := statusStyles[r.Status]; ok {
			cell := fmt.Sprintf("D%d", line)
			if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
				return nil, err
			}
		}
	}

	for col, width := range map[string]float64{"A": 30, "B": 30, "C": 15, "D": 15} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}
	if err := f.SetColVisible(sheet, "E", false); err != nil {
		return nil, err
	}
	filterRange := fmt.Sprintf("A%d:D%d", statusHeaderRow, statusHeaderRow+len(rows))
	if err := f.AutoFilter(sheet, filterRange, nil); err != nil {
		return nil, fmt.Errorf("failed to add filter: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write status report: %w", err)
	}
	return buf.Bytes(), nil
}
