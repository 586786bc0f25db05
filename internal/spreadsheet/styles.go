package spreadsheet

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	headerFill   = "D9E1F2"
	numberFormat = "#,##0.00"
	dateFormat   = "dd/mm/yyyy"

	minColumnWidth = 10
	maxColumnWidth = 50
)

// styles holds the style ids registered on one workbook.
type styles struct {
	header int
	text   int
	number int
	date   int
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (*styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Border:    thinBorder(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	st.text, err = f.NewStyle(&excelize.Style{Border: thinBorder()})
	if err != nil {
		return nil, fmt.Errorf("failed to create text style: %w", err)
	}

	numFmt := numberFormat
	st.number, err = f.NewStyle(&excelize.Style{Border: thinBorder(), CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}

	dateFmt := dateFormat
	st.date, err = f.NewStyle(&excelize.Style{Border: thinBorder(), CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}
	return &st, nil
}

// columnWidth sizes a column after its header text.
func columnWidth(header string) float64 {
	w := float64(utf8.RuneCountInString(header)) * 1.5
	return max(minColumnWidth, min(maxColumnWidth, w))
}
