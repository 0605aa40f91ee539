package tabular

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"checkin/internal/student"
)

const (
	rosterSheet       = "Danh sách"
	templateSheet     = "Danh sách học sinh"
	instructionsSheet = "Hướng dẫn"
)

// ReadRows reads the first sheet of a workbook. The first non-empty line is
// the header; every following non-empty line becomes a row keyed by header.
// Cells are read unformatted so a styled 200000 stays "200000".
func ReadRows(r io.Reader) ([]student.SheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", student.ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", student.ErrValidation)
	}
	lines, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet: %v", student.ErrValidation, err)
	}

	var header []string
	var rows []student.SheetRow
	for n, line := range lines {
		if blank(line) {
			continue
		}
		if header == nil {
			header = make([]string, len(line))
			for i, h := range line {
				header[i] = strings.TrimSpace(h)
			}
			continue
		}
		row := student.Row{}
		for i, cell := range line {
			if i < len(header) && header[i] != "" {
				row[header[i]] = cell
			}
		}
		rows = append(rows, student.SheetRow{Line: n + 1, Cells: row})
	}
	return rows, nil
}

func blank(line []string) bool {
	for _, c := range line {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteRoster writes the roster export workbook.
func WriteRoster(w io.Writer, students []student.Student, loc *time.Location) error {
	rows := make([]student.Row, 0, len(students))
	for _, s := range students {
		rows = append(rows, student.ExportRow(s, loc))
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return err
	}
	if err := writeSheet(f, rosterSheet, student.ExportColumns, rows); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// WriteTemplate writes the import template: sample rows plus a help sheet.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return err
	}
	if err := writeSheet(f, templateSheet, student.ImportColumns, student.TemplateRows()); err != nil {
		return err
	}
	widths := []float64{20, 10, 20, 12, 15, 15}
	for i, wch := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(templateSheet, col, col, wch); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return err
	}
	help := make([]student.Row, 0, len(student.TemplateInstructions))
	for _, line := range student.TemplateInstructions {
		help = append(help, student.Row{instructionsSheet: line})
	}
	if err := writeSheet(f, instructionsSheet, []string{instructionsSheet}, help); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows []student.Row) error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		values := make([]interface{}, len(columns))
		for j, c := range columns {
			values[j] = row[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// ExportFileName is the download name of a roster export.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("event-checkin-%d.xlsx", now.UnixMilli())
}
