package report

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xuri/excelize/v2"
)

type ExcelExporter struct {
	OutputDir string
}

func NewExcelExporter(outputDir string) *ExcelExporter {
	return &ExcelExporter{OutputDir: outputDir}
}

func (e *ExcelExporter) Export(s Snapshot, filename string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.createSummarySheet(f, "Summary", s); err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}

	if err := e.createLinesSheet(f, "Lines", s); err != nil {
		return fmt.Errorf("failed to create lines sheet: %w", err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SaveAs(filepath.Join(e.OutputDir, filename)); err != nil {
		return fmt.Errorf("failed to save excel file: %w", err)
	}

	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
}

func (e *ExcelExporter) createSummarySheet(f *excelize.File, sheetName string, s Snapshot) error {
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "User:")
	f.SetCellValue(sheetName, "B1", s.User)
	f.SetCellValue(sheetName, "A2", "Date:")
	f.SetCellValue(sheetName, "B2", s.Date.Format("2006-01-02"))

	headers := []string{"Provider", "Hours", "Minutes", "Error"}
	for col, h := range headers {
		cell := cellName(col+1, 4)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, style)
	}

	row := 5
	for _, p := range s.Providers {
		f.SetCellValue(sheetName, cellName(1, row), ProviderTitle(p.Provider))
		f.SetCellValue(sheetName, cellName(2, row), p.Report.Hours)
		f.SetCellValue(sheetName, cellName(3, row), p.Report.Minutes)
		f.SetCellValue(sheetName, cellName(4, row), p.Err)
		row++
	}

	f.SetCellValue(sheetName, cellName(1, row), "Total")
	f.SetCellValue(sheetName, cellName(2, row), s.Total.Hours)
	f.SetCellValue(sheetName, cellName(3, row), s.Total.Minutes)
	f.SetCellStyle(sheetName, cellName(1, row), cellName(4, row), style)

	f.SetColWidth(sheetName, "A", "A", 15)
	f.SetColWidth(sheetName, "B", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 50)

	return nil
}

func (e *ExcelExporter) createLinesSheet(f *excelize.File, sheetName string, s Snapshot) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	for col, h := range []string{"#", "Provider", "Line"} {
		cell := cellName(col+1, 1)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, style)
	}

	row := 2
	for _, p := range s.Providers {
		for _, line := range PlainLines(p.Report.Reports) {
			f.SetCellValue(sheetName, cellName(1, row), row-1)
			f.SetCellValue(sheetName, cellName(2, row), ProviderTitle(p.Provider))
			f.SetCellValue(sheetName, cellName(3, row), line)
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "A", 5)
	f.SetColWidth(sheetName, "B", "B", 15)
	f.SetColWidth(sheetName, "C", "C", 120)

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

// PlainLines splits report text into lines with the markup removed.
func PlainLines(text string) []string {
	policy := bluemonday.StrictPolicy()
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(html.UnescapeString(policy.Sanitize(l)))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
