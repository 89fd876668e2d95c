package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type CSVExporter struct {
	OutputDir string
}

func NewCSVExporter(outputDir string) *CSVExporter {
	return &CSVExporter{OutputDir: outputDir}
}

// Export writes one row per report line followed by a per-provider total row
// and the overall total.
func (e *CSVExporter) Export(s Snapshot, filename string) error {
	file, err := os.Create(filepath.Join(e.OutputDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"#", "Provider", "Line", "Hours", "Minutes", "Error"}); err != nil {
		return err
	}

	n := 0
	for _, p := range s.Providers {
		for _, line := range PlainLines(p.Report.Reports) {
			n++
			if err := writer.Write([]string{strconv.Itoa(n), ProviderTitle(p.Provider), line, "", "", ""}); err != nil {
				return err
			}
		}
		row := []string{"", ProviderTitle(p.Provider), "Total",
			strconv.Itoa(p.Report.Hours), strconv.Itoa(p.Report.Minutes), p.Err}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	total := []string{"", "", "Total", strconv.Itoa(s.Total.Hours), strconv.Itoa(s.Total.Minutes), ""}
	if err := writer.Write(total); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}
