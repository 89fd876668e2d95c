package report

import (
	"fmt"
	"strings"
)

// Summarize merges report lines into one DailyReport. Text keeps input order.
// Negative minutes are a caller bug and panic.
func Summarize(lines []ReportLine) DailyReport {
	var b strings.Builder
	total := 0

	for i, line := range lines {
		if line.Minutes < 0 {
			panic(fmt.Sprintf("report: line %d has negative minutes (%d)", i, line.Minutes))
		}
		total += line.Minutes
		b.WriteString(line.Text)
	}

	return DailyReport{
		Reports: b.String(),
		Hours:   total / 60,
		Minutes: total % 60,
	}
}

// Merge combines reports from several providers into one.
func Merge(reports ...DailyReport) DailyReport {
	lines := make([]ReportLine, 0, len(reports))
	for _, r := range reports {
		lines = append(lines, ReportLine{Text: r.Reports, Minutes: r.TotalMinutes()})
	}
	return Summarize(lines)
}

func (r DailyReport) TotalMinutes() int {
	return r.Hours*60 + r.Minutes
}
