package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	lineFormat    = "%s часа(ов) - %s %s, %s%s\n"
	commentPrefix = ", Комментарий: "
)

// Spent sums the worklog durations.
func (s IssueSummary) Spent() time.Duration {
	var total time.Duration
	for _, wl := range s.WorkLogs {
		total += wl.Spent
	}
	return total
}

// Minutes is the summed duration in whole minutes, truncated.
func (s IssueSummary) Minutes() int {
	return int(s.Spent() / time.Minute)
}

// Comments joins the non-empty worklog comments in logged order.
func (s IssueSummary) Comments() string {
	parts := make([]string, 0, len(s.WorkLogs))
	for _, wl := range s.WorkLogs {
		if c := strings.TrimSpace(wl.Comment); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "; ")
}

// Line formats the summary as a report line.
func (s IssueSummary) Line() ReportLine {
	spent := s.Spent()
	minutes := int(spent / time.Minute)
	if minutes == 0 {
		return ReportLine{}
	}

	suffix := ""
	if comments := CollapseSpaces(s.Comments()); comments != "" {
		suffix = commentPrefix + comments
	}

	return ReportLine{
		Text:    fmt.Sprintf(lineFormat, FormatDuration(spent), IssueLink(s.Key, s.URL), s.Title, s.Status, suffix),
		Minutes: minutes,
	}
}

// Lines formats summaries in order, one line each.
func Lines(summaries []IssueSummary) []ReportLine {
	lines := make([]ReportLine, 0, len(summaries))
	for _, s := range summaries {
		lines = append(lines, s.Line())
	}
	return lines
}

// FormatHours renders minutes as fractional hours with at most two decimals.
func FormatHours(minutes int) string {
	return FormatDuration(time.Duration(minutes) * time.Minute)
}

// FormatDuration renders d as fractional hours with at most two decimals.
func FormatDuration(d time.Duration) string {
	s := strconv.FormatFloat(d.Hours(), 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func IssueLink(key, url string) string {
	return `<a href="` + url + `">` + key + `</a>`
}

// CollapseSpaces replaces every whitespace run with one space and trims the ends.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SameDay reports whether t falls on the calendar day of day in loc.
func SameDay(t, day time.Time, loc *time.Location) bool {
	ty, tm, td := t.In(loc).Date()
	dy, dm, dd := day.In(loc).Date()
	return ty == dy && tm == dm && td == dd
}

// StartOfDay returns midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
