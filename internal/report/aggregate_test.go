package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(key string, minutes ...int) IssueSummary {
	s := IssueSummary{Key: key, Title: "Title " + key, Status: "Open", URL: "https://t/" + key}
	for _, m := range minutes {
		s.WorkLogs = append(s.WorkLogs, WorkLogEntry{Spent: time.Duration(m) * time.Minute})
	}
	return s
}

func TestSummarize_ThreeIssues(t *testing.T) {
	lines := Lines([]IssueSummary{issue("A-1", 0), issue("A-2", 45), issue("A-3", 30, 45)})

	r := Summarize(lines)

	assert.Equal(t, 2, r.Hours)
	assert.Equal(t, 0, r.Minutes)
	assert.Equal(t, lines[1].Text+lines[2].Text, r.Reports)
	assert.Empty(t, lines[0].Text)
}

func TestSummarize_TotalsIndependentOfOrder(t *testing.T) {
	lines := []ReportLine{
		{Text: "a\n", Minutes: 50},
		{Text: "b\n", Minutes: 25},
		{Text: "", Minutes: 0},
		{Text: "c\n", Minutes: 130},
	}
	reversed := []ReportLine{lines[3], lines[2], lines[1], lines[0]}

	r1 := Summarize(lines)
	r2 := Summarize(reversed)

	assert.Equal(t, r1.Hours, r2.Hours)
	assert.Equal(t, r1.Minutes, r2.Minutes)
	assert.Equal(t, 205, r1.Hours*60+r1.Minutes)
	assert.Equal(t, "a\nb\nc\n", r1.Reports)
	assert.Equal(t, "c\nb\na\n", r2.Reports)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, DailyReport{}, Summarize(nil))
}

func TestSummarize_NegativeMinutesPanics(t *testing.T) {
	assert.Panics(t, func() {
		Summarize([]ReportLine{{Minutes: 10}, {Minutes: -1}})
	})
}

func TestMerge(t *testing.T) {
	r := Merge(
		DailyReport{Reports: "jira\n", Hours: 1, Minutes: 40},
		DailyReport{Reports: "", Hours: 0, Minutes: 0},
		DailyReport{Reports: "redmine\n", Hours: 2, Minutes: 35},
	)

	require.Equal(t, "jira\nredmine\n", r.Reports)
	assert.Equal(t, 4, r.Hours)
	assert.Equal(t, 15, r.Minutes)
	assert.Equal(t, 255, r.TotalMinutes())
}
