package report

import (
	"context"
	"time"
)

const (
	ProviderJira     = "jira"
	ProviderYouTrack = "youtrack"
	ProviderRedmine  = "redmine"
)

// WorkLogEntry is one logged unit of time kept for today's report. Spent
// keeps the provider's precision; minutes are derived per issue.
type WorkLogEntry struct {
	Spent   time.Duration
	Comment string
}

// IssueSummary groups the kept worklogs of one issue. Key is unique per provider.
type IssueSummary struct {
	Key      string
	Title    string
	Status   string
	URL      string
	WorkLogs []WorkLogEntry
}

// ReportLine is one issue's formatted fragment. Text is empty when Minutes is 0.
type ReportLine struct {
	Text    string
	Minutes int
}

type DailyReport struct {
	Reports string `json:"reports"`
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
}

// Credentials are supplied fresh for every report and never stored by a Source.
type Credentials struct {
	Token    string
	Username string
	// ReportDate is the day the report covers for providers with a
	// configurable window. Zero means the day of now.
	ReportDate time.Time
}

// Source turns one tracker's activity into report lines. Implementations hold
// no per-user state, so one Source may serve concurrent requests.
type Source interface {
	Name() string
	Lines(ctx context.Context, cred Credentials, now time.Time) ([]ReportLine, error)
}

// CredentialSource resolves a user's credentials for a provider.
type CredentialSource interface {
	Credentials(ctx context.Context, user, provider string) (Credentials, error)
}
