package jira

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/fanout"
	"github.com/Afrawles/dayreport/internal/fetch"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/rs/zerolog"
)

type Config struct {
	URL        string
	HTTPClient *http.Client
	Pool       *fanout.Pool
	Logger     zerolog.Logger
}

type Source struct {
	baseURL    string
	httpClient *http.Client
	pool       *fanout.Pool
	log        zerolog.Logger
}

var _ report.Source = (*Source)(nil)

func NewSource(cfg Config) *Source {
	return &Source{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: cfg.HTTPClient,
		pool:       cfg.Pool,
		log:        cfg.Logger.With().Str("provider", report.ProviderJira).Logger(),
	}
}

func (s *Source) Name() string {
	return report.ProviderJira
}

// Lines reports the issues the user logged work on today. Issues come from
// Jira's own "start of day"; worklogs are filtered again by author and by
// their update date in now's location.
func (s *Source) Lines(ctx context.Context, cred report.Credentials, now time.Time) ([]report.ReportLine, error) {
	c := &client{api: fetch.New(s.baseURL, credentials.FieldJiraToken,
		fetch.WithBearer(cred.Token),
		fetch.WithHTTPClient(s.httpClient),
		fetch.WithLogger(s.log),
	)}

	if err := c.checkUser(ctx, cred.Username); err != nil {
		return nil, err
	}

	issues, err := c.updatedToday(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("issues", len(issues)).Msg("issues updated today")

	summaries, err := fanout.Map(ctx, s.pool, issues, func(ctx context.Context, issue Issue) (report.IssueSummary, error) {
		wls, err := c.worklogs(ctx, issue.ID)
		if err != nil {
			return report.IssueSummary{}, err
		}
		return s.summarize(issue, todaysWorklogs(wls, cred.Username, now)), nil
	})
	if err != nil {
		return nil, err
	}

	kept := summaries[:0]
	for _, sum := range summaries {
		if len(sum.WorkLogs) > 0 {
			kept = append(kept, sum)
		}
	}
	s.log.Debug().Int("issues", len(kept)).Msg("issues with worklogs today")

	return report.Lines(kept), nil
}

func (s *Source) summarize(issue Issue, wls []Worklog) report.IssueSummary {
	sum := report.IssueSummary{
		Key:    issue.Key,
		Title:  issue.Fields.Summary,
		Status: issue.Fields.Status.Name,
		URL:    s.baseURL + browsePrefix + issue.Key,
	}
	for _, wl := range wls {
		sum.WorkLogs = append(sum.WorkLogs, report.WorkLogEntry{
			Spent:   time.Duration(wl.TimeSpentSeconds) * time.Second,
			Comment: wl.Comment,
		})
	}
	return sum
}

// todaysWorklogs keeps the worklogs authored by username and updated on now's day.
func todaysWorklogs(wls []Worklog, username string, now time.Time) []Worklog {
	var out []Worklog
	for _, wl := range wls {
		if wl.Author.Name != username || wl.TimeSpentSeconds < 0 {
			continue
		}
		updated, err := parseTime(wl.Updated)
		if err != nil || !report.SameDay(updated, now, now.Location()) {
			continue
		}
		out = append(out, wl)
	}
	return out
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
