package redmine

import (
	"context"
	"html"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/fanout"
	"github.com/Afrawles/dayreport/internal/fetch"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

const defaultCommentLimit = 100

var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

type Config struct {
	URL          string
	CommentLimit int
	HTTPClient   *http.Client
	Pool         *fanout.Pool
	Logger       zerolog.Logger
}

type Source struct {
	baseURL      string
	commentLimit int
	httpClient   *http.Client
	pool         *fanout.Pool
	strip        *bluemonday.Policy
	log          zerolog.Logger
}

var _ report.Source = (*Source)(nil)

func NewSource(cfg Config) *Source {
	limit := cfg.CommentLimit
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	return &Source{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		commentLimit: limit,
		httpClient:   cfg.HTTPClient,
		pool:         cfg.Pool,
		strip:        bluemonday.StrictPolicy(),
		log:          cfg.Logger.With().Str("provider", report.ProviderRedmine).Logger(),
	}
}

func (s *Source) Name() string {
	return report.ProviderRedmine
}

// Lines reports the user's time entries spent on cred.ReportDate (today when
// unset). Entries on the same issue are merged before formatting.
func (s *Source) Lines(ctx context.Context, cred report.Credentials, now time.Time) ([]report.ReportLine, error) {
	c := &client{api: fetch.New(s.baseURL, credentials.FieldRedmineToken,
		fetch.WithHeader(apiKeyHeader, cred.Token),
		fetch.WithHTTPClient(s.httpClient),
		fetch.WithLogger(s.log),
	)}

	me, err := c.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if me.ID == 0 {
		return nil, apperr.Auth(credentials.FieldRedmineToken, "redmine did not return the current user", nil)
	}

	day := now.Format(time.DateOnly)
	if !cred.ReportDate.IsZero() {
		day = cred.ReportDate.Format(time.DateOnly)
	}

	entries, err := c.timeEntries(ctx, me.ID, day)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("spent_on", day).Int("time_entries", len(entries)).Msg("time entries")

	ids := issueIDs(entries)
	if len(ids) == 0 {
		return []report.ReportLine{}, nil
	}

	issues, err := fanout.Map(ctx, s.pool, ids, c.issue)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]Issue, len(issues))
	for i, issue := range issues {
		byID[ids[i]] = issue
	}

	return report.Lines(s.merge(entries, byID, me.ID, day, now.Location())), nil
}

// merge folds time entries into one summary per issue id, in first-seen
// order. Title, status and comments come from the issue's first entry.
func (s *Source) merge(entries []TimeEntry, issues map[int]Issue, userID int, day string, loc *time.Location) []report.IssueSummary {
	var out []report.IssueSummary
	index := make(map[int]int)

	for _, e := range entries {
		if e.Issue == nil {
			continue
		}
		entry := report.WorkLogEntry{Spent: spent(e.Hours)}

		i, ok := index[e.Issue.ID]
		if !ok {
			issue := issues[e.Issue.ID]
			id := strconv.Itoa(e.Issue.ID)
			out = append(out, report.IssueSummary{
				Key:    id,
				Title:  issue.Subject,
				Status: issue.Status.Name,
				URL:    s.baseURL + "/issues/" + id,
			})
			i = len(out) - 1
			index[e.Issue.ID] = i
			entry.Comment = s.comments(issue.Journals, userID, day, loc)
		}
		out[i].WorkLogs = append(out[i].WorkLogs, entry)
	}
	return out
}

// comments joins the notes userID left on day, without markup, cut to the
// comment limit. Entities are decoded for plain text, but angle brackets stay
// escaped so encoded markup never turns back into tags.
func (s *Source) comments(journals []Journal, userID int, day string, loc *time.Location) string {
	var notes []string
	for _, j := range journals {
		if j.User.ID != userID || strings.TrimSpace(j.Notes) == "" || !onDay(j.CreatedOn, day, loc) {
			continue
		}
		notes = append(notes, j.Notes)
	}
	if len(notes) == 0 {
		return ""
	}
	plain := html.UnescapeString(s.strip.Sanitize(strings.Join(notes, ", ")))
	return angleEscaper.Replace(report.Truncate(plain, s.commentLimit))
}

func onDay(createdOn, day string, loc *time.Location) bool {
	t, err := time.Parse(time.RFC3339, createdOn)
	if err != nil {
		return strings.HasPrefix(createdOn, day)
	}
	return t.In(loc).Format(time.DateOnly) == day
}

func issueIDs(entries []TimeEntry) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, e := range entries {
		if e.Issue == nil || seen[e.Issue.ID] {
			continue
		}
		seen[e.Issue.ID] = true
		ids = append(ids, e.Issue.ID)
	}
	return ids
}

// spent converts entry hours to a duration rounded to the second, so summed
// entries format as their summed hours.
func spent(hours float64) time.Duration {
	if hours <= 0 {
		return 0
	}
	return time.Duration(math.Round(hours*3600)) * time.Second
}
