package youtrack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/fetch"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/rs/zerolog"
)

// statusFieldIndex is where the default YouTrack project schema puts the
// state field. It is only consulted when no field matches by name.
const statusFieldIndex = 2

type Config struct {
	URL         string
	StatusField string
	HTTPClient  *http.Client
	Logger      zerolog.Logger
}

type Source struct {
	baseURL     string
	statusField string
	httpClient  *http.Client
	log         zerolog.Logger
}

var _ report.Source = (*Source)(nil)

func NewSource(cfg Config) *Source {
	field := cfg.StatusField
	if field == "" {
		field = "State"
	}
	return &Source{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		statusField: field,
		httpClient:  cfg.HTTPClient,
		log:         cfg.Logger.With().Str("provider", report.ProviderYouTrack).Logger(),
	}
}

func (s *Source) Name() string {
	return report.ProviderYouTrack
}

// Lines reports today's work items of the token's owner, one line per issue.
func (s *Source) Lines(ctx context.Context, cred report.Credentials, now time.Time) ([]report.ReportLine, error) {
	c := &client{api: fetch.New(s.baseURL, credentials.FieldYouTrackToken,
		fetch.WithBearer(permanentToken(cred.Token)),
		fetch.WithHTTPClient(s.httpClient),
		fetch.WithLogger(s.log),
	)}

	me, err := c.me(ctx)
	if err != nil {
		return nil, err
	}
	if me.ID == "" {
		return nil, apperr.Auth(credentials.FieldYouTrackToken, "youtrack did not return the current user", nil)
	}

	since := report.StartOfDay(now, now.Location())
	items, err := c.workItemsSince(ctx, me.ID, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("work_items", len(items)).Msg("work items since start of day")

	summaries, err := s.group(todaysItems(items, now))
	if err != nil {
		return nil, err
	}

	return report.Lines(summaries), nil
}

// group merges work items into one summary per issue, in first-seen order.
func (s *Source) group(items []WorkItem) ([]report.IssueSummary, error) {
	var out []report.IssueSummary
	index := make(map[string]int)

	for _, item := range items {
		key := item.Issue.IDReadable
		i, ok := index[key]
		if !ok {
			status, err := s.status(item.Issue)
			if err != nil {
				return nil, err
			}
			out = append(out, report.IssueSummary{
				Key:    key,
				Title:  item.Issue.Summary,
				Status: status,
				URL:    s.baseURL + "/issue/" + key,
			})
			i = len(out) - 1
			index[key] = i
		}
		out[i].WorkLogs = append(out[i].WorkLogs, report.WorkLogEntry{
			Spent:   time.Duration(max(item.Duration.Minutes, 0)) * time.Minute,
			Comment: item.Text,
		})
	}
	return out, nil
}

// status reads the issue state by field name, falling back to the schema's
// fixed position. An issue with neither fails the report.
func (s *Source) status(issue Issue) (string, error) {
	for _, f := range issue.CustomFields {
		if strings.EqualFold(f.Name, s.statusField) {
			return fieldValue(f.Value), nil
		}
	}
	if len(issue.CustomFields) > statusFieldIndex {
		f := issue.CustomFields[statusFieldIndex]
		s.log.Warn().
			Str("issue", issue.IDReadable).
			Str("field", f.Name).
			Msgf("no %q field, using custom field #%d", s.statusField, statusFieldIndex+1)
		return fieldValue(f.Value), nil
	}
	return "", apperr.Transport(credentials.FieldYouTrackToken,
		fmt.Sprintf("issue %s has no %q field", issue.IDReadable, s.statusField), nil)
}

func fieldValue(raw json.RawMessage) string {
	type named struct {
		Name          string `json:"name"`
		LocalizedName string `json:"localizedName"`
	}
	pick := func(n named) string {
		if n.LocalizedName != "" {
			return n.LocalizedName
		}
		return n.Name
	}

	var one named
	if err := json.Unmarshal(raw, &one); err == nil {
		return pick(one)
	}
	var many []named
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return pick(many[0])
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return ""
}

// todaysItems drops work items not created on now's day, whatever the
// server-side filter let through.
func todaysItems(items []WorkItem, now time.Time) []WorkItem {
	var out []WorkItem
	for _, item := range items {
		ms := item.Created
		if ms == 0 {
			ms = item.Date
		}
		if report.SameDay(time.UnixMilli(ms), now, now.Location()) {
			out = append(out, item)
		}
	}
	return out
}

func permanentToken(token string) string {
	if strings.HasPrefix(token, "perm:") || strings.HasPrefix(token, "perm-") {
		return token
	}
	return "perm:" + token
}
