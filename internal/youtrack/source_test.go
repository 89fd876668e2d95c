package youtrack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/Afrawles/dayreport/internal/fetch"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func fields(state string) []map[string]any {
	return []map[string]any{
		{"name": "Priority", "value": map[string]any{"name": "Normal", "localizedName": "Обычный"}},
		{"name": "Type", "value": map[string]any{"name": "Task"}},
		{"name": "State", "value": map[string]any{"name": state}},
	}
}

func item(key, summary string, custom []map[string]any, text string, minutes int, created time.Time) map[string]any {
	return map[string]any{
		"issue":    map[string]any{"idReadable": key, "summary": summary, "customFields": custom},
		"text":     text,
		"duration": map[string]any{"minutes": minutes},
		"date":     created.UnixMilli(),
		"created":  created.UnixMilli(),
	}
}

func serve(t *testing.T, items []map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer perm:tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case mePath:
			_, _ = w.Write([]byte(`{"id":"1-42","login":"alice","name":"Alice"}`))
		case workItemsPath:
			q := r.URL.Query()
			assert.Equal(t, "1-42", q.Get("author"))
			start := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC).UnixMilli()
			assert.Equal(t, strconv.FormatInt(start, 10), q.Get("createdStart"))
			_ = json.NewEncoder(w).Encode(items)
		default:
			http.NotFound(w, r)
		}
	}))
}

func newSource(url string) *Source {
	return NewSource(Config{URL: url, Logger: zerolog.Nop()})
}

func TestLines_GroupsWorkItemsByIssue(t *testing.T) {
	today := now.Add(-2 * time.Hour)
	server := serve(t, []map[string]any{
		item("YT-1", "Parser", fields("In Progress"), "first", 30, today),
		item("YT-2", "Docs", fields("Fixed"), "", 0, today),
		item("YT-1", "Parser", fields("In Progress"), "second\n  pass", 45, today),
		item("YT-3", "Old", fields("Open"), "yesterday", 120, now.Add(-20*time.Hour)),
	})
	defer server.Close()

	lines, err := newSource(server.URL).Lines(context.Background(), report.Credentials{Token: "tok"}, now)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 75, lines[0].Minutes)
	assert.Equal(t,
		`1.25 часа(ов) - <a href="`+server.URL+`/issue/YT-1">YT-1</a> Parser, In Progress, Комментарий: first; second pass`+"\n",
		lines[0].Text)
	assert.Equal(t, report.ReportLine{}, lines[1])
}

func TestLines_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newSource(server.URL).Lines(context.Background(), report.Credentials{Token: "bad"}, now)
	require.True(t, apperr.IsAuth(err))
	assert.Equal(t, "you_track_api", apperr.As(err).Field)
}

func TestLines_MissingStatusFieldFails(t *testing.T) {
	server := serve(t, []map[string]any{
		item("YT-9", "No state", []map[string]any{{"name": "Priority", "value": nil}}, "", 15, now),
	})
	defer server.Close()

	_, err := newSource(server.URL).Lines(context.Background(), report.Credentials{Token: "tok"}, now)
	require.True(t, apperr.IsTransport(err))
	assert.Contains(t, err.Error(), "YT-9")
}

func TestStatus_ByNameThenPosition(t *testing.T) {
	s := newSource("http://yt")

	byName := Issue{CustomFields: []CustomField{
		{Name: "state", Value: json.RawMessage(`{"name":"Open","localizedName":"Открыт"}`)},
	}}
	st, err := s.status(byName)
	require.NoError(t, err)
	assert.Equal(t, "Открыт", st)

	byPosition := Issue{CustomFields: []CustomField{
		{Name: "Priority", Value: json.RawMessage(`{"name":"Major"}`)},
		{Name: "Type", Value: json.RawMessage(`{"name":"Bug"}`)},
		{Name: "Стадия", Value: json.RawMessage(`{"name":"Done"}`)},
	}}
	st, err = s.status(byPosition)
	require.NoError(t, err)
	assert.Equal(t, "Done", st)
}

func TestFieldValue(t *testing.T) {
	assert.Equal(t, "", fieldValue(json.RawMessage(`null`)))
	assert.Equal(t, "Plain", fieldValue(json.RawMessage(`"Plain"`)))
	assert.Equal(t, "First", fieldValue(json.RawMessage(`[{"name":"First"},{"name":"Second"}]`)))
	assert.Equal(t, "", fieldValue(json.RawMessage(`42`)))
}

func TestPermanentToken(t *testing.T) {
	assert.Equal(t, "perm:abc", permanentToken("abc"))
	assert.Equal(t, "perm:abc", permanentToken("perm:abc"))
}

func TestWorkItemsSince_Paginates(t *testing.T) {
	var skips []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		skips = append(skips, r.URL.Query().Get("$skip"))
		n := pageSize
		if len(skips) > 1 {
			n = 3
		}
		page := make([]map[string]any, n)
		for i := range page {
			page[i] = item("YT-1", "s", fields("Open"), "", 1, now)
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	src := newSource(server.URL)
	c := &client{api: newTestClient(src)}
	items, err := c.workItemsSince(context.Background(), "1-42", 0)
	require.NoError(t, err)
	assert.Len(t, items, pageSize+3)
	assert.Equal(t, []string{"0", "100"}, skips)
}

func newTestClient(s *Source) *fetch.Client {
	return fetch.New(s.baseURL, "you_track_api")
}
