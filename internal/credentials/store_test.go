package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
users:
  alice:
    jira_api: jira-token
    jira_username: " alice "
    you_track_api: yt-token
    redmine_api: rm-token
    report_date: "2026-10-16"
  bob:
    redmine_api: rm-bob
`

func TestFileStore_Credentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0600))

	store, err := LoadFile(path)
	require.NoError(t, err)
	ctx := context.Background()

	jira, err := store.Credentials(ctx, "alice", report.ProviderJira)
	require.NoError(t, err)
	assert.Equal(t, report.Credentials{Token: "jira-token", Username: "alice"}, jira)

	yt, err := store.Credentials(ctx, "alice", report.ProviderYouTrack)
	require.NoError(t, err)
	assert.Equal(t, "yt-token", yt.Token)

	rm, err := store.Credentials(ctx, "alice", report.ProviderRedmine)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), rm.ReportDate)

	rmBob, err := store.Credentials(ctx, "bob", report.ProviderRedmine)
	require.NoError(t, err)
	assert.True(t, rmBob.ReportDate.IsZero())
}

func TestFileStore_MissingValues(t *testing.T) {
	store, err := Parse([]byte(sample))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Credentials(ctx, "carol", report.ProviderJira)
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = store.Credentials(ctx, "bob", report.ProviderJira)
	require.True(t, apperr.IsAuth(err))
	assert.Equal(t, FieldJiraUsername, apperr.As(err).Field)

	_, err = store.Credentials(ctx, "bob", report.ProviderYouTrack)
	require.True(t, apperr.IsAuth(err))
	assert.Equal(t, FieldYouTrackToken, apperr.As(err).Field)

	_, err = store.Credentials(ctx, "bob", "gitlab")
	assert.ErrorIs(t, err, report.ErrUnknownProvider)
}

func TestProfile_InvalidReportDate(t *testing.T) {
	_, err := Profile{RedmineToken: "x", ReportDate: "16.10.2026"}.For(report.ProviderRedmine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_date")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("users: [unclosed"))
	assert.Error(t, err)

	store, err := Parse([]byte(""))
	require.NoError(t, err)
	_, ok := store.Profile("anyone")
	assert.False(t, ok)
}

func TestStatic(t *testing.T) {
	s := Static{YouTrackToken: "perm:abc"}
	c, err := s.Credentials(context.Background(), "whoever", report.ProviderYouTrack)
	require.NoError(t, err)
	assert.Equal(t, "perm:abc", c.Token)
}
