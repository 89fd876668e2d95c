package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name  string
	lines []ReportLine
	err   error

	gotCred Credentials
	gotNow  time.Time
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lines(_ context.Context, cred Credentials, now time.Time) ([]ReportLine, error) {
	f.gotCred = cred
	f.gotNow = now
	return f.lines, f.err
}

type fakeCreds map[string]Credentials

func (f fakeCreds) Credentials(_ context.Context, user, provider string) (Credentials, error) {
	c, ok := f[user+"/"+provider]
	if !ok {
		return Credentials{}, errors.New("no credentials")
	}
	return c, nil
}

func TestGenerator_ReportUsesCredentialsAndClock(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	fixed := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	jira := &fakeSource{name: ProviderJira, lines: []ReportLine{{Text: "x\n", Minutes: 45}, {Text: "y\n", Minutes: 75}}}
	creds := fakeCreds{"alice/jira": {Token: "t", Username: "alice"}}

	g := NewGenerator(creds, []Source{jira}, WithClock(func() time.Time { return fixed }), WithLocation(loc))

	r, err := g.Jira(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, DailyReport{Reports: "x\ny\n", Hours: 2, Minutes: 0}, r)
	assert.Equal(t, "alice", jira.gotCred.Username)
	assert.Equal(t, loc, jira.gotNow.Location())
	assert.True(t, jira.gotNow.Equal(fixed))
}

func TestGenerator_UnknownProvider(t *testing.T) {
	g := NewGenerator(fakeCreds{}, nil)
	_, err := g.YouTrack(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestGenerator_PropagatesSourceError(t *testing.T) {
	src := &fakeSource{name: ProviderRedmine, err: apperr.Auth("redmine_api", "bad token", nil)}
	g := NewGenerator(fakeCreds{"bob/redmine": {Token: "t"}}, []Source{src})

	_, err := g.Redmine(context.Background(), "bob")
	assert.True(t, apperr.IsAuth(err))
}

func TestGenerator_AllKeepsFailuresSeparate(t *testing.T) {
	sources := []Source{
		&fakeSource{name: ProviderJira, lines: []ReportLine{{Text: "j\n", Minutes: 30}}},
		&fakeSource{name: ProviderYouTrack, err: apperr.Transport("you_track_api", "down", nil)},
		&fakeSource{name: ProviderRedmine, lines: []ReportLine{{Text: "r\n", Minutes: 45}}},
	}
	creds := fakeCreds{"u/jira": {}, "u/youtrack": {}, "u/redmine": {}}
	g := NewGenerator(creds, sources)

	assert.Equal(t, []string{ProviderJira, ProviderYouTrack, ProviderRedmine}, g.Providers())

	r, errs := g.All(context.Background(), "u")

	assert.Equal(t, DailyReport{Reports: "j\nr\n", Hours: 1, Minutes: 15}, r)
	require.Len(t, errs, 1)
	assert.True(t, apperr.IsTransport(errs[ProviderYouTrack]))
}
