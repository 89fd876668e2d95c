// Package credentials supplies per-user provider tokens and the Redmine
// report date. It is read-only: tokens are managed outside this program.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/Afrawles/dayreport/internal/report"
	"gopkg.in/yaml.v3"
)

const (
	FieldJiraToken     = "jira_api"
	FieldJiraUsername  = "jira_username"
	FieldYouTrackToken = "you_track_api"
	FieldRedmineToken  = "redmine_api"
)

var ErrUnknownUser = errors.New("unknown user")

// Profile holds one worker's integration settings.
type Profile struct {
	JiraToken     string `yaml:"jira_api"`
	JiraUsername  string `yaml:"jira_username"`
	YouTrackToken string `yaml:"you_track_api"`
	RedmineToken  string `yaml:"redmine_api"`
	// ReportDate is the Redmine report day as YYYY-MM-DD. Empty means today.
	ReportDate string `yaml:"report_date"`
}

// TokenField names the credential field a provider's token is stored under.
func TokenField(provider string) string {
	switch provider {
	case report.ProviderJira:
		return FieldJiraToken
	case report.ProviderYouTrack:
		return FieldYouTrackToken
	case report.ProviderRedmine:
		return FieldRedmineToken
	}
	return provider
}

// For converts the profile into the credentials one provider needs.
// A missing token is an auth error on that provider's field.
func (p Profile) For(provider string) (report.Credentials, error) {
	var cred report.Credentials

	switch provider {
	case report.ProviderJira:
		cred.Token = p.JiraToken
		cred.Username = strings.TrimSpace(p.JiraUsername)
		if cred.Username == "" {
			return cred, apperr.Auth(FieldJiraUsername, "jira username is not set", nil)
		}
	case report.ProviderYouTrack:
		cred.Token = p.YouTrackToken
	case report.ProviderRedmine:
		cred.Token = p.RedmineToken
		if p.ReportDate != "" {
			d, err := time.Parse(time.DateOnly, p.ReportDate)
			if err != nil {
				return cred, fmt.Errorf("invalid report_date %q: %w", p.ReportDate, err)
			}
			cred.ReportDate = d
		}
	default:
		return cred, fmt.Errorf("%w: %s", report.ErrUnknownProvider, provider)
	}

	cred.Token = strings.TrimSpace(cred.Token)
	if cred.Token == "" {
		return cred, apperr.Auth(TokenField(provider), "token is not set", nil)
	}

	return cred, nil
}

// FileStore serves profiles loaded from a YAML file of the form
//
//	users:
//	  alice:
//	    jira_api: ...
//	    jira_username: alice
type FileStore struct {
	mu    sync.RWMutex
	users map[string]Profile
}

var _ report.CredentialSource = (*FileStore)(nil)

func LoadFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*FileStore, error) {
	users, err := parseUsers(data)
	if err != nil {
		return nil, err
	}
	return &FileStore{users: users}, nil
}

func parseUsers(data []byte) (map[string]Profile, error) {
	var doc struct {
		Users map[string]Profile `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if doc.Users == nil {
		doc.Users = map[string]Profile{}
	}
	return doc.Users, nil
}

func (s *FileStore) Profile(user string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[user]
	return p, ok
}

func (s *FileStore) Credentials(_ context.Context, user, provider string) (report.Credentials, error) {
	p, ok := s.Profile(user)
	if !ok {
		return report.Credentials{}, fmt.Errorf("%w: %s", ErrUnknownUser, user)
	}
	return p.For(provider)
}

// Static serves a single profile to every user, for one-off CLI runs.
type Static Profile

func (s Static) Credentials(_ context.Context, _, provider string) (report.Credentials, error) {
	return Profile(s).For(provider)
}
