package main

import (
	"os"
	"strings"
	"time"

	"github.com/Afrawles/dayreport/internal/config"
	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/schollz/progressbar/v3"
)

// parseCommaList splits a comma-separated string and trims whitespace
func parseCommaList(input string) []string {
	var result []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func flagOrEnv(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// reportCredentials picks one-off credentials from flags or environment
// when any token is given, and the credentials file otherwise.
func reportCredentials(cfg *config.Config) (report.CredentialSource, string, error) {
	user := flagOrEnv(username, "USER")

	static := credentials.Static{
		JiraToken:     flagOrEnv(jiraToken, "JIRA_API_TOKEN"),
		JiraUsername:  flagOrEnv(jiraUsername, "JIRA_USERNAME"),
		YouTrackToken: flagOrEnv(youTrackToken, "YOUTRACK_API_TOKEN"),
		RedmineToken:  flagOrEnv(redmineToken, "REDMINE_API_TOKEN"),
		ReportDate:    flagOrEnv(reportDate, "REPORT_DATE"),
	}
	if static.JiraToken != "" || static.YouTrackToken != "" || static.RedmineToken != "" {
		return static, user, nil
	}

	store, err := credentials.LoadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, "", err
	}
	return store, user, nil
}

func newSpinner(description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	_ = bar.RenderBlank()
	return bar
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
