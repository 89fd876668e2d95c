package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	TZ       string
	HTTPAddr string

	HTTPTimeout time.Duration
	Workers     int
	RPS         float64

	CredentialsFile string

	Jira     JiraConfig
	YouTrack YouTrackConfig
	Redmine  RedmineConfig
	Output   OutputConfig
}

type JiraConfig struct {
	URL string
}

type YouTrackConfig struct {
	URL         string
	StatusField string
}

type RedmineConfig struct {
	URL          string
	CommentLimit int
}

type OutputConfig struct {
	Directory string
	Format    []string // json, html, xlsx, csv
}

func LoadFromEnv() (*Config, error) {
	workers, err := getEnvInt("FETCH_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	commentLimit, err := getEnvInt("REDMINE_COMMENT_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(getEnvOrDefault("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	rps, err := strconv.ParseFloat(getEnvOrDefault("FETCH_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_RPS: %w", err)
	}

	cfg := &Config{
		AppEnv:          getEnvOrDefault("APP_ENV", "dev"),
		TZ:              getEnvOrDefault("APP_TZ", "Local"),
		HTTPAddr:        getEnvOrDefault("HTTP_ADDR", ":8080"),
		HTTPTimeout:     timeout,
		Workers:         workers,
		RPS:             rps,
		CredentialsFile: getEnvOrDefault("CREDENTIALS_FILE", "credentials.yaml"),
		Jira: JiraConfig{
			URL: strings.TrimRight(os.Getenv("JIRA_URL"), "/"),
		},
		YouTrack: YouTrackConfig{
			URL:         strings.TrimRight(os.Getenv("YOUTRACK_URL"), "/"),
			StatusField: getEnvOrDefault("YOUTRACK_STATUS_FIELD", "State"),
		},
		Redmine: RedmineConfig{
			URL:          strings.TrimRight(os.Getenv("REDMINE_URL"), "/"),
			CommentLimit: commentLimit,
		},
		Output: OutputConfig{
			Directory: getEnvOrDefault("OUTPUT_DIR", "reports"),
			Format:    parseList(getEnvOrDefault("OUTPUT_FORMAT", "json")),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	hasProvider := false

	for name, raw := range map[string]string{
		"JIRA_URL":     c.Jira.URL,
		"YOUTRACK_URL": c.YouTrack.URL,
		"REDMINE_URL":  c.Redmine.URL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
		hasProvider = true
	}

	if !hasProvider {
		return fmt.Errorf("no providers configured (set JIRA_URL, YOUTRACK_URL or REDMINE_URL)")
	}

	if c.Workers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be at least 1, got %d", c.Workers)
	}

	if c.RPS < 0 {
		return fmt.Errorf("FETCH_RPS must not be negative, got %v", c.RPS)
	}

	if c.Redmine.CommentLimit < 1 {
		return fmt.Errorf("REDMINE_COMMENT_LIMIT must be positive, got %d", c.Redmine.CommentLimit)
	}

	for _, f := range c.Output.Format {
		switch f {
		case "json", "html", "xlsx", "csv":
		default:
			return fmt.Errorf("unsupported OUTPUT_FORMAT %q (want json, html, xlsx or csv)", f)
		}
	}

	if _, err := time.LoadLocation(c.TZ); err != nil {
		return fmt.Errorf("cannot load APP_TZ %q: %w", c.TZ, err)
	}

	return nil
}

// Location is the timezone that decides what "today" means for every report.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseList(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
