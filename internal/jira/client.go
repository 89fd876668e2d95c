package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/fetch"
)

const (
	userPath     = "/rest/api/2/user"
	searchPath   = "/rest/api/2/search"
	worklogPath  = "/rest/api/2/issue/%s/worklog"
	todayJQL     = "updated >= startOfDay()"
	pageSize     = 50
	timeLayout   = "2006-01-02T15:04:05.000-0700"
	browsePrefix = "/browse/"
)

type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary string `json:"summary"`
	Status  struct {
		Name string `json:"name"`
	} `json:"status"`
}

type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

type Worklog struct {
	Author struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"author"`
	Comment          string `json:"comment"`
	Updated          string `json:"updated"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

type worklogResponse struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Worklogs   []Worklog `json:"worklogs"`
}

type client struct {
	api *fetch.Client
}

// checkUser fails with an auth error on the username field when Jira does
// not know the account.
func (c *client) checkUser(ctx context.Context, username string) error {
	var user struct {
		Name   string         `json:"name"`
		Errors map[string]any `json:"errors"`
	}
	err := c.api.Get(ctx, userPath, url.Values{"username": {username}}, &user)

	var se *fetch.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return apperr.Auth(credentials.FieldJiraUsername, "jira username not found", err)
	}
	if err != nil {
		return err
	}
	if user.Errors != nil {
		return apperr.Auth(credentials.FieldJiraUsername, "jira username not found", nil)
	}
	return nil
}

// updatedToday returns every issue Jira considers updated since its own start of day.
func (c *client) updatedToday(ctx context.Context) ([]Issue, error) {
	var all []Issue
	startAt := 0
	for {
		q := url.Values{}
		q.Set("jql", todayJQL)
		q.Set("fields", "summary,status")
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(pageSize))

		var page searchResponse
		if err := c.api.Get(ctx, searchPath, q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Issues...)

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}
	return all, nil
}

func (c *client) worklogs(ctx context.Context, issueID string) ([]Worklog, error) {
	var all []Worklog
	startAt := 0
	for {
		q := url.Values{}
		if startAt > 0 {
			q.Set("startAt", strconv.Itoa(startAt))
		}

		var page worklogResponse
		if err := c.api.Get(ctx, fmtPath(worklogPath, issueID), q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Worklogs...)

		startAt += len(page.Worklogs)
		if len(page.Worklogs) == 0 || startAt >= page.Total {
			break
		}
	}
	return all, nil
}

func fmtPath(format, id string) string {
	return fmt.Sprintf(format, url.PathEscape(id))
}
