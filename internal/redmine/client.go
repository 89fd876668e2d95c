package redmine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Afrawles/dayreport/internal/fetch"
)

const (
	apiKeyHeader    = "X-Redmine-API-Key"
	currentUserPath = "/users/current.json"
	timeEntriesPath = "/time_entries.json"
	issuePath       = "/issues/%d.json"
	pageSize        = 100
)

type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
}

type ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TimeEntry struct {
	ID       int     `json:"id"`
	Issue    *ref    `json:"issue"`
	Hours    float64 `json:"hours"`
	Comments string  `json:"comments"`
	SpentOn  string  `json:"spent_on"`
}

type Journal struct {
	User      ref    `json:"user"`
	Notes     string `json:"notes"`
	CreatedOn string `json:"created_on"`
}

type Issue struct {
	ID       int       `json:"id"`
	Subject  string    `json:"subject"`
	Status   ref       `json:"status"`
	Journals []Journal `json:"journals"`
}

type client struct {
	api *fetch.Client
}

func (c *client) currentUser(ctx context.Context) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := c.api.Get(ctx, currentUserPath, nil, &resp)
	return resp.User, err
}

// timeEntries lists userID's time entries spent on day (YYYY-MM-DD).
func (c *client) timeEntries(ctx context.Context, userID int, day string) ([]TimeEntry, error) {
	var all []TimeEntry
	offset := 0
	for {
		q := url.Values{}
		q.Set("spent_on", day)
		q.Set("user_id", strconv.Itoa(userID))
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page struct {
			TimeEntries []TimeEntry `json:"time_entries"`
			TotalCount  int         `json:"total_count"`
		}
		if err := c.api.Get(ctx, timeEntriesPath, q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.TimeEntries...)

		offset += len(page.TimeEntries)
		if len(page.TimeEntries) == 0 || offset >= page.TotalCount {
			break
		}
	}
	return all, nil
}

func (c *client) issue(ctx context.Context, id int) (Issue, error) {
	var resp struct {
		Issue Issue `json:"issue"`
	}
	err := c.api.Get(ctx, fmt.Sprintf(issuePath, id), url.Values{"include": {"journals"}}, &resp)
	return resp.Issue, err
}
