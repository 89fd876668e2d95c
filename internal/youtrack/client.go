package youtrack

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/Afrawles/dayreport/internal/fetch"
)

const (
	mePath          = "/api/users/me"
	workItemsPath   = "/api/workItems"
	workItemsFields = "issue(idReadable,summary,customFields(name,value(name,localizedName))),text,duration(minutes),date,created"
	pageSize        = 100
)

type User struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type WorkItem struct {
	Issue    Issue  `json:"issue"`
	Text     string `json:"text"`
	Duration struct {
		Minutes int `json:"minutes"`
	} `json:"duration"`
	Date    int64 `json:"date"`
	Created int64 `json:"created"`
}

type Issue struct {
	IDReadable   string        `json:"idReadable"`
	Summary      string        `json:"summary"`
	CustomFields []CustomField `json:"customFields"`
}

type CustomField struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type client struct {
	api *fetch.Client
}

func (c *client) me(ctx context.Context) (User, error) {
	var u User
	err := c.api.Get(ctx, mePath, url.Values{"fields": {"id,login,name"}}, &u)
	return u, err
}

// workItemsSince lists the work items authored by userID created at or after since (epoch ms).
func (c *client) workItemsSince(ctx context.Context, userID string, sinceMillis int64) ([]WorkItem, error) {
	var all []WorkItem
	skip := 0
	for {
		q := url.Values{}
		q.Set("fields", workItemsFields)
		q.Set("author", userID)
		q.Set("createdStart", strconv.FormatInt(sinceMillis, 10))
		q.Set("$top", strconv.Itoa(pageSize))
		q.Set("$skip", strconv.Itoa(skip))

		var page []WorkItem
		if err := c.api.Get(ctx, workItemsPath, q, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < pageSize {
			break
		}
		skip += len(page)
	}
	return all, nil
}
