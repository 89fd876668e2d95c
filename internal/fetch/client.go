package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/rs/zerolog"
)

// StatusError carries a non-2xx provider response. It is always wrapped in an
// apperr.Error, so adapters that care about a specific status use errors.As.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status=%d body=%s", e.Code, e.Body)
}

// Client performs single-attempt JSON requests against one provider. It never
// retries: a failed call aborts the report that issued it.
type Client struct {
	baseURL    string
	field      string
	header     http.Header
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*Client)

// WithBearer authenticates with "Authorization: Bearer <token>".
func WithBearer(token string) Option {
	return func(c *Client) { c.header.Set("Authorization", "Bearer "+token) }
}

func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client for baseURL. field names the credential that errors
// from this client are attributed to.
func New(baseURL, field string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		field:      field,
		header:     http.Header{},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zerolog.Nop(),
	}
	c.header.Set("Accept", "application/json")
	c.header.Set("Content-Type", "application/json")
	c.header.Set("Cache-Control", "no-cache")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL(path string, q url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Get issues a GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, q, out)
}

func (c *Client) Do(ctx context.Context, method, path string, q url.Values, out any) error {
	u := c.URL(path, q)

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return apperr.Transport(c.field, "could not build request", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Transport(c.field, "could not reach provider", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("provider request")

	if resp.StatusCode == http.StatusUnauthorized {
		return apperr.Auth(c.field, "provider rejected the credentials", &StatusError{Code: resp.StatusCode})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Transport(c.field, "provider returned an error",
			&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Transport(c.field, "malformed provider response", err)
	}

	return nil
}
