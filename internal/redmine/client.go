// Package redmine is a small client for the Redmine REST API.
package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrUnauthorized is returned when Redmine rejects the API key.
var ErrUnauthorized = errors.New("redmine: unauthorized")

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("redmine: http %d: %s", e.Status, body)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *log.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the Redmine instance at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Redmine-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("redmine request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// User is the account behind the API key.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CurrentUser fetches the authenticated user. It is the cheapest way to
// check a URL and key pair.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/current.json", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

type Status struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
}

func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	var resp struct {
		Statuses []Status `json:"issue_statuses"`
	}
	if err := c.do(ctx, http.MethodGet, "/issue_statuses.json", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}

// TimeEntry is logged time posted back to an issue. ActivityID 0 lets
// Redmine pick its default activity.
type TimeEntry struct {
	IssueID    int64   `json:"issue_id"`
	Hours      float64 `json:"hours"`
	ActivityID int64   `json:"activity_id,omitempty"`
	Comments   string  `json:"comments"`
}

func (c *Client) CreateTimeEntry(ctx context.Context, e TimeEntry) error {
	body := map[string]TimeEntry{"time_entry": e}
	return c.do(ctx, http.MethodPost, "/time_entries.json", nil, body, nil)
}
