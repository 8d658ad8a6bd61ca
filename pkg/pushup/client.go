// Package pushup is a small client for the pushupd localhost facade.
// Status bars, scripts and alternative frontends use it instead of
// hand-rolling HTTP calls against the daemon.
package pushup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is where a locally running daemon listens.
const DefaultBaseURL = "http://127.0.0.1:7493"

// ErrDaemonUnavailable is returned when the daemon cannot be reached.
var ErrDaemonUnavailable = errors.New("pushupd daemon unavailable")

// Client talks to a running pushupd daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// Config configures a Client. The zero value targets a local daemon
// with a short timeout.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a client for the daemon facade.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL: config.BaseURL,
		http:    &http.Client{Timeout: config.Timeout},
	}
}

// Status returns the daemon's current snapshot.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Entries returns all cached entries, newest first.
func (c *Client) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := c.do(ctx, http.MethodGet, "/api/v1/entries", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Calendar returns the grid for the given month. Zero values render the
// current month.
func (c *Client) Calendar(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	path := "/api/v1/calendar"
	if year != 0 {
		q := url.Values{}
		q.Set("year", fmt.Sprint(year))
		q.Set("month", fmt.Sprint(int(month)))
		path += "?" + q.Encode()
	}

	var view MonthView
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Refresh asks the daemon to sync now and returns the new snapshot.
func (c *Client) Refresh(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodPost, "/api/v1/refresh", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate submits today's pending count.
func (c *Client) Validate(ctx context.Context) (*ValidateResult, error) {
	var result ValidateResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/validate", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AdjustCount applies a delta to the pending count and returns the
// clamped value.
func (c *Client) AdjustCount(ctx context.Context, delta int) (int, error) {
	body := map[string]int{"delta": delta}
	var resp map[string]int
	if err := c.do(ctx, http.MethodPost, "/api/v1/count", body, &resp); err != nil {
		return 0, err
	}
	return resp["pending_count"], nil
}

// FacadeError is a non-2xx response from the daemon, carrying the
// problem detail it returned.
type FacadeError struct {
	StatusCode int
	Detail     string
}

func (e *FacadeError) Error() string {
	return fmt.Sprintf("pushupd returned %d: %s", e.StatusCode, e.Detail)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var problem struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&problem)
		return &FacadeError{StatusCode: resp.StatusCode, Detail: problem.Detail}
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
