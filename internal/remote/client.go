// Package remote implements the typed client for the push-up API. The
// server is the source of truth for entries and streak math; this client
// only fetches snapshots and submits validations.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chetana/dailypushup/internal/token"
	"github.com/chetana/dailypushup/internal/types"
)

// API defines the remote operations the sync engine depends on.
// Implemented by *Client; fakes implement it in tests.
type API interface {
	FetchStats(ctx context.Context) (*types.StatsResponse, error)
	FetchEntries(ctx context.Context) ([]types.EntryResponse, error)
	SubmitValidation(ctx context.Context, pushups int) (*types.ValidateResponse, error)
}

var _ API = (*Client)(nil)

// TokenSource supplies the bearer credential for each request and is told
// when the server rejects it.
type TokenSource interface {
	Token() (string, error)
	Invalidate()
}

const (
	statsPath    = "/api/health/stats"
	entriesPath  = "/api/health/entries"
	validatePath = "/api/health/validate"

	defaultUserAgent = "dailypushup/0.1"
	requestTimeout   = 15 * time.Second
)

// Client talks to the push-up HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string, tokens TokenSource) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("server URL is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server URL %q: %w", baseURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		tokens:    tokens,
		userAgent: defaultUserAgent,
	}, nil
}

// FetchStats retrieves the server-computed aggregate snapshot.
func (c *Client) FetchStats(ctx context.Context) (*types.StatsResponse, error) {
	var payload types.StatsResponse
	if err := c.do(ctx, http.MethodGet, statsPath, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchEntries retrieves the full entry history.
func (c *Client) FetchEntries(ctx context.Context) ([]types.EntryResponse, error) {
	var payload []types.EntryResponse
	if err := c.do(ctx, http.MethodGet, entriesPath, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SubmitValidation records today's count. Idempotent per date on the
// server side: a second submission for the same day reports
// alreadyValidated instead of double-counting.
func (c *Client) SubmitValidation(ctx context.Context, pushups int) (*types.ValidateResponse, error) {
	if pushups < 0 {
		return nil, fmt.Errorf("pushup count must be non-negative, got %d", pushups)
	}
	var payload types.ValidateResponse
	body := types.ValidateRequest{Pushups: pushups}
	if err := c.do(ctx, http.MethodPost, validatePath, &body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: c.baseURL.Path + path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tok, err := c.tokens.Token()
	if err != nil {
		if errors.Is(err, token.ErrNotLoggedIn) {
			return fmt.Errorf("%w: no credential stored", ErrUnauthorized)
		}
		return fmt.Errorf("load credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Clear the credential so the app re-triggers sign-in.
		c.tokens.Invalidate()
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Op: method + " " + path, Code: resp.StatusCode}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
