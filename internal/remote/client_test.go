package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chetana/dailypushup/internal/token"
	"github.com/chetana/dailypushup/internal/types"
)

type staticTokens struct {
	token       string
	invalidated bool
}

func (s *staticTokens) Token() (string, error) {
	if s.token == "" {
		return "", token.ErrNotLoggedIn
	}
	return s.token, nil
}

func (s *staticTokens) Invalidate() {
	s.token = ""
	s.invalidated = true
}

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, tokens)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClient_FetchStats(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health/stats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(types.StatsResponse{
			TotalPushups:  1200,
			TotalDays:     40,
			CurrentStreak: 7,
			LongestStreak: 21,
			TodayTarget:   30,
		})
	})

	c := newTestClient(t, handler, &staticTokens{token: "tok-123"})
	stats, err := c.FetchStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.CurrentStreak != 7 || stats.TotalPushups != 1200 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestClient_FetchEntries(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health/entries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]types.EntryResponse{
			{Date: "2024-06-15", Pushups: 40, Validated: true},
			{Date: "2024-06-14", Pushups: 30, Validated: true},
		})
	})

	c := newTestClient(t, handler, &staticTokens{token: "tok"})
	entries, err := c.FetchEntries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Date != "2024-06-15" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestClient_SubmitValidation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/health/validate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req types.ValidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Pushups != 40 {
			t.Errorf("pushups = %d, want 40", req.Pushups)
		}
		json.NewEncoder(w).Encode(types.ValidateResponse{Success: true, Date: "2024-06-15", Pushups: 40})
	})

	c := newTestClient(t, handler, &staticTokens{token: "tok"})
	resp, err := c.SubmitValidation(context.Background(), 40)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Pushups != 40 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_SubmitValidation_NegativeCount(t *testing.T) {
	c, err := NewClient("https://example.com", &staticTokens{token: "tok"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SubmitValidation(context.Background(), -1); err == nil {
		t.Error("expected error for negative count")
	}
}

func TestClient_Unauthorized_InvalidatesCredential(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	tokens := &staticTokens{token: "stale"}
	c := newTestClient(t, handler, tokens)

	_, err := c.FetchStats(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !tokens.invalidated {
		t.Error("credential not invalidated on 401")
	}

	var transport *TransportError
	if errors.As(err, &transport) {
		t.Error("401 must not classify as a transport error")
	}
}

func TestClient_NotLoggedIn(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	c := newTestClient(t, handler, &staticTokens{})
	_, err := c.FetchStats(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without credential, got %v", err)
	}
	if called {
		t.Error("request must not be sent without a credential")
	}
}

func TestClient_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := newTestClient(t, handler, &staticTokens{token: "tok"})
	_, err := c.FetchEntries(context.Background())

	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("5xx must not classify as auth failure")
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	// Port 0 never accepts; the dial fails immediately.
	c, err := NewClient("http://127.0.0.1:0", &staticTokens{token: "tok"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.FetchStats(context.Background())
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestNewClient_SchemeDefault(t *testing.T) {
	c, err := NewClient("chetana.dev", &staticTokens{})
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL.Scheme != "https" {
		t.Errorf("scheme = %q, want https", c.baseURL.Scheme)
	}
}
