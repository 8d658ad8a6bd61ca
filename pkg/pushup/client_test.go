package pushup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newFakeDaemon(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestStatus(t *testing.T) {
	client := newFakeDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/status" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Status{
			Stats:        &Stats{CurrentStreak: 12, TodayValidated: true},
			PendingCount: 30,
		})
	})

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Stats == nil || status.Stats.CurrentStreak != 12 {
		t.Errorf("unexpected stats: %+v", status.Stats)
	}
	if status.PendingCount != 30 {
		t.Errorf("expected pending count 30, got %d", status.PendingCount)
	}
}

func TestCalendarSendsMonthQuery(t *testing.T) {
	client := newFakeDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("year"); got != "2024" {
			t.Errorf("expected year 2024, got %q", got)
		}
		if got := r.URL.Query().Get("month"); got != "6" {
			t.Errorf("expected month 6, got %q", got)
		}
		json.NewEncoder(w).Encode(MonthView{Year: 2024, Month: 6})
	})

	view, err := client.Calendar(context.Background(), 2024, time.June)
	if err != nil {
		t.Fatalf("Calendar failed: %v", err)
	}
	if view.Year != 2024 || view.Month != 6 {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestAdjustCount(t *testing.T) {
	client := newFakeDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if body["delta"] != -5 {
			t.Errorf("expected delta -5, got %d", body["delta"])
		}
		json.NewEncoder(w).Encode(map[string]int{"pending_count": 25})
	})

	count, err := client.AdjustCount(context.Background(), -5)
	if err != nil {
		t.Fatalf("AdjustCount failed: %v", err)
	}
	if count != 25 {
		t.Errorf("expected 25, got %d", count)
	}
}

func TestProblemSurfacesAsFacadeError(t *testing.T) {
	client := newFakeDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"status": 401,
			"detail": "Login required",
		})
	})

	_, err := client.Validate(context.Background())
	var facadeErr *FacadeError
	if !errors.As(err, &facadeErr) {
		t.Fatalf("expected FacadeError, got %v", err)
	}
	if facadeErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", facadeErr.StatusCode)
	}
	if facadeErr.Detail != "Login required" {
		t.Errorf("expected detail, got %q", facadeErr.Detail)
	}
}

func TestDaemonDownIsDistinctError(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := client.Status(context.Background())
	if !errors.Is(err, ErrDaemonUnavailable) {
		t.Errorf("expected ErrDaemonUnavailable, got %v", err)
	}
}
