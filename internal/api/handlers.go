// Package api exposes the daemon's state over a localhost HTTP facade.
// Presentation shells (CLI, status bars, local web UI) talk to these
// endpoints instead of linking the daemon directly.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chetana/dailypushup/internal/calendar"
	"github.com/chetana/dailypushup/internal/controller"
	"github.com/chetana/dailypushup/internal/types"
)

// StateController is the slice of the application controller the facade
// drives. Implemented by controller.Controller.
type StateController interface {
	State() controller.Snapshot
	Refresh(ctx context.Context)
	Validate(ctx context.Context)
	AdjustPushups(delta int)
	ClearError()
	ClearValidateResult()
}

// EntrySource reads cached entries for read-only endpoints.
// Implemented by store.SQLiteStore.
type EntrySource interface {
	GetAllEntries(ctx context.Context) ([]types.Entry, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	controller StateController
	entries    EntrySource
	version    string

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(ctrl StateController, entries EntrySource, version string) *Handler {
	return &Handler{
		controller: ctrl,
		entries:    entries,
		version:    version,
		now:        time.Now,
	}
}

// statusResponse is the JSON shape of GET /api/v1/status.
type statusResponse struct {
	Stats          *types.Stats          `json:"stats"`
	PendingCount   int                   `json:"pending_count"`
	Loading        bool                  `json:"loading"`
	AuthRequired   bool                  `json:"auth_required"`
	Error          string                `json:"error,omitempty"`
	ValidateResult *types.ValidateResult `json:"validate_result,omitempty"`
}

// calendarResponse is the JSON shape of GET /api/v1/calendar.
type calendarResponse struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Weeks [][]calendar.Cell `json:"weeks"`
}

// adjustRequest is the JSON body of POST /api/v1/count.
type adjustRequest struct {
	Delta int `json:"delta"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// Status handles GET /api/v1/status. Returns the current snapshot
// without triggering any network activity.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotToResponse(h.controller.State()))
}

// Entries handles GET /api/v1/entries. Returns all cached entries,
// newest first.
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.GetAllEntries(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	if entries == nil {
		entries = []types.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Calendar handles GET /api/v1/calendar?year=YYYY&month=M. Without
// parameters it renders the current month.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	m := calendar.MonthOf(now)

	q := r.URL.Query()
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil || year < 1 {
			WriteProblem(w, r, http.StatusBadRequest, "year must be a positive integer")
			return
		}
		m.Year = year
	}
	if mo := q.Get("month"); mo != "" {
		month, err := strconv.Atoi(mo)
		if err != nil || month < 1 || month > 12 {
			WriteProblem(w, r, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}
		m.Month = time.Month(month)
	}

	entries, err := h.entries.GetAllEntries(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, calendarResponse{
		Year:  m.Year,
		Month: int(m.Month),
		Weeks: calendar.Grid(m, now, entries),
	})
}

// Refresh handles POST /api/v1/refresh. Triggers a sync and returns
// the resulting snapshot; sync failures surface as problems.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.controller.Refresh(r.Context())

	state := h.controller.State()
	if h.writeStateProblem(w, r, state) {
		return
	}
	writeJSON(w, http.StatusOK, snapshotToResponse(state))
}

// Validate handles POST /api/v1/validate. Submits the pending count and
// returns the validation outcome. The one-shot result is consumed here.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	h.controller.Validate(r.Context())

	state := h.controller.State()
	if h.writeStateProblem(w, r, state) {
		return
	}
	if state.ValidateResult == nil {
		// Validate was a no-op (a refresh was already in flight).
		WriteProblem(w, r, http.StatusConflict, "A refresh is in progress; retry shortly")
		return
	}

	result := *state.ValidateResult
	h.controller.ClearValidateResult()
	writeJSON(w, http.StatusOK, result)
}

// AdjustCount handles POST /api/v1/count. Applies a delta to the
// pending count and returns the clamped value.
func (h *Handler) AdjustCount(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	h.controller.AdjustPushups(req.Delta)

	writeJSON(w, http.StatusOK, map[string]int{
		"pending_count": h.controller.State().PendingCount,
	})
}

// writeStateProblem maps a snapshot's one-shot error signals to a
// problem response. Returns true if a problem was written; the signal
// is cleared so the next request starts clean.
func (h *Handler) writeStateProblem(w http.ResponseWriter, r *http.Request, state controller.Snapshot) bool {
	if state.AuthRequired {
		WriteProblem(w, r, http.StatusUnauthorized, "Login required")
		return true
	}
	if state.Err != "" {
		h.controller.ClearError()
		WriteProblem(w, r, http.StatusBadGateway, state.Err)
		return true
	}
	return false
}

func snapshotToResponse(s controller.Snapshot) statusResponse {
	return statusResponse{
		Stats:          s.Stats,
		PendingCount:   s.PendingCount,
		Loading:        s.Loading,
		AuthRequired:   s.AuthRequired,
		Error:          s.Err,
		ValidateResult: s.ValidateResult,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
