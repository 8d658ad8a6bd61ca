// Package types defines the core data model shared by the store, the sync
// engine and the presentation-facing controller.
package types

import "time"

// DateFormat is the canonical calendar-day key format (YYYY-MM-DD).
const DateFormat = "2006-01-02"

// Day formats a time as a canonical calendar-day key in its location.
func Day(t time.Time) string {
	return t.Format(DateFormat)
}

// Entry is one calendar day's push-up record. Date is the unique key;
// entries are immutable once synced and only ever replaced wholesale.
type Entry struct {
	Date        string `json:"date"`
	Pushups     int    `json:"pushups"`
	Validated   bool   `json:"validated"`
	ValidatedAt string `json:"validated_at,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Stats is the cached snapshot of server-computed aggregates. A single
// row, replaced wholesale on every successful sync.
type Stats struct {
	TotalPushups   int       `json:"total_pushups"`
	TotalDays      int       `json:"total_days"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	TodayValidated bool      `json:"today_validated"`
	TodayTarget    int       `json:"today_target"`
	LastSyncedAt   time.Time `json:"last_synced_at"`
}

// ValidateResult is the semantic outcome of submitting today's count.
// AlreadyValidated means the server had already recorded today; it is a
// distinct outcome, not a fresh validation.
type ValidateResult struct {
	Validated        bool   `json:"validated"`
	AlreadyValidated bool   `json:"already_validated"`
	Date             string `json:"date,omitempty"`
	Pushups          int    `json:"pushups,omitempty"`
}

// Wire types for the remote API.

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	TotalPushups   int  `json:"totalPushups"`
	TotalDays      int  `json:"totalDays"`
	CurrentStreak  int  `json:"currentStreak"`
	LongestStreak  int  `json:"longestStreak"`
	TodayValidated bool `json:"todayValidated"`
	TodayTarget    int  `json:"todayTarget"`
}

// EntryResponse is one element of the GET /entries body.
type EntryResponse struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	Pushups     int    `json:"pushups"`
	Validated   bool   `json:"validated"`
	ValidatedAt string `json:"validatedAt,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	Pushups int `json:"pushups"`
}

// ValidateResponse is the body of POST /validate. The server is
// authoritative: validating twice for the same date never double-counts.
type ValidateResponse struct {
	Success          bool   `json:"success"`
	AlreadyValidated bool   `json:"alreadyValidated,omitempty"`
	Date             string `json:"date,omitempty"`
	Pushups          int    `json:"pushups,omitempty"`
}

// Entry converts a wire entry into its stored form.
func (r EntryResponse) Entry() Entry {
	return Entry{
		Date:        r.Date,
		Pushups:     r.Pushups,
		Validated:   r.Validated,
		ValidatedAt: r.ValidatedAt,
		CreatedAt:   r.CreatedAt,
	}
}

// Stats converts a wire stats snapshot into its stored form.
func (r StatsResponse) Stats(syncedAt time.Time) Stats {
	return Stats{
		TotalPushups:   r.TotalPushups,
		TotalDays:      r.TotalDays,
		CurrentStreak:  r.CurrentStreak,
		LongestStreak:  r.LongestStreak,
		TodayValidated: r.TodayValidated,
		TodayTarget:    r.TodayTarget,
		LastSyncedAt:   syncedAt,
	}
}
