package pushup

// Entry is one day's push-up record as served by the daemon.
type Entry struct {
	Date        string `json:"date"`
	Pushups     int    `json:"pushups"`
	Validated   bool   `json:"validated"`
	ValidatedAt string `json:"validated_at,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Stats is the aggregate view served by the daemon.
type Stats struct {
	TotalPushups   int    `json:"total_pushups"`
	TotalDays      int    `json:"total_days"`
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	TodayValidated bool   `json:"today_validated"`
	TodayTarget    int    `json:"today_target"`
	LastSyncedAt   string `json:"last_synced_at"`
}

// ValidateResult is the outcome of submitting today's session.
type ValidateResult struct {
	Validated        bool   `json:"validated"`
	AlreadyValidated bool   `json:"already_validated"`
	Date             string `json:"date"`
	Pushups          int    `json:"pushups"`
}

// Cell is one position in a calendar month grid. Pad cells outside the
// month have Day 0 and status "outside".
type Cell struct {
	Day     int    `json:"day,omitempty"`
	Date    string `json:"date,omitempty"`
	Status  string `json:"status"`
	Pushups int    `json:"pushups,omitempty"`
}

// Status mirrors the daemon's status endpoint.
type Status struct {
	Stats          *Stats          `json:"stats"`
	PendingCount   int             `json:"pending_count"`
	Loading        bool            `json:"loading"`
	AuthRequired   bool            `json:"auth_required"`
	Error          string          `json:"error,omitempty"`
	ValidateResult *ValidateResult `json:"validate_result,omitempty"`
}

// MonthView mirrors the daemon's calendar endpoint.
type MonthView struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Weeks [][]Cell `json:"weeks"`
}
