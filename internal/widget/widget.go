// Package widget publishes a small status snapshot for external
// consumers, such as a status bar segment or desktop widget.
package widget

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chetana/dailypushup/internal/types"
)

// Snapshot is the JSON document written for widget consumers.
type Snapshot struct {
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	TotalPushups   int    `json:"total_pushups"`
	TodayValidated bool   `json:"today_validated"`
	TodayTarget    int    `json:"today_target"`
	UpdatedAt      string `json:"updated_at"`
}

// Publisher writes widget snapshots. Publishing is best effort; the
// daemon never fails a sync because the widget file could not be written.
type Publisher struct {
	path   string
	logger *slog.Logger
}

// NewPublisher creates a widget publisher targeting the given path.
// An empty path disables publishing.
func NewPublisher(path string, logger *slog.Logger) *Publisher {
	return &Publisher{
		path:   path,
		logger: logger.With("component", "widget"),
	}
}

// Publish writes the current stats to the widget file. The write goes
// through a temp file and rename so consumers never observe a torn read.
func (p *Publisher) Publish(stats types.Stats) {
	if p.path == "" {
		return
	}

	snap := Snapshot{
		CurrentStreak:  stats.CurrentStreak,
		LongestStreak:  stats.LongestStreak,
		TotalPushups:   stats.TotalPushups,
		TodayValidated: stats.TodayValidated,
		TodayTarget:    stats.TodayTarget,
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		p.logger.Warn("marshaling widget snapshot failed", "action", "publish", "error", err)
		return
	}

	tmp := p.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		p.logger.Warn("creating widget directory failed", "action", "publish", "error", err)
		return
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		p.logger.Warn("writing widget snapshot failed", "action", "publish", "error", err)
		return
	}
	if err := os.Rename(tmp, p.path); err != nil {
		p.logger.Warn("replacing widget snapshot failed", "action", "publish", "error", err)
		return
	}

	p.logger.Debug("widget snapshot published",
		"action", "publish",
		"path", p.path,
		"current_streak", stats.CurrentStreak,
		"today_validated", stats.TodayValidated)
}
