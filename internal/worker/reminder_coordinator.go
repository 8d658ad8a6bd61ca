package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chetana/dailypushup/internal/notify"
	"github.com/chetana/dailypushup/internal/store"
)

// ReminderCoordinator nudges the user when today's session is still
// pending. Checks run on a fixed interval and are suppressed during
// early-morning quiet hours, when no stats have ever been synced, or
// when today is already validated.
type ReminderCoordinator struct {
	stats       StatsReader
	notifier    notify.Notifier
	interval    time.Duration
	quietBefore int

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewReminderCoordinator creates a reminder coordinator. quietBefore is
// the local hour before which reminders are suppressed.
func NewReminderCoordinator(
	stats StatsReader,
	notifier notify.Notifier,
	interval time.Duration,
	quietBefore int,
) *ReminderCoordinator {
	return &ReminderCoordinator{
		stats:       stats,
		notifier:    notifier,
		interval:    interval,
		quietBefore: quietBefore,
		now:         time.Now,
	}
}

// Run starts the coordinator loop. Blocks until ctx is cancelled.
//
// Unlike the sync coordinator there is no immediate first check; a
// reminder seconds after daemon start would be noise.
func (c *ReminderCoordinator) Run(ctx context.Context) {
	slog.Info("reminder coordinator started",
		"component", "worker",
		"worker", "reminder-coordinator",
		"interval", c.interval.String(),
		"quiet_before_hour", c.quietBefore,
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reminder coordinator stopped",
				"component", "worker",
				"worker", "reminder-coordinator",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

// check runs one reminder evaluation.
func (c *ReminderCoordinator) check(ctx context.Context) {
	fired, reason := c.evaluate(ctx)
	if !fired {
		slog.Debug("reminder suppressed",
			"component", "worker",
			"worker", "reminder-coordinator",
			"reason", reason,
		)
		return
	}

	stats, err := c.stats.GetStats(ctx)
	if err != nil {
		return
	}

	title := "Push-up reminder"
	body := fmt.Sprintf("Today's %d push-ups are still pending. Current streak: %d days.",
		stats.TodayTarget, stats.CurrentStreak)

	if err := c.notifier.Notify(ctx, title, body); err != nil {
		slog.Warn("delivering reminder failed",
			"component", "worker",
			"worker", "reminder-coordinator",
			"error", err,
		)
		return
	}

	slog.Info("reminder delivered",
		"component", "worker",
		"worker", "reminder-coordinator",
		"today_target", stats.TodayTarget,
	)
}

// evaluate decides whether a reminder should fire. Returns the
// suppression reason when it should not.
func (c *ReminderCoordinator) evaluate(ctx context.Context) (bool, string) {
	if c.now().Hour() < c.quietBefore {
		return false, "quiet_hours"
	}

	stats, err := c.stats.GetStats(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, "never_synced"
		}
		slog.Error("reading stats for reminder failed",
			"component", "worker",
			"worker", "reminder-coordinator",
			"error", err,
		)
		return false, "stats_unavailable"
	}

	if stats.TodayValidated {
		return false, "already_validated"
	}

	return true, ""
}
