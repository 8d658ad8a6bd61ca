// Package worker contains the daemon's background loops: periodic cache
// refresh against the remote server and reminder checks.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chetana/dailypushup/internal/remote"
	"github.com/chetana/dailypushup/internal/store"
	"github.com/chetana/dailypushup/internal/types"
)

// SyncRunner triggers a cache refresh. Implemented by syncer.Engine.
type SyncRunner interface {
	Sync(ctx context.Context) error
}

// StatsReader reads the cached stats row. Implemented by store.SQLiteStore.
type StatsReader interface {
	GetStats(ctx context.Context) (*types.Stats, error)
}

// SnapshotPublisher pushes the latest stats to external consumers.
// Implemented by widget.Publisher.
type SnapshotPublisher interface {
	Publish(stats types.Stats)
}

// SyncCoordinator refreshes the local cache on a fixed interval.
type SyncCoordinator struct {
	engine    SyncRunner
	stats     StatsReader
	publisher SnapshotPublisher
	interval  time.Duration
}

// NewSyncCoordinator creates a sync coordinator.
func NewSyncCoordinator(
	engine SyncRunner,
	stats StatsReader,
	publisher SnapshotPublisher,
	interval time.Duration,
) *SyncCoordinator {
	return &SyncCoordinator{
		engine:    engine,
		stats:     stats,
		publisher: publisher,
		interval:  interval,
	}
}

// Run starts the coordinator loop. Blocks until ctx is cancelled.
//
// The first refresh happens immediately so a freshly started daemon does
// not serve day-old cache for a full interval.
func (c *SyncCoordinator) Run(ctx context.Context) {
	slog.Info("sync coordinator started",
		"component", "worker",
		"worker", "sync-coordinator",
		"interval", c.interval.String(),
	)

	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync coordinator stopped",
				"component", "worker",
				"worker", "sync-coordinator",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// refresh runs one sync cycle and publishes the resulting stats.
// Failures are logged and retried on the next tick.
func (c *SyncCoordinator) refresh(ctx context.Context) {
	start := time.Now()

	if err := c.engine.Sync(ctx); err != nil {
		switch {
		case errors.Is(err, remote.ErrUnauthorized):
			slog.Warn("sync skipped, credentials missing or rejected",
				"component", "worker",
				"worker", "sync-coordinator",
			)
		case ctx.Err() != nil:
			// Shutdown in progress, nothing to report.
		default:
			slog.Error("background sync failed",
				"component", "worker",
				"worker", "sync-coordinator",
				"error", err,
			)
		}
		return
	}

	stats, err := c.stats.GetStats(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("reading stats after sync failed",
				"component", "worker",
				"worker", "sync-coordinator",
				"error", err,
			)
		}
		return
	}

	c.publisher.Publish(*stats)

	slog.Info("background sync completed",
		"component", "worker",
		"worker", "sync-coordinator",
		"duration_ms", time.Since(start).Milliseconds(),
		"current_streak", stats.CurrentStreak,
		"today_validated", stats.TodayValidated,
	)
}
