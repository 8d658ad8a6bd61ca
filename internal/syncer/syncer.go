// Package syncer orchestrates pull-from-remote and validate-then-resync.
// The remote service owns the truth for entries and streak math; the local
// store is a read-through cache replaced wholesale on every successful
// pull, which keeps sync idempotent and safe to re-run at any time.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chetana/dailypushup/internal/remote"
	"github.com/chetana/dailypushup/internal/store"
	"github.com/chetana/dailypushup/internal/types"
	"github.com/oklog/ulid/v2"
)

// Engine is the sync engine. Concurrent Sync calls coalesce onto a single
// in-flight pull; every caller receives that pull's result.
type Engine struct {
	remote remote.API
	store  store.Store
	now    func() time.Time

	mu       sync.Mutex
	inflight *inflightSync
}

type inflightSync struct {
	done chan struct{}
	err  error
}

// New creates an Engine over the given remote API and local store.
func New(api remote.API, st store.Store) *Engine {
	return &Engine{
		remote: api,
		store:  st,
		now:    time.Now,
	}
}

// Sync pulls stats and entries from the remote service and atomically
// replaces the local cache. On any failure the cache is left untouched.
// If a sync is already in flight, the call joins it instead of issuing a
// second pull.
func (e *Engine) Sync(ctx context.Context) error {
	e.mu.Lock()
	if f := e.inflight; f != nil {
		e.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := &inflightSync{done: make(chan struct{})}
	e.inflight = f
	e.mu.Unlock()

	f.err = e.sync(ctx)

	e.mu.Lock()
	e.inflight = nil
	e.mu.Unlock()
	close(f.done)

	return f.err
}

func (e *Engine) sync(ctx context.Context) error {
	syncID := ulid.Make().String()
	start := e.now()

	statsResp, err := e.remote.FetchStats(ctx)
	if err != nil {
		slog.Warn("sync failed",
			"component", "syncer",
			"action", "fetch_stats_failed",
			"sync_id", syncID,
			"error", err,
		)
		return fmt.Errorf("fetch stats: %w", err)
	}

	entriesResp, err := e.remote.FetchEntries(ctx)
	if err != nil {
		slog.Warn("sync failed",
			"component", "syncer",
			"action", "fetch_entries_failed",
			"sync_id", syncID,
			"error", err,
		)
		return fmt.Errorf("fetch entries: %w", err)
	}

	entries := make([]types.Entry, 0, len(entriesResp))
	for _, r := range entriesResp {
		entries = append(entries, r.Entry())
	}
	stats := statsResp.Stats(e.now().UTC())

	if err := e.store.ReplaceAll(ctx, stats, entries); err != nil {
		slog.Error("sync failed",
			"component", "syncer",
			"action", "replace_cache_failed",
			"sync_id", syncID,
			"error", err,
		)
		return fmt.Errorf("replace local cache: %w", err)
	}

	slog.Info("sync completed",
		"component", "syncer",
		"action", "sync_complete",
		"sync_id", syncID,
		"entries", len(entries),
		"current_streak", stats.CurrentStreak,
		"duration", e.now().Sub(start),
	)
	return nil
}

// ValidateToday submits the given count for the local wall-clock day, then
// pulls the authoritative recomputed state. The client never computes
// streaks for persistence.
//
// A resync failure after an accepted submission is logged, not returned:
// the submission itself stands on the server and any later Sync converges
// the cache.
func (e *Engine) ValidateToday(ctx context.Context, pushups int) (*types.ValidateResult, error) {
	if pushups < 0 {
		return nil, fmt.Errorf("pushup count must be non-negative, got %d", pushups)
	}

	resp, err := e.remote.SubmitValidation(ctx, pushups)
	if err != nil {
		return nil, fmt.Errorf("submit validation: %w", err)
	}

	result := &types.ValidateResult{
		Validated:        resp.Success && !resp.AlreadyValidated,
		AlreadyValidated: resp.AlreadyValidated,
		Date:             resp.Date,
		Pushups:          resp.Pushups,
	}

	// Both outcomes mean the server holds authoritative state for today,
	// so converge the cache either way.
	if resp.Success || resp.AlreadyValidated {
		if err := e.Sync(ctx); err != nil {
			slog.Warn("resync after validation failed",
				"component", "syncer",
				"action", "post_validate_sync_failed",
				"error", err,
			)
		}
	}

	return result, nil
}
