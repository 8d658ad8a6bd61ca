// Package controller exposes observable application state to presentation
// shells and mediates user intents into sync-engine calls. It owns only
// transient state (pending count, loading flag, one-shot results); durable
// data lives in the store.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chetana/dailypushup/internal/calendar"
	"github.com/chetana/dailypushup/internal/remote"
	"github.com/chetana/dailypushup/internal/store"
	"github.com/chetana/dailypushup/internal/types"
)

// DefaultPendingCount is the stepper's starting value.
const DefaultPendingCount = 30

// SyncEngine is the slice of the sync engine the controller drives.
type SyncEngine interface {
	Sync(ctx context.Context) error
	ValidateToday(ctx context.Context, pushups int) (*types.ValidateResult, error)
}

// Snapshot is one consistent view of the observable state. Err and
// ValidateResult are one-shot signals: consumers surface them once and
// call the matching Clear method.
type Snapshot struct {
	Stats          *types.Stats
	Entries        []types.Entry
	Loading        bool
	PendingCount   int
	ValidateResult *types.ValidateResult
	Err            string
	AuthRequired   bool
}

// Controller mediates between user intents and the sync engine, and fans
// state changes out to subscribers.
type Controller struct {
	engine SyncEngine
	store  store.Store

	// now is injected for tests; defaults to time.Now.
	now func() time.Time

	mu       sync.Mutex
	state    Snapshot
	watchers map[int]chan Snapshot
	nextID   int
}

// New creates a Controller. Call Refresh to populate it.
func New(engine SyncEngine, st store.Store) *Controller {
	return &Controller{
		engine: engine,
		store:  st,
		now:    time.Now,
		state: Snapshot{
			PendingCount: DefaultPendingCount,
		},
		watchers: make(map[int]chan Snapshot),
	}
}

// State returns a copy of the current snapshot.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSnapshot(c.state)
}

// Subscribe returns a channel receiving a snapshot after every state
// change, plus a cancel function. Slow consumers lose the oldest snapshot;
// the producer never blocks.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan Snapshot, buffer)
	c.watchers[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if w, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(w)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// Refresh syncs from the remote service and reloads the snapshot from the
// local cache. Sync failures surface through the error signal; the cached
// data stays visible either way.
func (c *Controller) Refresh(ctx context.Context) {
	c.update(func(s *Snapshot) { s.Loading = true })

	err := c.engine.Sync(ctx)

	stats, entries := c.loadCache(ctx)
	c.update(func(s *Snapshot) {
		s.Loading = false
		s.Stats = stats
		s.Entries = entries
		applyError(s, err)
	})
}

// AdjustPushups moves the pending count by delta, floored at zero. It is a
// no-op once today is validated or while a submission is in flight.
func (c *Controller) AdjustPushups(delta int) {
	c.update(func(s *Snapshot) {
		if s.Loading || (s.Stats != nil && s.Stats.TodayValidated) {
			return
		}
		s.PendingCount += delta
		if s.PendingCount < 0 {
			s.PendingCount = 0
		}
	})
}

// Validate submits the pending count for today and reloads the snapshot
// from the cache the engine resynced.
func (c *Controller) Validate(ctx context.Context) {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return
	}
	count := c.state.PendingCount
	c.mu.Unlock()

	c.update(func(s *Snapshot) { s.Loading = true })

	result, err := c.engine.ValidateToday(ctx, count)

	stats, entries := c.loadCache(ctx)
	c.update(func(s *Snapshot) {
		s.Loading = false
		s.Stats = stats
		s.Entries = entries
		applyError(s, err)
		if err == nil {
			s.ValidateResult = result
		}
	})
}

// ClearError acknowledges the one-shot error signal.
func (c *Controller) ClearError() {
	c.update(func(s *Snapshot) {
		s.Err = ""
		s.AuthRequired = false
	})
}

// ClearValidateResult acknowledges the one-shot validate outcome.
func (c *Controller) ClearValidateResult() {
	c.update(func(s *Snapshot) { s.ValidateResult = nil })
}

// applyError routes a failure into the snapshot. Auth failures raise the
// re-authentication signal instead of a user-visible message; a
// successful round trip retires any earlier auth signal, so a re-login
// recovers the session without a restart.
func applyError(s *Snapshot, err error) {
	if err == nil {
		s.AuthRequired = false
		return
	}
	if errors.Is(err, remote.ErrUnauthorized) {
		s.AuthRequired = true
		return
	}
	s.Err = err.Error()
}

// loadCache reads the current stats and entries, tolerating a never-synced
// store. Read failures are logged; the previous view stays in place.
func (c *Controller) loadCache(ctx context.Context) (*types.Stats, []types.Entry) {
	stats, err := c.store.GetStats(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("load cached stats failed",
			"component", "controller",
			"action", "load_cache_failed",
			"error", err,
		)
		cur := c.State()
		return cur.Stats, cur.Entries
	}

	entries, err := c.store.GetAllEntries(ctx)
	if err != nil {
		slog.Error("load cached entries failed",
			"component", "controller",
			"action", "load_cache_failed",
			"error", err,
		)
		cur := c.State()
		return cur.Stats, cur.Entries
	}

	// Server aggregates take precedence; when none were ever synced but
	// entries exist, project stats locally so the view is never blank.
	if stats == nil && len(entries) > 0 {
		derived := calendar.DeriveStats(entries, c.now())
		stats = &derived
	}

	return stats, entries
}

func (c *Controller) update(fn func(*Snapshot)) {
	c.mu.Lock()
	fn(&c.state)
	snap := cloneSnapshot(c.state)
	for _, ch := range c.watchers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	c.mu.Unlock()
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	if s.Stats != nil {
		stats := *s.Stats
		out.Stats = &stats
	}
	if s.ValidateResult != nil {
		result := *s.ValidateResult
		out.ValidateResult = &result
	}
	if len(s.Entries) > 0 {
		out.Entries = append([]types.Entry(nil), s.Entries...)
	}
	return out
}
