// Package store implements the durable local cache on SQLite. The schema
// mirrors the remote API's truth: a pushup_entries table keyed by date and
// a single cached_stats row that is replaced wholesale on every sync.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chetana/dailypushup/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the SQLite-backed local cache.
type SQLiteStore struct {
	db *sql.DB

	mu       sync.Mutex
	watchers map[int]chan types.Stats
	nextID   int
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the cache database at dbPath.
// It enables WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:       db,
		watchers: make(map[int]chan types.Stats),
	}, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection and all stats watchers.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	for id, ch := range s.watchers {
		close(ch)
		delete(s.watchers, id)
	}
	s.mu.Unlock()
	return s.db.Close()
}

// UpsertEntries inserts or replaces the given entries in a single
// transaction. The batch is all-or-nothing.
func (s *SQLiteStore) UpsertEntries(ctx context.Context, entries []types.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertEntriesTx(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReplaceAll atomically replaces the full entry set and the stats row in
// one transaction. A concurrent reader observes either the fully-old or
// fully-new cache, never a partial mix.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, stats types.Stats, entries []types.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pushup_entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if err := upsertEntriesTx(ctx, tx, entries); err != nil {
		return err
	}
	if err := upsertStatsTx(ctx, tx, stats); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.notifyStats(stats)
	return nil
}

func upsertEntriesTx(ctx context.Context, tx *sql.Tx, entries []types.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO pushup_entries (date, pushups, validated, validated_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err = stmt.ExecContext(ctx,
			e.Date,
			e.Pushups,
			boolToInt(e.Validated),
			nullString(e.ValidatedAt),
			nullString(e.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Date, err)
		}
	}
	return nil
}

// GetAllEntries returns all cached entries ordered by date descending.
func (s *SQLiteStore) GetAllEntries(ctx context.Context) ([]types.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, pushups, validated, validated_at, created_at
		FROM pushup_entries
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []types.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// GetEntry returns the entry for the given date, or ErrNotFound.
func (s *SQLiteStore) GetEntry(ctx context.Context, date string) (*types.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT date, pushups, validated, validated_at, created_at
		FROM pushup_entries
		WHERE date = ?
	`, date)

	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return entry, nil
}

// ClearAll deletes every cached entry and the stats row.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pushup_entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cached_stats"); err != nil {
		return fmt.Errorf("clear stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpsertStats replaces the singleton stats row.
func (s *SQLiteStore) UpsertStats(ctx context.Context, stats types.Stats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertStatsTx(ctx, tx, stats); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.notifyStats(stats)
	return nil
}

func upsertStatsTx(ctx context.Context, tx *sql.Tx, stats types.Stats) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO cached_stats
			(id, total_pushups, total_days, current_streak, longest_streak, today_validated, today_target, last_synced_at)
		VALUES (0, ?, ?, ?, ?, ?, ?, ?)
	`,
		stats.TotalPushups,
		stats.TotalDays,
		stats.CurrentStreak,
		stats.LongestStreak,
		boolToInt(stats.TodayValidated),
		stats.TodayTarget,
		stats.LastSyncedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}

// GetStats returns the cached stats snapshot, or ErrNotFound when the
// store has never been synced.
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.Stats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT total_pushups, total_days, current_streak, longest_streak, today_validated, today_target, last_synced_at
		FROM cached_stats
		WHERE id = 0
	`)

	var stats types.Stats
	var validated int
	var syncedAt string
	err := row.Scan(
		&stats.TotalPushups,
		&stats.TotalDays,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&validated,
		&stats.TodayTarget,
		&syncedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan stats: %w", err)
	}

	stats.TodayValidated = validated != 0
	t, err := time.Parse(time.RFC3339, syncedAt)
	if err != nil {
		return nil, fmt.Errorf("parse last_synced_at: %w", err)
	}
	stats.LastSyncedAt = t

	return &stats, nil
}

// WatchStats returns a channel that receives the stats snapshot after
// every stats write, plus a cancel function. Slow consumers lose the
// oldest value; the writer never blocks.
func (s *SQLiteStore) WatchStats(buffer int) (<-chan types.Stats, func()) {
	if buffer < 1 {
		buffer = 1
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan types.Stats, buffer)
	s.watchers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if w, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *SQLiteStore) notifyStats(stats types.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- stats:
		default:
			// Full buffer: drop the oldest value, then try once more.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- stats:
			default:
			}
		}
	}
}

// scanEntry scans a row into an Entry, handling nullable timestamps.
func scanEntry(scanner interface{ Scan(...any) error }) (*types.Entry, error) {
	var entry types.Entry
	var validated int
	var validatedAt, createdAt sql.NullString

	err := scanner.Scan(
		&entry.Date,
		&entry.Pushups,
		&validated,
		&validatedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Validated = validated != 0
	if validatedAt.Valid {
		entry.ValidatedAt = validatedAt.String
	}
	if createdAt.Valid {
		entry.CreatedAt = createdAt.String
	}

	return &entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
