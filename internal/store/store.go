package store

import (
	"context"

	"github.com/chetana/dailypushup/internal/types"
)

// Store defines the contract for the durable local cache: the entry table
// keyed by date plus the singleton cached-stats row. The sync engine is the
// only writer; readers never mutate.
type Store interface {
	UpsertEntries(ctx context.Context, entries []types.Entry) error
	ReplaceAll(ctx context.Context, stats types.Stats, entries []types.Entry) error
	GetAllEntries(ctx context.Context) ([]types.Entry, error)
	GetEntry(ctx context.Context, date string) (*types.Entry, error)
	ClearAll(ctx context.Context) error
	UpsertStats(ctx context.Context, stats types.Stats) error
	GetStats(ctx context.Context) (*types.Stats, error)
	WatchStats(buffer int) (<-chan types.Stats, func())
	Close() error
}
