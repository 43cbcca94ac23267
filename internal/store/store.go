// Package store is the local replica: durable, queryable storage for
// replicated records, per-collection sync metadata, and the offline-change
// queue.
//
// Store is a capability interface with two implementations chosen at
// construction time: SQLiteStore when a storage backend is available, and
// NullStore for environments without one (every operation a documented no-op
// returning empty results). Runtime capability branching never leaks into the
// engine code.
package store

import (
	"context"

	"github.com/studentorg/dashsync/internal/models"
)

// Table is one collection's replica table, keyed by record id.
type Table interface {
	// Get returns the record with the given id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (models.Record, error)

	// Put upserts a single record by id.
	Put(ctx context.Context, rec models.Record) error

	// BulkPut upserts all records in one transaction.
	BulkPut(ctx context.Context, recs []models.Record) error

	// BulkDelete removes the given ids in one transaction. Missing ids are
	// not an error.
	BulkDelete(ctx context.Context, ids []string) error

	// All returns the full table contents.
	All(ctx context.Context) ([]models.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// Store owns the replica tables, the sync metadata, and the offline-change
// queue. Only the sync engine writes metadata; only the offline queue writes
// change rows.
type Store interface {
	// Available reports whether a real storage backend is present. The
	// engine treats false as "silently serve nothing".
	Available() bool

	// Table routes a collection name to its replica table. Unknown names
	// yield common.ErrUnknownCollection: a configuration error the caller
	// logs and short-circuits, never a panic.
	Table(collection string) (Table, error)

	// LastSync returns the collection's last successful pull time in epoch
	// millis, 0 meaning "never synced".
	LastSync(ctx context.Context, collection string) (int64, error)

	// SetLastSync records a successful pull.
	SetLastSync(ctx context.Context, collection string, ms int64) error

	// ApplySync persists one reconciled pull in a single transaction: bulk
	// upsert of the merged records, the computed deletions, and the new
	// last-sync timestamp. A failed sync must leave the pre-sync snapshot
	// intact, so partial application is never visible.
	ApplySync(ctx context.Context, collection string, upserts []models.Record, deleteIDs []string, syncedAt int64) error

	// AppendChange adds an offline change row (Synced=false).
	AppendChange(ctx context.Context, ch *models.Change) error

	// PendingChanges returns every change with Synced=false, oldest first.
	PendingChanges(ctx context.Context) ([]models.Change, error)

	// PendingChangesFor returns unsynced changes for one record, oldest
	// first.
	PendingChangesFor(ctx context.Context, collection, recordID string) ([]models.Change, error)

	// MarkSynced flips a change to Synced=true and bumps its attempt count.
	MarkSynced(ctx context.Context, changeID string) error

	// BumpAttempts increments a change's attempt count without flipping
	// Synced, making repeated replay failures visible.
	BumpAttempts(ctx context.Context, changeID string) error

	// AllChanges returns the whole queue, synced rows included, for status
	// reporting.
	AllChanges(ctx context.Context) ([]models.Change, error)

	// ClearAll empties every replica table and the queue, and resets every
	// collection's last-sync to 0, in a single transaction. Used on logout.
	// Callers must not run syncs concurrently with a clear.
	ClearAll(ctx context.Context) error

	// Close releases the underlying backend.
	Close() error
}
