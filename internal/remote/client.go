// Package remote is the accessor for the backing PocketBase instance. The
// sync engine only ever sees the Client interface; the real implementation
// talks PocketBase's REST API over HTTPS and hides pagination, so callers
// always reason in terms of the complete matching result set.
package remote

import (
	"context"

	"github.com/studentorg/dashsync/internal/models"
)

// ListOptions narrows a ListAll call. Filter and Sort use PocketBase's query
// syntax; Expand names relations to inline.
type ListOptions struct {
	Filter string
	Sort   string
	Expand string
}

// Client is the boundary to the remote store.
type Client interface {
	// ListAll returns the complete result set matching opts, fetching as
	// many pages as needed.
	ListAll(ctx context.Context, collection string, opts ListOptions) ([]models.Record, error)

	// GetOne returns a single record, or common.ErrNotFound.
	GetOne(ctx context.Context, collection, id string) (models.Record, error)

	// Create inserts a record and returns the server copy.
	Create(ctx context.Context, collection string, fields models.Record) (models.Record, error)

	// UpdateFields patches the given fields on a record and returns the
	// server copy.
	UpdateFields(ctx context.Context, collection, id string, fields models.Record) (models.Record, error)

	// Delete removes a record.
	Delete(ctx context.Context, collection, id string) error

	// IsAuthenticated reports whether a usable session token is present.
	// Used as a hard gate before any sync.
	IsAuthenticated() bool

	// Ping probes the server's health endpoint.
	Ping(ctx context.Context) error
}
