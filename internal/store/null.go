package store

import (
	"context"
	"fmt"

	"github.com/studentorg/dashsync/internal/common"
	"github.com/studentorg/dashsync/internal/models"
)

// NullStore is the Store implementation for environments without a storage
// backend. Every operation is a no-op returning empty results, so the engine
// can run in non-interactive contexts without crashing. Unknown collection
// names are still rejected: a misconfigured caller should hear about it even
// when storage is absent.
type NullStore struct{}

func NewNullStore() *NullStore { return &NullStore{} }

func (*NullStore) Available() bool { return false }

func (*NullStore) Close() error { return nil }

func (*NullStore) Table(collection string) (Table, error) {
	if _, ok := models.Lookup(collection); !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownCollection, collection)
	}
	return nullTable{}, nil
}

func (*NullStore) LastSync(ctx context.Context, collection string) (int64, error) {
	return 0, nil
}

func (*NullStore) SetLastSync(ctx context.Context, collection string, ms int64) error {
	return nil
}

func (*NullStore) ApplySync(ctx context.Context, collection string, upserts []models.Record, deleteIDs []string, syncedAt int64) error {
	return nil
}

func (*NullStore) AppendChange(ctx context.Context, ch *models.Change) error { return nil }

func (*NullStore) PendingChanges(ctx context.Context) ([]models.Change, error) {
	return nil, nil
}

func (*NullStore) PendingChangesFor(ctx context.Context, collection, recordID string) ([]models.Change, error) {
	return nil, nil
}

func (*NullStore) MarkSynced(ctx context.Context, changeID string) error { return nil }

func (*NullStore) BumpAttempts(ctx context.Context, changeID string) error { return nil }

func (*NullStore) AllChanges(ctx context.Context) ([]models.Change, error) { return nil, nil }

func (*NullStore) ClearAll(ctx context.Context) error { return nil }

type nullTable struct{}

func (nullTable) Get(ctx context.Context, id string) (models.Record, error) {
	return nil, common.ErrNotFound
}

func (nullTable) Put(ctx context.Context, rec models.Record) error { return nil }

func (nullTable) BulkPut(ctx context.Context, recs []models.Record) error { return nil }

func (nullTable) BulkDelete(ctx context.Context, ids []string) error { return nil }

func (nullTable) All(ctx context.Context) ([]models.Record, error) { return nil, nil }

func (nullTable) Count(ctx context.Context) (int, error) { return 0, nil }
