package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentorg/dashsync/internal/common"
	"github.com/studentorg/dashsync/internal/models"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_SeedsZeroLastSync(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, c := range models.Collections() {
		ms, err := s.LastSync(ctx, c.Name)
		require.NoError(t, err)
		assert.Equal(t, int64(0), ms, c.Name)
	}
}

func TestTable_UnknownCollection(t *testing.T) {
	s := setupStore(t)

	_, err := s.Table("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnknownCollection))
}

func TestTable_PutGetAll(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tbl, err := s.Table("events")
	require.NoError(t, err)

	rec := models.Record{"id": "e1", "event_name": "Kickoff", "updated": "2026-01-10 12:00:00"}
	require.NoError(t, tbl.Put(ctx, rec))

	got, err := tbl.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Kickoff", got.GetString("event_name"))

	// upsert replaces
	rec["event_name"] = "Kickoff v2"
	require.NoError(t, tbl.Put(ctx, rec))
	got, err = tbl.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Kickoff v2", got.GetString("event_name"))

	_, err = tbl.Get(ctx, "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	all, err := tbl.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTable_PutRejectsMissingID(t *testing.T) {
	s := setupStore(t)

	tbl, err := s.Table("events")
	require.NoError(t, err)
	require.Error(t, tbl.Put(context.Background(), models.Record{"event_name": "no id"}))
}

func TestTable_BulkPutAndBulkDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tbl, err := s.Table("users")
	require.NoError(t, err)

	recs := []models.Record{
		{"id": "u1", "name": "Ada"},
		{"id": "u2", "name": "Grace"},
		{"id": "u3", "name": "Edsger"},
	}
	require.NoError(t, tbl.BulkPut(ctx, recs))

	n, err := tbl.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, tbl.BulkDelete(ctx, []string{"u1", "u3", "uX"}))
	n, err = tbl.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := tbl.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.GetString("name"))

	// empty input is a no-op, not an error
	require.NoError(t, tbl.BulkPut(ctx, nil))
	require.NoError(t, tbl.BulkDelete(ctx, nil))
}

func TestChangeQueue_Lifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ch := &models.Change{
		ID:         "c1",
		Collection: "events",
		RecordID:   "e1",
		Op:         models.OpUpdate,
		Data:       models.Record{"event_name": "Renamed"},
		Timestamp:  time.Now().UnixMilli(),
	}
	require.NoError(t, s.AppendChange(ctx, ch))

	pending, err := s.PendingChanges(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "c1", pending[0].ID)
	assert.Equal(t, models.OpUpdate, pending[0].Op)
	assert.Equal(t, "Renamed", pending[0].Data.GetString("event_name"))
	assert.False(t, pending[0].Synced)
	assert.Equal(t, 0, pending[0].SyncAttempts)

	forRec, err := s.PendingChangesFor(ctx, "events", "e1")
	require.NoError(t, err)
	assert.Len(t, forRec, 1)

	forOther, err := s.PendingChangesFor(ctx, "events", "e2")
	require.NoError(t, err)
	assert.Empty(t, forOther)

	// failed replay: attempts visible, still pending
	require.NoError(t, s.BumpAttempts(ctx, "c1"))
	pending, err = s.PendingChanges(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].SyncAttempts)

	// successful replay: synced flips and attempts bump once more
	require.NoError(t, s.MarkSynced(ctx, "c1"))
	pending, err = s.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := s.AllChanges(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Synced)
	assert.Equal(t, 2, all[0].SyncAttempts)
}

func TestChangeQueue_DeleteHasNoData(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ch := &models.Change{
		ID:         "c2",
		Collection: "events",
		RecordID:   "e9",
		Op:         models.OpDelete,
		Timestamp:  time.Now().UnixMilli(),
	}
	require.NoError(t, s.AppendChange(ctx, ch))

	pending, err := s.PendingChanges(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Nil(t, pending[0].Data)
}

func TestMarkSynced_UnknownChange(t *testing.T) {
	s := setupStore(t)

	err := s.MarkSynced(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestClearAll_EmptiesTablesAndResetsMeta(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tbl, err := s.Table("events")
	require.NoError(t, err)
	require.NoError(t, tbl.Put(ctx, models.Record{"id": "e1"}))
	require.NoError(t, s.SetLastSync(ctx, "events", time.Now().UnixMilli()))
	require.NoError(t, s.AppendChange(ctx, &models.Change{
		ID: "c1", Collection: "events", RecordID: "e1", Op: models.OpDelete,
		Timestamp: time.Now().UnixMilli(),
	}))

	require.NoError(t, s.ClearAll(ctx))

	n, err := tbl.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ms, err := s.LastSync(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ms)

	all, err := s.AllChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
