package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentorg/dashsync/internal/common"
	"github.com/studentorg/dashsync/internal/models"
)

func TestNullStore_EverythingIsANoOp(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()

	assert.False(t, s.Available())

	tbl, err := s.Table("events")
	require.NoError(t, err)

	require.NoError(t, tbl.Put(ctx, models.Record{"id": "e1"}))
	_, err = tbl.Get(ctx, "e1")
	assert.True(t, errors.Is(err, common.ErrNotFound), "null table never holds data")

	all, err := tbl.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	ms, err := s.LastSync(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ms)

	require.NoError(t, s.AppendChange(ctx, &models.Change{ID: "c1"}))
	pending, err := s.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.ClearAll(ctx))
	require.NoError(t, s.Close())
}

func TestNullStore_StillRejectsUnknownCollections(t *testing.T) {
	s := NewNullStore()

	_, err := s.Table("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnknownCollection))
}
