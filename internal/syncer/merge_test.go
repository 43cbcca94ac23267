package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentorg/dashsync/internal/models"
)

func eventsCollection(t *testing.T) models.Collection {
	t.Helper()
	c, ok := models.Lookup("events")
	require.True(t, ok)
	return c
}

func TestMergeChanges_NoChangesTakesRemoteVerbatim(t *testing.T) {
	remoteRec := models.Record{"id": "e1", "event_name": "Kickoff"}

	merged, deleted := mergeChanges(eventsCollection(t), remoteRec, nil)

	assert.False(t, deleted)
	assert.Equal(t, remoteRec, merged)
}

func TestMergeChanges_PatchOverwritesFieldByField(t *testing.T) {
	remoteRec := models.Record{"id": "e1", "event_name": "Server", "location": "ENG 101"}
	changes := []models.Change{
		{Op: models.OpUpdate, Data: models.Record{"event_name": "Local"}},
	}

	merged, deleted := mergeChanges(eventsCollection(t), remoteRec, changes)

	assert.False(t, deleted)
	assert.Equal(t, "Local", merged.GetString("event_name"))
	assert.Equal(t, "ENG 101", merged.GetString("location"))
	// the input record is untouched
	assert.Equal(t, "Server", remoteRec.GetString("event_name"))
}

func TestMergeChanges_LaterChangesWin(t *testing.T) {
	remoteRec := models.Record{"id": "e1", "event_name": "Server"}
	changes := []models.Change{
		{Op: models.OpUpdate, Data: models.Record{"event_name": "First"}},
		{Op: models.OpUpdate, Data: models.Record{"event_name": "Second"}},
	}

	merged, _ := mergeChanges(eventsCollection(t), remoteRec, changes)
	assert.Equal(t, "Second", merged.GetString("event_name"))
}

func TestMergeChanges_SyncedChangesAreIgnored(t *testing.T) {
	remoteRec := models.Record{"id": "e1", "event_name": "Server"}
	changes := []models.Change{
		{Op: models.OpUpdate, Synced: true, Data: models.Record{"event_name": "Old Local"}},
	}

	merged, _ := mergeChanges(eventsCollection(t), remoteRec, changes)
	assert.Equal(t, "Server", merged.GetString("event_name"))
}

func TestMergeChanges_AttachmentUnion(t *testing.T) {
	remoteRec := models.Record{"id": "e1", "files": []any{"b.png"}}
	changes := []models.Change{
		{Op: models.OpUpdate, Data: models.Record{"files": []any{"a.png"}}},
	}

	merged, _ := mergeChanges(eventsCollection(t), remoteRec, changes)
	assert.Equal(t, []string{"a.png", "b.png"}, merged.StringSlice("files"))
}

func TestMergeChanges_AttachmentUnionDeduplicates(t *testing.T) {
	remoteRec := models.Record{"id": "e1", "files": []any{"a.png", "b.png"}}
	changes := []models.Change{
		{Op: models.OpUpdate, Data: models.Record{"files": []any{"a.png", "c.png"}}},
	}

	merged, _ := mergeChanges(eventsCollection(t), remoteRec, changes)
	assert.Equal(t, []string{"a.png", "c.png", "b.png"}, merged.StringSlice("files"))
}

func TestMergeChanges_DeleteWins(t *testing.T) {
	remoteRec := models.Record{"id": "e1", "event_name": "Server"}
	changes := []models.Change{
		{Op: models.OpDelete},
	}

	merged, deleted := mergeChanges(eventsCollection(t), remoteRec, changes)
	assert.True(t, deleted)
	assert.Nil(t, merged)
}

func TestUnionStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, unionStrings([]string{"a"}, []string{"b"}))
	assert.Equal(t, []string{"a"}, unionStrings([]string{"a"}, []string{"a"}))
	assert.Equal(t, []string{"b"}, unionStrings(nil, []string{"b"}))
	assert.Equal(t, []string{"a"}, unionStrings([]string{"a", "a"}, nil))
	assert.Empty(t, unionStrings(nil, nil))
}
