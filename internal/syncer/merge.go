package syncer

import (
	"github.com/studentorg/dashsync/internal/models"
)

// mergeChanges layers a record's pending offline changes on top of the fresh
// server copy, oldest change first. Ordinary fields are overwritten by the
// queued local value; attachment fields are combined as a set union of local
// and remote entries so concurrently-added files survive on both sides. A
// queued delete wins outright: deleted=true tells the caller to drop the
// record instead of upserting it.
func mergeChanges(coll models.Collection, remoteRec models.Record, changes []models.Change) (merged models.Record, deleted bool) {
	if len(changes) == 0 {
		return remoteRec, false
	}

	merged = remoteRec.Clone()
	for _, ch := range changes {
		if ch.Synced {
			continue
		}
		if ch.Op == models.OpDelete {
			return nil, true
		}
		for field, value := range ch.Data {
			if coll.IsAttachmentField(field) {
				merged[field] = unionStrings(ch.Data.StringSlice(field), merged.StringSlice(field))
				continue
			}
			merged[field] = value
		}
	}
	return merged, false
}

// unionStrings returns local followed by the remote entries not already in
// local, preserving order within each side.
func unionStrings(local, remoteVals []string) []string {
	seen := make(map[string]bool, len(local)+len(remoteVals))
	out := make([]string, 0, len(local)+len(remoteVals))
	for _, v := range local {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range remoteVals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
