package models

// Operation is the kind of mutation recorded in the offline queue.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Change is a local mutation that has not yet been confirmed against the
// remote store. Rows are appended by the offline queue and only ever mutated
// by the replay path (Synced flip, SyncAttempts bump); they are retained for
// audit until a full cache clear.
type Change struct {
	ID           string
	Collection   string
	RecordID     string
	Op           Operation
	Data         Record // patch fields for create/update; nil for delete
	Timestamp    int64  // creation time, epoch millis
	Synced       bool
	SyncAttempts int
}
