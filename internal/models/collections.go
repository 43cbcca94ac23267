package models

// Collection describes one synchronized collection: how its replica table is
// named and which fields get special treatment during merge and read.
type Collection struct {
	// Name is the remote collection identifier.
	Name string

	// Table is the local replica table. One table per collection; record id
	// is the primary key.
	Table string

	// OwnerFields lists fields that scope records to a single owner. A pull
	// filtered by exactly one of these fields may still run deletion
	// detection, restricted to that owner's records. Any other filter
	// disables deletion detection entirely.
	OwnerFields []string

	// AttachmentFields lists multi-valued file fields. During merge these
	// are combined as a set union of local and remote entries instead of
	// being overwritten.
	AttachmentFields []string

	// RedactedFields are never persisted locally nor returned to callers.
	RedactedFields []string
}

// registry holds every collection the engine mirrors. Unknown collection
// names are a configuration error surfaced as common.ErrUnknownCollection by
// the store, never a panic.
var registry = []Collection{
	{Name: "users", Table: "records_users"},
	{
		Name:             "events",
		Table:            "records_events",
		AttachmentFields: []string{"files"},
		RedactedFields:   []string{"event_code"},
	},
	{
		Name:        "event_attendees",
		Table:       "records_event_attendees",
		OwnerFields: []string{"user_id", "event_id"},
	},
	{Name: "officers", Table: "records_officers"},
	{
		Name:             "reimbursements",
		Table:            "records_reimbursements",
		OwnerFields:      []string{"submitted_by"},
		AttachmentFields: []string{"receipts"},
	},
	{
		Name:        "receipts",
		Table:       "records_receipts",
		OwnerFields: []string{"created_by"},
	},
	{Name: "sponsors", Table: "records_sponsors"},
	{
		Name:        "logs",
		Table:       "records_logs",
		OwnerFields: []string{"user_id"},
	},
	{
		Name:        "event_requests",
		Table:       "records_event_requests",
		OwnerFields: []string{"requested_by"},
	},
}

// Lookup returns the collection descriptor for name.
func Lookup(name string) (Collection, bool) {
	for _, c := range registry {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// Collections returns all registered collections in a stable order.
func Collections() []Collection {
	out := make([]Collection, len(registry))
	copy(out, registry)
	return out
}

// IsOwnerField reports whether field scopes this collection to one owner.
func (c Collection) IsOwnerField(field string) bool {
	for _, f := range c.OwnerFields {
		if f == field {
			return true
		}
	}
	return false
}

// IsAttachmentField reports whether field is merged as a set union.
func (c Collection) IsAttachmentField(field string) bool {
	for _, f := range c.AttachmentFields {
		if f == field {
			return true
		}
	}
	return false
}

// Redact returns a copy of rec with the collection's redacted fields removed.
// When rec carries none of them, rec is returned unchanged (no copy).
func (c Collection) Redact(rec Record) Record {
	if len(c.RedactedFields) == 0 || rec == nil {
		return rec
	}
	dirty := false
	for _, f := range c.RedactedFields {
		if _, ok := rec[f]; ok {
			dirty = true
			break
		}
	}
	if !dirty {
		return rec
	}
	out := rec.Clone()
	for _, f := range c.RedactedFields {
		delete(out, f)
	}
	return out
}
