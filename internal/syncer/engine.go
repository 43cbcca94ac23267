// Package syncer reconciles one collection's remote truth with the local
// replica: pull, merge against pending offline changes, deletion detection,
// and a single-transaction persist.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/studentorg/dashsync/internal/connectivity"
	"github.com/studentorg/dashsync/internal/logging"
	"github.com/studentorg/dashsync/internal/models"
	"github.com/studentorg/dashsync/internal/query"
	"github.com/studentorg/dashsync/internal/remote"
	"github.com/studentorg/dashsync/internal/store"
)

// Options narrows one SyncCollection call. The zero value pulls the whole
// collection with deletion detection on.
type Options struct {
	Filter string
	Sort   string
	Expand string

	// SkipDeletionDetection disables removal of local records absent from
	// the remote result set. Deletion detection is also disabled
	// automatically whenever the filter is anything other than empty or a
	// single owner-field clause: a partial result set must not be mistaken
	// for the whole collection.
	SkipDeletionDetection bool
}

// Engine is the sync engine. One instance per process; the composition root
// owns it and injects it into the read service and the offline queue.
type Engine struct {
	store  store.Store
	remote remote.Client
	status *connectivity.Status
	log    logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func New(st store.Store, rc remote.Client, status *connectivity.Status, log logging.Logger) *Engine {
	return &Engine{
		store:    st,
		remote:   rc,
		status:   status,
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
}

// SyncCollection pulls collection from the remote store and reconciles it
// into the local replica, returning the merged (and redacted) records.
//
// Guard failures — missing storage backend, missing credentials, a sync for
// the same collection already in flight, unknown collection — are logged and
// yield an empty result, never an error: large parts of the system run in
// environments where these are expected. Remote-call failures do propagate;
// the local table then still holds its pre-sync snapshot.
func (e *Engine) SyncCollection(ctx context.Context, collection string, opts Options) ([]models.Record, error) {
	if !e.store.Available() {
		e.log.Warn(ctx, "sync skipped: storage backend unavailable", "collection", collection)
		return nil, nil
	}

	coll, ok := models.Lookup(collection)
	if !ok {
		e.log.Error(ctx, "sync skipped: unknown collection", "collection", collection)
		return nil, nil
	}

	if !e.remote.IsAuthenticated() {
		e.log.Warn(ctx, "sync skipped: not authenticated", "collection", collection)
		return nil, nil
	}

	if !e.acquire(collection) {
		e.log.Debug(ctx, "sync skipped: already in flight", "collection", collection)
		return nil, nil
	}
	defer e.release(collection)

	tbl, err := e.store.Table(collection)
	if err != nil {
		e.log.Error(ctx, "sync skipped: table routing failed", "collection", collection, "error", err)
		return nil, nil
	}

	// Offline: best effort, serve what the replica holds.
	if e.status.Offline() {
		local, err := tbl.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read local replica: %w", err)
		}
		local = redactAll(coll, local)
		query.SortRecords(local, opts.Sort)
		e.log.Debug(ctx, "offline, serving local replica", "collection", collection, "records", len(local))
		return local, nil
	}

	remoteRecs, err := e.remote.ListAll(ctx, collection, remote.ListOptions{
		Filter: opts.Filter,
		Sort:   opts.Sort,
		Expand: opts.Expand,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pull %s: %w", collection, err)
	}

	local, err := tbl.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local replica: %w", err)
	}
	localByID := make(map[string]models.Record, len(local))
	for _, rec := range local {
		localByID[rec.ID()] = rec
	}

	merged := make([]models.Record, 0, len(remoteRecs))
	remoteIDs := make(map[string]bool, len(remoteRecs))
	var pendingDeletes []string

	for _, rec := range remoteRecs {
		id := rec.ID()
		if id == "" {
			continue
		}
		remoteIDs[id] = true

		changes, err := e.store.PendingChangesFor(ctx, collection, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load pending changes: %w", err)
		}

		item, deleted := mergeChanges(coll, rec, changes)
		if deleted {
			// a queued local delete outranks the fresh server copy until
			// replay settles it
			pendingDeletes = append(pendingDeletes, id)
			continue
		}
		merged = append(merged, coll.Redact(item))
	}

	deletions := e.detectDeletions(ctx, coll, opts, local, remoteIDs)
	deletions = append(deletions, pendingDeletes...)

	if err := e.store.ApplySync(ctx, collection, merged, deletions, e.now().UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to persist sync for %s: %w", collection, err)
	}

	e.log.Info(ctx, "collection synced",
		"collection", collection, "records", len(merged), "deleted", len(deletions))
	return merged, nil
}

// detectDeletions returns the ids of locally-held records that vanished from
// the remote result set, honoring the scoping rules: a full unfiltered pull
// deletes freely; a single owner-field filter deletes only that owner's
// records; anything else deletes nothing.
func (e *Engine) detectDeletions(ctx context.Context, coll models.Collection, opts Options, local []models.Record, remoteIDs map[string]bool) []string {
	if opts.SkipDeletionDetection {
		return nil
	}

	f, err := query.ParseFilter(opts.Filter)
	if err != nil {
		// opaque filter: assume a partial result set
		e.log.Debug(ctx, "deletion detection disabled for opaque filter",
			"collection", coll.Name, "filter", opts.Filter)
		return nil
	}

	var ownerField, ownerID string
	switch {
	case f.Empty():
		// full pull, everything is in scope
	default:
		clause, single := f.SingleClause()
		if !single || !coll.IsOwnerField(clause.Field) {
			return nil
		}
		ownerField, ownerID = clause.Field, clause.Value
	}

	var deletions []string
	for _, rec := range local {
		id := rec.ID()
		if id == "" || remoteIDs[id] {
			continue
		}
		if ownerField != "" && rec.GetString(ownerField) != ownerID {
			continue
		}
		deletions = append(deletions, id)
	}
	return deletions
}

// PurgeEventCodes scans the events table and strips the check-in secret from
// any record that still carries it, covering rows written by older code
// paths. Returns the number of rewritten records.
func (e *Engine) PurgeEventCodes(ctx context.Context) (int, error) {
	return e.purgeRedacted(ctx, "events")
}

func (e *Engine) purgeRedacted(ctx context.Context, collection string) (int, error) {
	if !e.store.Available() {
		e.log.Warn(ctx, "purge skipped: storage backend unavailable", "collection", collection)
		return 0, nil
	}

	coll, ok := models.Lookup(collection)
	if !ok || len(coll.RedactedFields) == 0 {
		return 0, nil
	}

	tbl, err := e.store.Table(collection)
	if err != nil {
		return 0, err
	}
	recs, err := tbl.All(ctx)
	if err != nil {
		return 0, err
	}

	var dirty []models.Record
	for _, rec := range recs {
		clean := coll.Redact(rec)
		if len(clean) != len(rec) {
			dirty = append(dirty, clean)
		}
	}
	if len(dirty) == 0 {
		return 0, nil
	}

	if err := tbl.BulkPut(ctx, dirty); err != nil {
		return 0, fmt.Errorf("failed to purge redacted fields: %w", err)
	}
	e.log.Info(ctx, "purged redacted fields", "collection", collection, "records", len(dirty))
	return len(dirty), nil
}

func (e *Engine) acquire(collection string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[collection] {
		return false
	}
	e.inFlight[collection] = true
	return true
}

func (e *Engine) release(collection string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, collection)
}

func redactAll(coll models.Collection, recs []models.Record) []models.Record {
	if len(coll.RedactedFields) == 0 {
		return recs
	}
	out := make([]models.Record, len(recs))
	for i, rec := range recs {
		out[i] = coll.Redact(rec)
	}
	return out
}
