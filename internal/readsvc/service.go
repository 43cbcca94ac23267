// Package readsvc serves collection and item reads from the local replica,
// deciding when a refresh from the remote store is due and keeping the UI
// usable when it is not reachable.
package readsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studentorg/dashsync/internal/common"
	"github.com/studentorg/dashsync/internal/connectivity"
	"github.com/studentorg/dashsync/internal/logging"
	"github.com/studentorg/dashsync/internal/models"
	"github.com/studentorg/dashsync/internal/query"
	"github.com/studentorg/dashsync/internal/remote"
	"github.com/studentorg/dashsync/internal/store"
	"github.com/studentorg/dashsync/internal/syncer"
)

// DefaultStaleAfter is how old a replica may get before a read triggers a
// refresh.
const DefaultStaleAfter = 5 * time.Minute

// Syncer is the slice of the sync engine the read path needs.
type Syncer interface {
	SyncCollection(ctx context.Context, collection string, opts syncer.Options) ([]models.Record, error)
}

// Recorder queues writes that could not be confirmed remotely.
type Recorder interface {
	RecordChange(ctx context.Context, collection, recordID string, op models.Operation, data models.Record) (string, error)
}

// Options narrows a GetData call. Filter and Sort use the in-process
// mini-grammar from the query package.
type Options struct {
	Filter    string
	Sort      string
	Expand    string
	ForceSync bool
}

// Service is the read (and optimistic-write) facade over the replica.
type Service struct {
	store      store.Store
	remote     remote.Client
	syncer     Syncer
	recorder   Recorder
	status     *connectivity.Status
	staleAfter time.Duration
	log        logging.Logger
	now        func() time.Time
}

func New(st store.Store, rc remote.Client, sy Syncer, rec Recorder,
	status *connectivity.Status, staleAfter time.Duration, log logging.Logger) *Service {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Service{
		store:      st,
		remote:     rc,
		syncer:     sy,
		recorder:   rec,
		status:     status,
		staleAfter: staleAfter,
		log:        log,
		now:        time.Now,
	}
}

// GetData returns the collection's records, refreshing from the remote first
// when the replica is stale (or ForceSync is set) and connectivity allows. A
// failed refresh is logged and downgraded: stale cache beats no data. The
// filter and sort are applied in-process over the local table contents, and
// redacted fields are stripped from every record returned.
func (s *Service) GetData(ctx context.Context, collection string, opts Options) ([]models.Record, error) {
	coll, ok := models.Lookup(collection)
	if !ok {
		s.log.Error(ctx, "read skipped: unknown collection", "collection", collection)
		return nil, nil
	}

	f, err := query.ParseFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("bad filter: %w", err)
	}

	tbl, err := s.store.Table(collection)
	if err != nil {
		s.log.Error(ctx, "read skipped: table routing failed", "collection", collection, "error", err)
		return nil, nil
	}

	if !s.status.Offline() {
		lastSync, err := s.store.LastSync(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("failed to read sync metadata: %w", err)
		}
		stale := s.now().UnixMilli()-lastSync > s.staleAfter.Milliseconds()
		if opts.ForceSync || stale {
			_, serr := s.syncer.SyncCollection(ctx, collection, syncer.Options{
				Filter: opts.Filter,
				Sort:   opts.Sort,
				Expand: opts.Expand,
			})
			if serr != nil {
				s.log.Warn(ctx, "refresh failed, serving cached data",
					"collection", collection, "error", serr)
			}
		}
	}

	recs, err := tbl.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local replica: %w", err)
	}

	out := make([]models.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, coll.Redact(rec))
	}
	out = f.Apply(out)
	query.SortRecords(out, opts.Sort)
	return out, nil
}

// GetItem returns a single record, local copy first. A remote fetch happens
// on a local miss or when forceSync is set; its result is upserted into the
// replica. When the remote call fails and a local copy exists, the stale
// copy is served and the error only logged.
func (s *Service) GetItem(ctx context.Context, collection, id string, forceSync bool) (models.Record, error) {
	coll, ok := models.Lookup(collection)
	if !ok {
		s.log.Error(ctx, "read skipped: unknown collection", "collection", collection)
		return nil, common.ErrNotFound
	}

	tbl, err := s.store.Table(collection)
	if err != nil {
		return nil, err
	}

	local, lerr := tbl.Get(ctx, id)
	if lerr != nil && !errors.Is(lerr, common.ErrNotFound) {
		return nil, lerr
	}
	haveLocal := lerr == nil

	if haveLocal && !forceSync {
		return coll.Redact(local), nil
	}

	if s.status.Offline() {
		if haveLocal {
			return coll.Redact(local), nil
		}
		return nil, common.ErrNotFound
	}

	rec, rerr := s.remote.GetOne(ctx, collection, id)
	if rerr != nil {
		if haveLocal {
			s.log.Warn(ctx, "remote fetch failed, serving stale copy",
				"collection", collection, "record", id, "error", rerr)
			return coll.Redact(local), nil
		}
		return nil, rerr
	}

	rec = coll.Redact(rec)
	if err := tbl.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to cache record: %w", err)
	}
	return rec, nil
}

// UpdateItem patches a record optimistically: the local copy is rewritten
// first, then the remote store. When offline, or when the remote write
// fails, the patch is queued as an offline change; a remote failure is still
// reported to the caller alongside the locally patched copy, which is
// already queued and will not be lost.
func (s *Service) UpdateItem(ctx context.Context, collection, id string, fields models.Record) (models.Record, error) {
	coll, ok := models.Lookup(collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownCollection, collection)
	}

	tbl, err := s.store.Table(collection)
	if err != nil {
		return nil, err
	}

	local, lerr := tbl.Get(ctx, id)
	if lerr != nil && !errors.Is(lerr, common.ErrNotFound) {
		return nil, lerr
	}
	if local == nil {
		local = models.Record{"id": id}
	}

	patched := local.Clone()
	for k, v := range fields {
		patched[k] = v
	}
	patched = coll.Redact(patched)

	if err := tbl.Put(ctx, patched); err != nil {
		return nil, fmt.Errorf("failed to write local copy: %w", err)
	}

	if s.status.Offline() {
		if _, qerr := s.recorder.RecordChange(ctx, collection, id, models.OpUpdate, fields); qerr != nil {
			return nil, qerr
		}
		return patched, nil
	}

	rec, rerr := s.remote.UpdateFields(ctx, collection, id, fields)
	if rerr != nil {
		if _, qerr := s.recorder.RecordChange(ctx, collection, id, models.OpUpdate, fields); qerr != nil {
			return nil, errors.Join(rerr, qerr)
		}
		return patched, rerr
	}

	rec = coll.Redact(rec)
	if err := tbl.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to cache server copy: %w", err)
	}
	return rec, nil
}
