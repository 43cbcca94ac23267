// Package offline is the durable record of writes pending confirmation
// against the remote store, and their replay once connectivity returns.
package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/studentorg/dashsync/internal/common"
	"github.com/studentorg/dashsync/internal/connectivity"
	"github.com/studentorg/dashsync/internal/logging"
	"github.com/studentorg/dashsync/internal/models"
	"github.com/studentorg/dashsync/internal/remote"
	"github.com/studentorg/dashsync/internal/store"
	"github.com/studentorg/dashsync/internal/syncer"
)

// Syncer is the slice of the sync engine the replay path needs.
type Syncer interface {
	SyncCollection(ctx context.Context, collection string, opts syncer.Options) ([]models.Record, error)
}

// Queue records local mutations that could not yet be confirmed remotely and
// replays them. Rows are never hard-deleted by the queue itself; they stay
// for audit until a full cache clear.
type Queue struct {
	store  store.Store
	remote remote.Client
	syncer Syncer
	status *connectivity.Status
	log    logging.Logger

	// replay backoff. The queue caps attempts per replay round; rows that
	// keep failing stay pending with a visible attempt count rather than
	// being silently abandoned.
	baseDelay  time.Duration
	maxRetries uint64

	wg sync.WaitGroup
}

func New(st store.Store, rc remote.Client, sy Syncer, status *connectivity.Status,
	baseDelay time.Duration, maxRetries uint64, log logging.Logger) *Queue {
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &Queue{
		store:      st,
		remote:     rc,
		syncer:     sy,
		status:     status,
		log:        log,
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

// RecordChange appends an offline change and returns its id. When currently
// online it also kicks off a best-effort background replay of just that
// change; a failure there leaves the row queued with its attempt count
// bumped, so nothing is lost to an unobserved goroutine.
func (q *Queue) RecordChange(ctx context.Context, collection, recordID string, op models.Operation, data models.Record) (string, error) {
	if !q.store.Available() {
		q.log.Warn(ctx, "change not recorded: storage backend unavailable",
			"collection", collection, "record", recordID)
		return "", nil
	}

	ch := &models.Change{
		ID:         uuid.NewString(),
		Collection: collection,
		RecordID:   recordID,
		Op:         op,
		Data:       data,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := q.store.AppendChange(ctx, ch); err != nil {
		return "", fmt.Errorf("failed to record change: %w", err)
	}

	if !q.status.Offline() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			bctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := q.applyChange(bctx, *ch); err != nil {
				q.log.Warn(bctx, "immediate replay failed, change stays queued",
					"change", ch.ID, "collection", collection, "error", err)
				if berr := q.store.BumpAttempts(bctx, ch.ID); berr != nil {
					q.log.Error(bctx, "failed to bump change attempts", "change", ch.ID, "error", berr)
				}
				return
			}
			if merr := q.store.MarkSynced(bctx, ch.ID); merr != nil {
				q.log.Error(bctx, "failed to mark change synced", "change", ch.ID, "error", merr)
			}
		}()
	}

	return ch.ID, nil
}

// Wait blocks until all background replays spawned by RecordChange finish.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// ReplayPending flushes every unsynced change, grouped by collection: a
// baseline pull first, then each change applied with bounded backoff, then a
// final re-pull so the replica reflects the authoritative post-replay state.
// Changes that keep failing are left pending with their attempt count
// incremented.
func (q *Queue) ReplayPending(ctx context.Context) error {
	if !q.store.Available() {
		q.log.Warn(ctx, "replay skipped: storage backend unavailable")
		return nil
	}
	if q.status.Offline() {
		q.log.Debug(ctx, "replay skipped: offline")
		return nil
	}

	pending, err := q.store.PendingChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending changes: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	byCollection := make(map[string][]models.Change)
	var order []string
	for _, ch := range pending {
		if _, seen := byCollection[ch.Collection]; !seen {
			order = append(order, ch.Collection)
		}
		byCollection[ch.Collection] = append(byCollection[ch.Collection], ch)
	}

	var errs []error
	for _, collection := range order {
		changes := byCollection[collection]

		// fresh baseline before touching the server
		if _, err := q.syncer.SyncCollection(ctx, collection, syncer.Options{}); err != nil {
			q.log.Error(ctx, "baseline pull failed, skipping collection replay",
				"collection", collection, "error", err)
			errs = append(errs, err)
			continue
		}

		for _, ch := range changes {
			if err := q.replayOne(ctx, ch); err != nil {
				q.log.Warn(ctx, "replay failed, change stays queued",
					"change", ch.ID, "collection", collection,
					"attempts", ch.SyncAttempts+1, "error", err)
				if berr := q.store.BumpAttempts(ctx, ch.ID); berr != nil {
					errs = append(errs, berr)
				}
				continue
			}
			if err := q.store.MarkSynced(ctx, ch.ID); err != nil {
				errs = append(errs, err)
			}
		}

		// replica catches up with the post-replay server state
		if _, err := q.syncer.SyncCollection(ctx, collection, syncer.Options{}); err != nil {
			q.log.Error(ctx, "post-replay pull failed", "collection", collection, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// replayOne applies a single change with fibonacci backoff capped at
// maxRetries.
func (q *Queue) replayOne(ctx context.Context, ch models.Change) error {
	backoff := retry.WithMaxRetries(q.maxRetries, retry.NewFibonacci(q.baseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := q.applyChange(ctx, ch); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// applyChange re-states the change's full intended field values against the
// remote store, so re-applying an already-applied change is harmless.
func (q *Queue) applyChange(ctx context.Context, ch models.Change) error {
	switch ch.Op {
	case models.OpCreate:
		_, err := q.remote.Create(ctx, ch.Collection, ch.Data)
		return err
	case models.OpUpdate:
		_, err := q.remote.UpdateFields(ctx, ch.Collection, ch.RecordID, ch.Data)
		return err
	case models.OpDelete:
		err := q.remote.Delete(ctx, ch.Collection, ch.RecordID)
		if errors.Is(err, common.ErrNotFound) {
			// already gone, which is the intended end state
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown operation %q", ch.Op)
	}
}

// Changes returns the whole queue, synced rows included, for status
// reporting.
func (q *Queue) Changes(ctx context.Context) ([]models.Change, error) {
	return q.store.AllChanges(ctx)
}
