// Package app wires the replica components together and exposes the facade
// the CLI (or an embedding dashboard backend) talks to.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/studentorg/dashsync/internal/config"
	"github.com/studentorg/dashsync/internal/connectivity"
	"github.com/studentorg/dashsync/internal/logging"
	"github.com/studentorg/dashsync/internal/models"
	"github.com/studentorg/dashsync/internal/offline"
	"github.com/studentorg/dashsync/internal/readsvc"
	"github.com/studentorg/dashsync/internal/remote"
	"github.com/studentorg/dashsync/internal/store"
	"github.com/studentorg/dashsync/internal/syncer"
)

// App owns the wired component graph. Construction never fails hard on a
// broken replica database: the store degrades to a no-op and every read is
// served from the remote instead.
type App struct {
	cfg     *config.Config
	log     logging.Logger
	store   store.Store
	remote  *remote.PocketBaseClient
	status  *connectivity.Status
	engine  *syncer.Engine
	queue   *offline.Queue
	reads   *readsvc.Service
	monitor *connectivity.Monitor
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	var st store.Store
	if cfg.DatabasePath == "" {
		logger.Warn(ctx, "replica database disabled, reads go straight to the remote")
		st = store.NewNullStore()
	} else {
		s, err := store.Open(ctx, cfg.DatabasePath)
		if err != nil {
			logger.Warn(ctx, "replica database unavailable, degrading to remote-only mode",
				"path", cfg.DatabasePath, "error", err)
			st = store.NewNullStore()
		} else {
			st = s
		}
	}

	rc := remote.NewPocketBaseClient(cfg.BaseURL, cfg.RequestTimeout)
	if cfg.AuthToken != "" {
		rc.SetToken(cfg.AuthToken)
	}

	// Seed the flag from a startup probe so the first reads already know
	// whether the remote answers.
	status := connectivity.NewStatus(rc.Ping(ctx) != nil)

	engine := syncer.New(st, rc, status, logger)
	queue := offline.New(st, rc, engine, status, cfg.ReplayBaseDelay, cfg.ReplayMaxRetries, logger)
	reads := readsvc.New(st, rc, engine, queue, status, cfg.StaleAfter, logger)
	monitor := connectivity.NewMonitor(status, rc, queue, cfg.RequestTimeout, logger)

	return &App{
		cfg:     cfg,
		log:     logger,
		store:   st,
		remote:  rc,
		status:  status,
		engine:  engine,
		queue:   queue,
		reads:   reads,
		monitor: monitor,
	}, nil
}

// IsOffline reports the current connectivity flag.
func (a *App) IsOffline() bool { return a.status.Offline() }

// Sync pulls one collection into the replica.
func (a *App) Sync(ctx context.Context, collection string) ([]models.Record, error) {
	return a.engine.SyncCollection(ctx, collection, syncer.Options{})
}

// SyncAll pulls every known collection. Failures are joined per collection
// so one broken pull does not stop the rest.
func (a *App) SyncAll(ctx context.Context) error {
	var errs []error
	for _, coll := range models.Collections() {
		if _, err := a.engine.SyncCollection(ctx, coll.Name, syncer.Options{}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", coll.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Watch runs the connectivity monitor until ctx is canceled, probing first
// so transitions are noticed immediately on startup.
func (a *App) Watch(ctx context.Context) {
	a.monitor.Probe(ctx)
	a.monitor.Watch(ctx, a.cfg.PingInterval)
}

// GetData serves a collection read through the staleness-gated read path.
func (a *App) GetData(ctx context.Context, collection string, opts readsvc.Options) ([]models.Record, error) {
	return a.reads.GetData(ctx, collection, opts)
}

// GetItem serves a single-record read.
func (a *App) GetItem(ctx context.Context, collection, id string, forceSync bool) (models.Record, error) {
	return a.reads.GetItem(ctx, collection, id, forceSync)
}

// UpdateItem patches a record optimistically, queueing the change when the
// remote cannot confirm it.
func (a *App) UpdateItem(ctx context.Context, collection, id string, fields models.Record) (models.Record, error) {
	return a.reads.UpdateItem(ctx, collection, id, fields)
}

// PendingChanges lists the offline queue, synced rows included, for status
// reporting.
func (a *App) PendingChanges(ctx context.Context) ([]models.Change, error) {
	return a.queue.Changes(ctx)
}

// ReplayPending flushes queued offline changes now instead of waiting for
// the monitor to notice a reconnect.
func (a *App) ReplayPending(ctx context.Context) error {
	return a.queue.ReplayPending(ctx)
}

// ClearCache drops all replica rows, sync metadata and queued changes.
func (a *App) ClearCache(ctx context.Context) error {
	return a.store.ClearAll(ctx)
}

// PurgeEventCodes strips lingering check-in codes from already persisted
// event rows.
func (a *App) PurgeEventCodes(ctx context.Context) (int, error) {
	return a.engine.PurgeEventCodes(ctx)
}

// Close flushes in-flight queue work and closes the replica database.
func (a *App) Close() error {
	a.queue.Wait()
	return a.store.Close()
}
