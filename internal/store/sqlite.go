package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/studentorg/dashsync/internal/common"
	"github.com/studentorg/dashsync/internal/dbx"
	"github.com/studentorg/dashsync/internal/models"
	"github.com/studentorg/dashsync/internal/store/migrations"
)

// SQLiteStore is the real Store backend, one sqlite table per collection plus
// sync_meta and offline_changes.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the replica database at dsn, applies
// the embedded goose migrations, and seeds a zero last-sync row for every
// registered collection.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open replica db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate replica db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.seedMeta(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// seedMeta inserts a last_sync_ms=0 row per collection. 0 means "never
// synced" and forces the first read to pull.
func (s *SQLiteStore) seedMeta(ctx context.Context) error {
	for _, c := range models.Collections() {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO sync_meta (collection, last_sync_ms) VALUES (?, 0)
			 ON CONFLICT(collection) DO NOTHING`, c.Name)
		if err != nil {
			return fmt.Errorf("failed to seed sync_meta[%s]: %w", c.Name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Available() bool { return true }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle for tests.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Table(collection string) (Table, error) {
	c, ok := models.Lookup(collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownCollection, collection)
	}
	return &sqliteTable{db: s.db, name: c.Table}, nil
}

func (s *SQLiteStore) LastSync(ctx context.Context, collection string) (int64, error) {
	var ms int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sync_ms FROM sync_meta WHERE collection = ?`, collection).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last sync for %s: %w", collection, err)
	}
	return ms, nil
}

func (s *SQLiteStore) SetLastSync(ctx context.Context, collection string, ms int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_meta (collection, last_sync_ms) VALUES (?, ?)
		ON CONFLICT(collection) DO UPDATE SET last_sync_ms = excluded.last_sync_ms
	`, collection, ms)
	if err != nil {
		return fmt.Errorf("failed to set last sync for %s: %w", collection, err)
	}
	return nil
}

func (s *SQLiteStore) ApplySync(ctx context.Context, collection string, upserts []models.Record, deleteIDs []string, syncedAt int64) error {
	c, ok := models.Lookup(collection)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrUnknownCollection, collection)
	}
	tbl := &sqliteTable{db: s.db, name: c.Table}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range upserts {
			if err := tbl.put(ctx, tx, rec); err != nil {
				return err
			}
		}
		for _, id := range deleteIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+c.Table+` WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete record %s: %w", id, err)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sync_meta (collection, last_sync_ms) VALUES (?, ?)
			ON CONFLICT(collection) DO UPDATE SET last_sync_ms = excluded.last_sync_ms
		`, collection, syncedAt)
		if err != nil {
			return fmt.Errorf("failed to update sync metadata: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) AppendChange(ctx context.Context, ch *models.Change) error {
	var data []byte
	if ch.Data != nil {
		var err error
		data, err = json.Marshal(ch.Data)
		if err != nil {
			return fmt.Errorf("failed to encode change data: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offline_changes (id, collection, record_id, op, data, ts_ms, synced, sync_attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ch.ID, ch.Collection, ch.RecordID, string(ch.Op), nullableText(data), ch.Timestamp,
		boolToInt(ch.Synced), ch.SyncAttempts)
	if err != nil {
		return fmt.Errorf("failed to append change: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PendingChanges(ctx context.Context) ([]models.Change, error) {
	return s.queryChanges(ctx,
		`SELECT id, collection, record_id, op, data, ts_ms, synced, sync_attempts
		 FROM offline_changes WHERE synced = 0 ORDER BY ts_ms, id`)
}

func (s *SQLiteStore) PendingChangesFor(ctx context.Context, collection, recordID string) ([]models.Change, error) {
	return s.queryChanges(ctx,
		`SELECT id, collection, record_id, op, data, ts_ms, synced, sync_attempts
		 FROM offline_changes WHERE synced = 0 AND collection = ? AND record_id = ?
		 ORDER BY ts_ms, id`, collection, recordID)
}

func (s *SQLiteStore) AllChanges(ctx context.Context) ([]models.Change, error) {
	return s.queryChanges(ctx,
		`SELECT id, collection, record_id, op, data, ts_ms, synced, sync_attempts
		 FROM offline_changes ORDER BY ts_ms, id`)
}

func (s *SQLiteStore) queryChanges(ctx context.Context, query string, args ...any) ([]models.Change, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select changes: %w", err)
	}
	defer rows.Close()

	var result []models.Change
	for rows.Next() {
		var (
			ch     models.Change
			op     string
			data   sql.NullString
			synced int
		)
		if err := rows.Scan(&ch.ID, &ch.Collection, &ch.RecordID, &op, &data,
			&ch.Timestamp, &synced, &ch.SyncAttempts); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		ch.Op = models.Operation(op)
		ch.Synced = synced != 0
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &ch.Data); err != nil {
				return nil, fmt.Errorf("failed to decode change data: %w", err)
			}
		}
		result = append(result, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLiteStore) MarkSynced(ctx context.Context, changeID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE offline_changes SET synced = 1, sync_attempts = sync_attempts + 1 WHERE id = ?`,
		changeID)
	if err != nil {
		return fmt.Errorf("failed to mark change synced: %w", err)
	}
	return requireOneRow(res)
}

func (s *SQLiteStore) BumpAttempts(ctx context.Context, changeID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE offline_changes SET sync_attempts = sync_attempts + 1 WHERE id = ?`,
		changeID)
	if err != nil {
		return fmt.Errorf("failed to bump change attempts: %w", err)
	}
	return requireOneRow(res)
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, c := range models.Collections() {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+c.Table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", c.Name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM offline_changes`); err != nil {
			return fmt.Errorf("failed to clear offline changes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE sync_meta SET last_sync_ms = 0`); err != nil {
			return fmt.Errorf("failed to reset sync metadata: %w", err)
		}
		return nil
	})
}

// sqliteTable stores records as JSON documents keyed by id. The updated
// column mirrors the record's "updated" field for cheap inspection.
type sqliteTable struct {
	db   *sql.DB
	name string
}

func (t *sqliteTable) Get(ctx context.Context, id string) (models.Record, error) {
	var data string
	err := t.db.QueryRowContext(ctx,
		`SELECT data FROM `+t.name+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return decodeRecord(data)
}

func (t *sqliteTable) Put(ctx context.Context, rec models.Record) error {
	return t.put(ctx, t.db, rec)
}

func (t *sqliteTable) put(ctx context.Context, db dbx.DBTX, rec models.Record) error {
	if rec.ID() == "" {
		return errors.New("record has no id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO `+t.name+` (id, data, updated) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated = excluded.updated
	`, rec.ID(), string(data), rec.GetString("updated"))
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

func (t *sqliteTable) BulkPut(ctx context.Context, recs []models.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range recs {
			if err := t.put(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *sqliteTable) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.name+` WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete record %s: %w", id, err)
			}
		}
		return nil
	})
}

func (t *sqliteTable) All(ctx context.Context) ([]models.Record, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT data FROM `+t.name+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *sqliteTable) Count(ctx context.Context) (int, error) {
	var n int
	if err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func decodeRecord(data string) (models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireOneRow(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("%w: wrong rows affected count: %d", common.ErrNotFound, ra)
	}
	return nil
}
