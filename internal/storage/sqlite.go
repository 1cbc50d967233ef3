package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver
)

// queryTimeout is applied to every database call.
const queryTimeout = 5 * time.Second

// timeLayout is the format of the last_updated column.
const timeLayout = "2006-01-02-15:04:05"

// schemaSQL embeds the stops table definition so the binary is
// self-contained; Open applies it idempotently on every start.
//
//go:embed schema.sql
var schemaSQL string

// Open connects to the SQLite database at path (created if absent) and
// ensures the schema exists.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent requests.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return db, nil
}

// sqliteStopsRepository is the sqlx-backed implementation of StopsRepository.
type sqliteStopsRepository struct {
	db *sqlx.DB
	// now is the clock used for last_updated stamps; replaced in tests.
	now func() time.Time
}

// NewStopsRepository creates a StopsRepository backed by the given database.
func NewStopsRepository(db *sqlx.DB) StopsRepository {
	return &sqliteStopsRepository{db: db, now: time.Now}
}

// UpsertStops inserts or refreshes each candidate and returns the full
// table ordered by id ascending plus whether any row was newly created.
func (r *sqliteStopsRepository) UpsertStops(ctx context.Context, candidates []Stop) ([]Stop, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stamp := r.now().Format(timeLayout)
	createdNew := false

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("storage: UpsertStops: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, c := range candidates {
		var exists int
		err := tx.GetContext(ctx, &exists, `SELECT 1 FROM stops WHERE stop_id = ?`, c.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("storage: UpsertStops: check stop %d: %w", c.ID, err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			createdNew = true
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stops (stop_id, name, latitude, longitude, last_updated)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(stop_id) DO UPDATE SET
				name = excluded.name,
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				last_updated = excluded.last_updated`,
			c.ID, c.Name, c.Latitude, c.Longitude, stamp)
		if err != nil {
			return nil, false, fmt.Errorf("storage: UpsertStops: upsert stop %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("storage: UpsertStops: commit: %w", err)
	}

	all, err := r.ListStops(ctx)
	if err != nil {
		return nil, false, err
	}
	return all, createdNew, nil
}

// GetStop returns the stop with the given id, or (nil, nil) if not found.
func (r *sqliteStopsRepository) GetStop(ctx context.Context, id int64) (*Stop, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Stop
	err := r.db.GetContext(ctx, &s, `SELECT * FROM stops WHERE stop_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: GetStop: %w", err)
	}
	return &s, nil
}

// ListStops returns all stops ordered by id ascending.
func (r *sqliteStopsRepository) ListStops(ctx context.Context) ([]Stop, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stops := []Stop{}
	if err := r.db.SelectContext(ctx, &stops, `SELECT * FROM stops ORDER BY stop_id ASC`); err != nil {
		return nil, fmt.Errorf("storage: ListStops: %w", err)
	}
	return stops, nil
}

// Neighbors returns the nearest stored ids strictly below and above id.
func (r *sqliteStopsRepository) Neighbors(ctx context.Context, id int64) (prev, next *int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p int64
	err = r.db.GetContext(ctx, &p,
		`SELECT stop_id FROM stops WHERE stop_id < ? ORDER BY stop_id DESC LIMIT 1`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no previous stop
	case err != nil:
		return nil, nil, fmt.Errorf("storage: Neighbors: prev of %d: %w", id, err)
	default:
		prev = &p
	}

	var n int64
	err = r.db.GetContext(ctx, &n,
		`SELECT stop_id FROM stops WHERE stop_id > ? ORDER BY stop_id ASC LIMIT 1`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no next stop
	case err != nil:
		return nil, nil, fmt.Errorf("storage: Neighbors: next of %d: %w", id, err)
	default:
		next = &n
	}

	return prev, next, nil
}

// UpdateStop applies the set fields of upd and stamps last_updated.
// The SET clause is assembled only from the fixed column names below; no
// caller-supplied text ever reaches the SQL string.
func (r *sqliteStopsRepository) UpdateStop(ctx context.Context, id int64, upd StopUpdate) (bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	sets := []string{}
	args := []any{}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Latitude != nil {
		sets = append(sets, "latitude = ?")
		args = append(args, *upd.Latitude)
	}
	if upd.Longitude != nil {
		sets = append(sets, "longitude = ?")
		args = append(args, *upd.Longitude)
	}

	stamp := r.now().Format(timeLayout)
	sets = append(sets, "last_updated = ?")
	args = append(args, stamp, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE stops SET `+strings.Join(sets, ", ")+` WHERE stop_id = ?`, args...)
	if err != nil {
		return false, "", fmt.Errorf("storage: UpdateStop: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, "", fmt.Errorf("storage: UpdateStop: rows affected: %w", err)
	}
	if affected == 0 {
		return false, "", nil
	}
	return true, stamp, nil
}

// DeleteStop removes the stop with the given id.
func (r *sqliteStopsRepository) DeleteStop(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM stops WHERE stop_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("storage: DeleteStop: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: DeleteStop: rows affected: %w", err)
	}
	return affected > 0, nil
}
