// Package storage provides the SQLite-backed stop repository.
package storage

import "context"

// Stop is a transit stop cached in the local database.
type Stop struct {
	ID          int64   `db:"stop_id" json:"stop_id"`
	Name        string  `db:"name" json:"name"`
	Latitude    float64 `db:"latitude" json:"latitude"`
	Longitude   float64 `db:"longitude" json:"longitude"`
	LastUpdated string  `db:"last_updated" json:"last_updated"`
}

// StopUpdate carries the optional fields of a partial update. A nil field
// means "leave unchanged". Only these three columns are ever updatable;
// the repository builds SQL exclusively from this fixed set.
type StopUpdate struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
}

// IsEmpty reports whether no field is set.
func (u StopUpdate) IsEmpty() bool {
	return u.Name == nil && u.Latitude == nil && u.Longitude == nil
}

// StopsRepository defines operations on the stops table.
// Each method is a single atomic statement (or one transaction); no
// transaction ever spans multiple calls.
type StopsRepository interface {
	// UpsertStops inserts each candidate or, when the id already exists,
	// overwrites its name, coordinates and last_updated stamp. It returns
	// the full table ordered by id ascending and whether at least one
	// candidate was newly inserted rather than refreshed.
	UpsertStops(ctx context.Context, candidates []Stop) ([]Stop, bool, error)

	// GetStop returns the stop with the given id.
	// Returns (nil, nil) when the stop does not exist.
	GetStop(ctx context.Context, id int64) (*Stop, error)

	// ListStops returns every stored stop ordered by id ascending.
	ListStops(ctx context.Context) ([]Stop, error)

	// Neighbors returns the nearest stored ids strictly below and strictly
	// above id. Either pointer is nil when no such neighbor exists.
	Neighbors(ctx context.Context, id int64) (prev, next *int64, err error)

	// UpdateStop applies the set fields of upd to the stop with the given
	// id and stamps a new last_updated value. It reports whether the row
	// existed and, if so, the new last_updated value.
	UpdateStop(ctx context.Context, id int64, upd StopUpdate) (found bool, lastUpdated string, err error)

	// DeleteStop removes the stop with the given id and reports whether it
	// existed.
	DeleteStop(ctx context.Context, id int64) (bool, error)
}
