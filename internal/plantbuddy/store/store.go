package store

import (
	"context"
	"errors"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and let a transaction
// expose the same surface as the root store.
type Store interface {
	Plants() Plants
	WaterLogs() WaterLogs
	Reminders() Reminders

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back when fn returns an
	// error, committed otherwise. This is the recommended way to pair the
	// last-watered update with its log append.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Plants interface {
	// GetActivePlant returns an active plant scoped to its owner.
	// ErrNotFound covers both "does not exist" and "not yours": ownership
	// mismatches must be indistinguishable from absence.
	GetActivePlant(ctx context.Context, userID, plantID int64) (domain.Plant, error)

	// ListActivePlants returns the owner's active plants, unordered.
	ListActivePlants(ctx context.Context, userID int64) ([]domain.Plant, error)

	// ListArchivedPlants returns the owner's archived plants.
	ListArchivedPlants(ctx context.Context, userID int64) ([]domain.Plant, error)

	// CreatePlant inserts a new active plant. Names are unique per owner;
	// duplicates return ErrAlreadyExists.
	CreatePlant(ctx context.Context, userID int64, name string) (domain.Plant, error)

	// RenamePlant renames an owner's active plant.
	RenamePlant(ctx context.Context, userID, plantID int64, newName string) error

	// SetWaterInterval sets or clears the watering interval in days.
	SetWaterInterval(ctx context.Context, userID, plantID int64, days *int) error

	// SetActive archives or restores a plant.
	SetActive(ctx context.Context, userID, plantID int64, active bool) error

	// UpdateLastWatered advances last_watered_at for an owned active plant.
	// The update is monotonic: a `when` older than the stored timestamp is a
	// no-op and returns false, so replayed batches cannot regress state.
	UpdateLastWatered(ctx context.Context, userID, plantID int64, when time.Time) (bool, error)

	// ListOwnerIDs returns the distinct user ids that own at least one
	// active plant.
	ListOwnerIDs(ctx context.Context) ([]int64, error)
}

type WaterLogs interface {
	// Append records one immutable watering event.
	Append(ctx context.Context, entry domain.WaterLogEntry) error

	// ListRecent returns the newest log entries for an owned plant, most
	// recent first.
	ListRecent(ctx context.Context, userID, plantID int64, limit int) ([]domain.WaterLogEntry, error)
}

type Reminders interface {
	// GetLastSent returns the local calendar date (YYYY-MM-DD) the user was
	// last sent a reminder, or ErrNotFound when none was ever sent.
	GetLastSent(ctx context.Context, userID int64) (string, error)

	// SetLastSent upserts the last-sent local date for a user.
	SetLastSent(ctx context.Context, userID int64, localDate string) error
}
