package domain

import (
	"time"

	"github.com/plantbuddy/plantbuddy/pkg/idx"
)

// DueStatus classifies a plant's watering state as of a given local day. It
// is always computed, never stored.
type DueStatus string

const (
	// StatusUnknown means the plant cannot be scheduled: no interval is
	// configured, or it has never been watered (under the default policy).
	StatusUnknown DueStatus = "unknown"

	// StatusOK means the next watering day is still in the future.
	StatusOK DueStatus = "ok"

	// StatusDue means the plant is due today and stays due for the whole
	// local day.
	StatusDue DueStatus = "due"

	// StatusOverdue means the due day has passed.
	StatusOverdue DueStatus = "overdue"
)

// PlantStatus is one row of a due-state report. Pointer fields are present
// only when they apply to the status: OverdueDays only for overdue, DueInDays
// only for ok, DaysSinceLast whenever the plant has been watered before.
type PlantStatus struct {
	PlantID        int64
	Name           string
	Status         DueStatus
	WaterEveryDays *int
	LastWateredAt  *time.Time
	DaysSinceLast  *int
	DueInDays      *int
	OverdueDays    *int
}

// WaterLogEntry is an immutable record of one watering event.
type WaterLogEntry struct {
	ID        idx.ID
	UserID    int64
	PlantID   int64
	WateredAt time.Time
	CreatedAt time.Time
}
