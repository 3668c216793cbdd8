// Package api holds the wire types shared between the HTTP handlers and any
// Go client of the service.
package api

import "time"

// SessionRequest carries Telegram WebApp init data to exchange for a session
// token.
type SessionRequest struct {
	InitData string `json:"init_data"`
}

// SessionResponse is the issued bearer token.
type SessionResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// Plant is a single plant record.
type Plant struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	WaterEveryDays *int       `json:"water_every_days"`
	LastWateredAt  *time.Time `json:"last_watered_at"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PlantStatus is one row of the due-state report. Fields that do not apply to
// a status are omitted: overdue_days only appears on overdue plants and
// due_in_days only on ok plants.
type PlantStatus struct {
	PlantID        int64      `json:"plant_id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	WaterEveryDays *int       `json:"water_every_days,omitempty"`
	LastWateredAt  *time.Time `json:"last_watered_at,omitempty"`
	DaysSinceLast  *int       `json:"days_since_last,omitempty"`
	DueInDays      *int       `json:"due_in_days,omitempty"`
	OverdueDays    *int       `json:"overdue_days,omitempty"`
}

// TodayResponse is the full status report, ordered most urgent first.
type TodayResponse struct {
	Plants []PlantStatus `json:"plants"`
}

// CreatePlantRequest adds a plant.
type CreatePlantRequest struct {
	Name           string `json:"name"`
	WaterEveryDays *int   `json:"water_every_days"`
}

// UpdatePlantRequest renames a plant and/or changes its schedule. A field
// left null is untouched; to clear the schedule send clear_interval.
type UpdatePlantRequest struct {
	Name           *string `json:"name"`
	WaterEveryDays *int    `json:"water_every_days"`
	ClearInterval  bool    `json:"clear_interval"`
}

// WaterRequest marks the given plants as watered.
type WaterRequest struct {
	PlantIDs []int64 `json:"plant_ids"`
}

// WaterResponse reports how the batch went. failed_ids lists plants that were
// owned by the caller but could not be updated.
type WaterResponse struct {
	Updated   int     `json:"updated"`
	FailedIDs []int64 `json:"failed_ids,omitempty"`
}

// WaterLogEntry is one immutable watering event.
type WaterLogEntry struct {
	ID        string    `json:"id"`
	PlantID   int64     `json:"plant_id"`
	WateredAt time.Time `json:"watered_at"`
}

// HealthChecks reports the state of critical dependencies.
type HealthChecks struct {
	Database string `json:"database,omitempty"`
}

// HealthResponse is returned by the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
