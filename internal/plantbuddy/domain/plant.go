package domain

import "time"

// Plant is one tracked plant, owned by exactly one Telegram user.
type Plant struct {
	ID             int64
	UserID         int64
	Name           string
	WaterEveryDays *int       // watering interval in days; nil means not configured
	LastWateredAt  *time.Time // nil means never watered
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
