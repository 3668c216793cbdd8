package sqlite

import (
	"context"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/pkg/idx"
)

type waterLogsRepo struct {
	db dbtx
}

func (r *waterLogsRepo) Append(ctx context.Context, entry domain.WaterLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO water_log (id, user_id, plant_id, watered_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID.String(), entry.UserID, entry.PlantID, entry.WateredAt.UTC(), createdAt)
	return err
}

func (r *waterLogsRepo) ListRecent(ctx context.Context, userID, plantID int64, limit int) ([]domain.WaterLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, plant_id, watered_at, created_at
		FROM water_log
		WHERE user_id = ? AND plant_id = ?
		ORDER BY watered_at DESC, id DESC
		LIMIT ?
	`, userID, plantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.WaterLogEntry
	for rows.Next() {
		var (
			e     domain.WaterLogEntry
			rawID string
		)
		if err := rows.Scan(&rawID, &e.UserID, &e.PlantID, &e.WateredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID = idx.ID(rawID)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
