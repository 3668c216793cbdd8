package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
)

type plantsRepo struct {
	db dbtx
}

const plantColumns = `id, user_id, name, water_every_days, last_watered_at, active, created_at, updated_at`

func (r *plantsRepo) GetActivePlant(ctx context.Context, userID, plantID int64) (domain.Plant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+plantColumns+`
		FROM plants
		WHERE id = ? AND user_id = ? AND active = 1
	`, plantID, userID)

	p, err := scanPlant(row)
	if err != nil {
		return domain.Plant{}, mapNotFound(err)
	}
	return p, nil
}

func (r *plantsRepo) ListActivePlants(ctx context.Context, userID int64) ([]domain.Plant, error) {
	return r.listPlants(ctx, userID, true)
}

func (r *plantsRepo) ListArchivedPlants(ctx context.Context, userID int64) ([]domain.Plant, error) {
	return r.listPlants(ctx, userID, false)
}

func (r *plantsRepo) listPlants(ctx context.Context, userID int64, active bool) ([]domain.Plant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+plantColumns+`
		FROM plants
		WHERE user_id = ? AND active = ?
		ORDER BY id
	`, userID, active)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plants []domain.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func (r *plantsRepo) CreatePlant(ctx context.Context, userID int64, name string) (domain.Plant, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO plants (user_id, name, active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
	`, userID, name, now, now)
	if err != nil {
		return domain.Plant{}, mapConstraint(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Plant{}, err
	}

	return domain.Plant{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *plantsRepo) RenamePlant(ctx context.Context, userID, plantID int64, newName string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plants
		SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND active = 1
	`, newName, time.Now().UTC(), plantID, userID)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *plantsRepo) SetWaterInterval(ctx context.Context, userID, plantID int64, days *int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plants
		SET water_every_days = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND active = 1
	`, mapOptionalInt(days), time.Now().UTC(), plantID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *plantsRepo) SetActive(ctx context.Context, userID, plantID int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plants
		SET active = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND active = ?
	`, active, time.Now().UTC(), plantID, userID, !active)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *plantsRepo) UpdateLastWatered(ctx context.Context, userID, plantID int64, when time.Time) (bool, error) {
	// Read first so a stale `when` can be distinguished from a missing plant.
	var current sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT last_watered_at FROM plants
		WHERE id = ? AND user_id = ? AND active = 1
	`, plantID, userID).Scan(&current)
	if err != nil {
		return false, mapNotFound(err)
	}

	// Monotonic: never move the timestamp backwards.
	if current.Valid && current.Time.After(when) {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE plants
		SET last_watered_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, when.UTC(), time.Now().UTC(), plantID, userID)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *plantsRepo) ListOwnerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM plants WHERE active = 1 ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// requireRow maps "no rows touched" to ErrNotFound so ownership mismatches
// look identical to absence.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
