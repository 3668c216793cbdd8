package sqlite

import (
	"context"
)

type remindersRepo struct {
	db dbtx
}

func (r *remindersRepo) GetLastSent(ctx context.Context, userID int64) (string, error) {
	var date string
	err := r.db.QueryRowContext(ctx, `
		SELECT last_sent_local_date FROM reminder_state WHERE user_id = ?
	`, userID).Scan(&date)
	if err != nil {
		return "", mapNotFound(err)
	}
	return date, nil
}

func (r *remindersRepo) SetLastSent(ctx context.Context, userID int64, localDate string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminder_state (user_id, last_sent_local_date)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET last_sent_local_date = excluded.last_sent_local_date
	`, userID, localDate)
	return err
}
