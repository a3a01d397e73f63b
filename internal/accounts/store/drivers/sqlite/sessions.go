package sqlite

import (
	"context"
	"time"
)

type sessionsRepo struct {
	q *queries
}

func (r *sessionsRepo) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := r.q.db.QueryRowContext(ctx, getSession, id, toMillis(time.Now())).Scan(&data)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return data, nil
}

func (r *sessionsRepo) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	_, err := r.q.db.ExecContext(ctx, upsertSession, id, data, toMillis(expiresAt), toMillis(time.Now()))
	return err
}

func (r *sessionsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.db.ExecContext(ctx, deleteSession, id)
	return err
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.q.db.ExecContext(ctx, deleteExpiredSessions, toMillis(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
