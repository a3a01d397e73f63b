package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

type noncesRepo struct {
	q *queries
}

func (r *noncesRepo) HasBeenUsed(ctx context.Context, jti string) (bool, error) {
	var used bool
	if err := r.q.db.QueryRowContext(ctx, nonceExists, jti).Scan(&used); err != nil {
		return false, fmt.Errorf("sqlite: check nonce: %w", err)
	}
	return used, nil
}

// RecordUsed relies on the primary key: the insert is skipped, not failed,
// when the jti exists, and the affected row count tells us which happened.
func (r *noncesRepo) RecordUsed(ctx context.Context, jti string, expiresAt time.Time) error {
	res, err := r.q.db.ExecContext(ctx, insertNonce, jti, toMillis(expiresAt), toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite: record nonce: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: record nonce: %w", err)
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}
