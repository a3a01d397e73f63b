package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

type authorizationCodesRepo struct {
	q *queries
}

func (r *authorizationCodesRepo) Create(ctx context.Context, code domain.AuthorizationCode) error {
	createdAt := code.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.q.db.ExecContext(ctx, createAuthorizationCode,
		code.ID,
		code.ClientID,
		code.CodeHash,
		code.RedirectURI,
		code.Scope,
		code.Subject,
		code.JourneyState,
		toMillis(code.ExpiresAt),
		toMillis(createdAt),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *authorizationCodesRepo) GetByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	var (
		c                    domain.AuthorizationCode
		expiresAt, createdAt int64
		usedAt               sql.NullInt64
	)
	err := r.q.db.QueryRowContext(ctx, getAuthorizationCodeByHash, hash).Scan(
		&c.ID,
		&c.ClientID,
		&c.CodeHash,
		&c.RedirectURI,
		&c.Scope,
		&c.Subject,
		&c.JourneyState,
		&expiresAt,
		&usedAt,
		&createdAt,
	)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}

	c.ExpiresAt = fromMillis(expiresAt)
	c.CreatedAt = fromMillis(createdAt)
	c.UsedAt = mapNullMillis(usedAt)
	return c, nil
}

func (r *authorizationCodesRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.db.ExecContext(ctx, markAuthorizationCodeUsed, toMillis(at), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.q.db.QueryRowContext(ctx, authorizationCodeExists, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (r *authorizationCodesRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.q.db.ExecContext(ctx, deleteExpiredAuthorizationCodes, toMillis(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
