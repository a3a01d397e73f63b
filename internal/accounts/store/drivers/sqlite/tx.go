package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

type txStore struct {
	tx *sql.Tx
	q  *queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx, q: &queries{db: tx}}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the caller commits or rolls back and the DB stays open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Nonces() store.Nonces                         { return &noncesRepo{q: t.q} }
func (t *txStore) Sessions() store.Sessions                     { return &sessionsRepo{q: t.q} }
func (t *txStore) AuthorizationCodes() store.AuthorizationCodes { return &authorizationCodesRepo{q: t.q} }

// ApplyMigrations is a no-op; migrations run before any transaction starts.
func (t *txStore) ApplyMigrations() error { return nil }
