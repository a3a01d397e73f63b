package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by conditional writes that lost: a jti that
	// was already recorded, or a code that was already redeemed.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Drivers expose sub-repositories
// so a transaction-scoped Store hands out the same repos bound to the tx.
type Store interface {
	Nonces() Nonces
	Sessions() Sessions
	AuthorizationCodes() AuthorizationCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Nonces remembers every client assertion jti that has been accepted.
type Nonces interface {
	// HasBeenUsed reports whether jti was recorded before.
	HasBeenUsed(ctx context.Context, jti string) (bool, error)

	// RecordUsed inserts jti if and only if it is absent. A jti that is
	// already present returns ErrConflict. The check and the insert are a
	// single atomic operation.
	RecordUsed(ctx context.Context, jti string, expiresAt time.Time) error
}

// Sessions persists opaque, already sealed session blobs.
type Sessions interface {
	// Load returns the blob for id, or ErrNotFound when it is missing or
	// expired.
	Load(ctx context.Context, id string) ([]byte, error)

	// Save replaces the blob for id. The last writer wins.
	Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error

	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type AuthorizationCodes interface {
	Create(ctx context.Context, code domain.AuthorizationCode) error

	// GetByHash fetches a code by the fingerprint of its opaque value.
	GetByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// MarkUsed consumes the code. A code that was already used returns
	// ErrConflict so two concurrent redemptions cannot both succeed.
	MarkUsed(ctx context.Context, id string, at time.Time) error

	DeleteExpired(ctx context.Context) (int64, error)
}
