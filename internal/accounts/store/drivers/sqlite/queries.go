package sqlite

import (
	"context"
	"database/sql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type queries struct {
	db dbtx
}

const insertNonce = `
INSERT INTO used_nonces (jti, expires_at, recorded_at)
VALUES (?, ?, ?)
ON CONFLICT (jti) DO NOTHING`

const nonceExists = `SELECT EXISTS (SELECT 1 FROM used_nonces WHERE jti = ?)`

const getSession = `
SELECT data FROM sessions
WHERE id = ? AND expires_at > ?`

const upsertSession = `
INSERT INTO sessions (id, data, expires_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    data       = excluded.data,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`

const deleteSession = `DELETE FROM sessions WHERE id = ?`

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= ?`

const createAuthorizationCode = `
INSERT INTO authorization_codes (
    id, client_id, code_hash, redirect_uri, scope, subject,
    journey_state, expires_at, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const getAuthorizationCodeByHash = `
SELECT id, client_id, code_hash, redirect_uri, scope, subject,
       journey_state, expires_at, used_at, created_at
FROM authorization_codes
WHERE code_hash = ?`

const markAuthorizationCodeUsed = `
UPDATE authorization_codes SET used_at = ?
WHERE id = ? AND used_at IS NULL`

const authorizationCodeExists = `SELECT EXISTS (SELECT 1 FROM authorization_codes WHERE id = ?)`

const deleteExpiredAuthorizationCodes = `DELETE FROM authorization_codes WHERE expires_at <= ?`
