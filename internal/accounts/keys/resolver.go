// Package keys resolves the public keys relying parties sign their client
// assertions with. Keys are owned by a custodial key service; this package
// only reads them.
package keys

import (
	"context"
	"crypto"
	"errors"
	"fmt"
)

// ErrKeyNotFound means the alias is not known to the key source.
var ErrKeyNotFound = errors.New("keys: key not found")

// TransportError wraps a failure to reach or read the key source. It is
// distinct from ErrKeyNotFound so callers can tell "no such key" from "could
// not ask".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("keys: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Resolver returns the verification key registered under alias.
type Resolver interface {
	VerificationKey(ctx context.Context, alias string) (crypto.PublicKey, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, alias string) (crypto.PublicKey, error)

func (f ResolverFunc) VerificationKey(ctx context.Context, alias string) (crypto.PublicKey, error) {
	return f(ctx, alias)
}
