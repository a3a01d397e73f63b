package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AssertionOptions pins what a client assertion must look like.
type AssertionOptions struct {
	// Algorithm is the only accepted "alg" header value.
	Algorithm string

	// ClientID must be both iss and sub.
	ClientID string

	// Audience must appear in aud, normally the token endpoint URL.
	Audience string

	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway time.Duration

	// MaxLifetime caps exp-iat. Zero disables the check.
	MaxLifetime time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// PeekAssertion decodes an assertion without verifying it. Only use the
// result to decide which key to verify with.
func PeekAssertion(raw string) (*AssertionClaims, error) {
	claims := &AssertionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// VerifyAssertion checks the signature of raw with key under the pinned
// algorithm, then the temporal and identity claims.
func VerifyAssertion(raw string, key any, opts AssertionOptions) (*AssertionClaims, error) {
	if opts.Algorithm == "" || opts.ClientID == "" || opts.Audience == "" {
		return nil, errors.New("jwtx: assertion options incomplete")
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{opts.Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(opts.Leeway),
		jwt.WithIssuer(opts.ClientID),
		jwt.WithSubject(opts.ClientID),
		jwt.WithAudience(opts.Audience),
		jwt.WithTimeFunc(now),
	)

	claims := &AssertionClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidClaims)
	}

	if opts.MaxLifetime > 0 {
		start := now()
		if claims.IssuedAt != nil {
			start = claims.IssuedAt.Time
		}
		if claims.ExpiresAt.Sub(start) > opts.MaxLifetime+opts.Leeway {
			return nil, fmt.Errorf("%w: lifetime exceeds %s", ErrInvalidClaims, opts.MaxLifetime)
		}
	}

	return claims, nil
}
