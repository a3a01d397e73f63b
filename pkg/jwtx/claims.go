package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens handed
	// to clients after a completed journey.
	DefaultAccessTokenTTL = 5 * time.Minute

	// DefaultAssertionTTL is what authsdk uses when minting client assertions.
	DefaultAssertionTTL = time.Minute
)

var (
	ErrMalformed     = errors.New("jwtx: malformed token")
	ErrInvalidClaims = errors.New("jwtx: invalid claims")
	ErrSignature     = errors.New("jwtx: signature or algorithm rejected")
)

// AccessClaims are the claims of an access token issued when a journey
// completes. The client learns which journey ran and how it ended.
type AccessClaims struct {
	jwt.RegisteredClaims

	ClientID     string `json:"client_id"`
	Scope        string `json:"scope"`
	JourneyState string `json:"journey_state,omitempty"`
}

// NewAccessClaims builds access-token claims with a fresh jti.
func NewAccessClaims(subject, clientID, scope, journeyState, issuer string, ttl time.Duration, now time.Time) AccessClaims {
	return AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		ClientID:     clientID,
		Scope:        scope,
		JourneyState: journeyState,
	}
}

// AssertionClaims are the claims of a client assertion (RFC 7523). The client
// is both issuer and subject; the audience is our token endpoint.
type AssertionClaims struct {
	jwt.RegisteredClaims
}

// NewAssertionClaims builds claims for a client assertion.
func NewAssertionClaims(clientID, audience string, ttl time.Duration, now time.Time) AssertionClaims {
	return AssertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    clientID,
			Subject:   clientID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
