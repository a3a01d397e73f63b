package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessVerifier checks access tokens against a KeySet, selecting the key by
// the "kid" header. Relying parties use it through authsdk.
type AccessVerifier struct {
	Keys      *KeySet
	Algorithm string
	Issuer    string
	Leeway    time.Duration
}

// Verify validates raw for the given audience (the client ID).
func (v AccessVerifier) Verify(raw, audience string) (*AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.Leeway),
		jwt.WithIssuer(v.Issuer),
		jwt.WithAudience(audience),
	)

	claims := &AccessClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}
		return v.Keys.Get(kid)
	})
	if err != nil {
		return nil, fmt.Errorf("jwtx: verify access token: %w", err)
	}
	return claims, nil
}
