package domain

import (
	"errors"
	"fmt"
)

const (
	GrantTypeAuthorizationCode = "authorization_code"

	// ClientAssertionTypeJWTBearer is the only assertion type accepted (RFC 7523).
	ClientAssertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
)

// ErrMalformedTokenRequest is wrapped by TokenRequest.Validate.
var ErrMalformedTokenRequest = errors.New("malformed token request")

// TokenRequest is the token endpoint input. It is validated once and never
// mutated.
type TokenRequest struct {
	GrantType           string
	Code                string
	ClientAssertionType string
	ClientAssertion     string
}

// Validate performs the structural checks only; nothing here does I/O.
func (r TokenRequest) Validate() error {
	switch {
	case r.GrantType != GrantTypeAuthorizationCode:
		return fmt.Errorf("%w: unsupported grant_type %q", ErrMalformedTokenRequest, r.GrantType)
	case r.Code == "":
		return fmt.Errorf("%w: code is required", ErrMalformedTokenRequest)
	case r.ClientAssertionType != ClientAssertionTypeJWTBearer:
		return fmt.Errorf("%w: unsupported client_assertion_type", ErrMalformedTokenRequest)
	case r.ClientAssertion == "":
		return fmt.Errorf("%w: client_assertion is required", ErrMalformedTokenRequest)
	}
	return nil
}

// TokenPair is what the token endpoint returns. There is no refresh token:
// each journey is a one-shot grant.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}
