package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

const clientAssertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// ErrNoSigner is returned when a call needs a client assertion but the
// client has no Signer.
var ErrNoSigner = errors.New("authsdk: no assertion signer configured")

// NewClientAssertion signs a single-use client assertion (RFC 7523) for
// clientID, addressed to audience. Each call gets a fresh jti; the service
// rejects a jti it has seen before.
func NewClientAssertion(signer jwtx.Signer, clientID, audience string, ttl time.Duration, now time.Time) (string, error) {
	if signer == nil {
		return "", ErrNoSigner
	}
	if ttl <= 0 {
		ttl = jwtx.DefaultAssertionTTL
	}

	assertion, err := signer.Sign(jwtx.NewAssertionClaims(clientID, audience, ttl, now))
	if err != nil {
		return "", fmt.Errorf("failed to sign client assertion: %w", err)
	}
	return assertion, nil
}

// ExchangeCode trades an authorization code for an access token,
// authenticating with a freshly signed client assertion.
func (c *SDKClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	assertion, err := NewClientAssertion(c.Signer, c.ClientID, c.TokenEndpoint(), c.AssertionTTL, c.now())
	if err != nil {
		return nil, err
	}
	return c.ExchangeCodeWithAssertion(ctx, code, assertion)
}

// ExchangeCodeWithAssertion is ExchangeCode with a caller-supplied
// assertion. Sending the same assertion twice fails with invalid_grant.
func (c *SDKClient) ExchangeCodeWithAssertion(ctx context.Context, code, assertion string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":            {"authorization_code"},
		"code":                  {code},
		"client_assertion_type": {clientAssertionTypeJWTBearer},
		"client_assertion":      {assertion},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, TokenPath, strings.NewReader(data.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
