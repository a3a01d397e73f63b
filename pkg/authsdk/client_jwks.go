package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// GetJWKS retrieves the JSON Web Key Set for token verification.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}

	return &jwks, nil
}

// NewAccessVerifier fetches the service's key set and returns a verifier for
// access tokens issued by issuer. The algorithm is taken from the published
// keys. Call it again after the service restarts, since its signing keys
// are ephemeral.
func (c *SDKClient) NewAccessVerifier(ctx context.Context, issuer string) (*jwtx.AccessVerifier, error) {
	jwks, err := c.GetJWKS(ctx)
	if err != nil {
		return nil, err
	}
	if len(jwks.Keys) == 0 {
		return nil, errors.New("authsdk: key set is empty")
	}

	keys := jwtx.NewKeySet()
	if _, err := keys.ResetFromJWKS(jwtx.JWKS(*jwks)); err != nil {
		return nil, fmt.Errorf("failed to load key set: %w", err)
	}

	return &jwtx.AccessVerifier{
		Keys:      keys,
		Algorithm: jwks.Keys[0].Alg,
		Issuer:    issuer,
		Leeway:    30 * time.Second,
	}, nil
}
