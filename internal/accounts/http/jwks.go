package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// JWKSHandler exposes the keys that verify access tokens.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
