package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// maxFormBody bounds the token request body. An assertion is well under this.
const maxFormBody = 64 << 10

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Exchanges an authorization code for an access token. The client authenticates with a signed JWT assertion (RFC 7523); each assertion jti is accepted once.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type				formData	string					true	"Grant type"	Enums(authorization_code)
//	@Param			code					formData	string					true	"Authorization code from the redirect"
//	@Param			client_assertion_type	formData	string					true	"Assertion type"	Enums(urn:ietf:params:oauth:client-assertion-type:jwt-bearer)
//	@Param			client_assertion		formData	string					true	"Signed JWT with iss=sub=client_id, aud=token endpoint, exp and jti"
//	@Success		200						{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, scope"
//	@Failure		400						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200						{string}	Cache-Control			"no-store"
//	@Header			200						{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		writeKind(w, service.KindInvalidRequest)
		return
	}

	// 2. Parse the form body
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		writeKind(w, service.KindInvalidRequest)
		return
	}

	// 3. Run the exchange
	pair, err := h.TokenService.Exchange(r.Context(), domain.TokenRequest{
		GrantType:           r.PostForm.Get("grant_type"),
		Code:                r.PostForm.Get("code"),
		ClientAssertionType: r.PostForm.Get("client_assertion_type"),
		ClientAssertion:     r.PostForm.Get("client_assertion"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   pair.ExpiresIn,
		Scope:       pair.Scope,
	})
}
