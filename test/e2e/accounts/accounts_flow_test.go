//go:build e2e

package accounts_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/pkg/authsdk"
)

// TestDeleteAccountJourney runs the whole relying-party flow against the
// container: authorize, journey steps, code exchange and token verification.
func TestDeleteAccountJourney(t *testing.T) {
	rp := setupAccountsContainer(t, nil)
	ctx := t.Context()

	state, err := authsdk.GenerateState()
	require.NoError(t, err)

	session, location := rp.authorize(t, state)
	require.NotEmpty(t, session)
	require.Equal(t, "/v1/journeys/delete-account", location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rp.baseURL+location, nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: authsdk.SessionCookieName, Value: session})
	resp, err := rp.browser.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	journey, err := rp.sdk.GetJourney(ctx, session, "delete-account")
	require.NoError(t, err)
	require.Equal(t, "PASSWORD_NOT_PROVIDED", journey.Journey.State)
	require.Contains(t, journey.Journey.Accepts, "VALIDATE_PASSWORD")

	code := rp.completeJourney(t, session, state)
	require.NotEmpty(t, code)

	tok, err := rp.sdk.ExchangeCodeWithAssertion(ctx, code, rp.assertion(t))
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, "delete-account", tok.Scope)
	require.Positive(t, tok.ExpiresIn)

	verifier, err := rp.sdk.NewAccessVerifier(ctx, publicURL)
	require.NoError(t, err)
	claims, err := verifier.Verify(tok.AccessToken, clientID)
	require.NoError(t, err)
	require.NotEmpty(t, claims.Subject)

	t.Run("code is single use", func(t *testing.T) {
		_, err := rp.sdk.ExchangeCodeWithAssertion(ctx, code, rp.assertion(t))
		assertOAuthError(t, err, authsdk.ErrorCodeInvalidGrant)
	})

	t.Run("journey is gone after completion", func(t *testing.T) {
		_, err := rp.sdk.GetJourney(ctx, session, "delete-account")
		assertOAuthError(t, err, authsdk.ErrorCodeNotFound)
	})
}

// TestAssertionReplay verifies a jti is accepted once, even when the first
// use failed on the code.
func TestAssertionReplay(t *testing.T) {
	rp := setupAccountsContainer(t, nil)
	ctx := t.Context()

	assertion := rp.assertion(t)

	_, err := rp.sdk.ExchangeCodeWithAssertion(ctx, "not-a-real-code", assertion)
	assertOAuthError(t, err, authsdk.ErrorCodeInvalidGrant)

	state, err := authsdk.GenerateState()
	require.NoError(t, err)
	session, _ := rp.authorize(t, state)
	code := rp.completeJourney(t, session, state)

	_, err = rp.sdk.ExchangeCodeWithAssertion(ctx, code, assertion)
	assertOAuthError(t, err, authsdk.ErrorCodeInvalidGrant)

	// A fresh assertion still redeems the code.
	_, err = rp.sdk.ExchangeCodeWithAssertion(ctx, code, rp.assertion(t))
	require.NoError(t, err)
}

// TestUntrustedRedirects verifies the service never redirects to a URI it
// cannot vouch for.
func TestUntrustedRedirects(t *testing.T) {
	rp := setupAccountsContainer(t, nil)

	tests := []struct {
		name     string
		clientID string
		redirect string
		reason   string
	}{
		{"unknown client", "rp-unknown", redirectURI, "unknown_client"},
		{"unregistered redirect", clientID, "https://evil.example.com/callback", "redirect_uri_mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := authsdk.NewSDKClient(rp.baseURL, tt.clientID, nil)
			resp, err := rp.browser.Get(sdk.BuildAuthorizeURL(tt.redirect, "st", "delete-account"))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusFound, resp.StatusCode)
			loc, err := url.Parse(resp.Header.Get("Location"))
			require.NoError(t, err)
			require.Equal(t, "/error", loc.Path)
			require.Equal(t, tt.reason, loc.Query().Get("error_description"))
			require.Empty(t, resp.Cookies())
		})
	}
}
