//go:build e2e

package accounts_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

func TestHealthEndpoints(t *testing.T) {
	rp := setupAccountsContainer(t, nil)
	ctx := t.Context()

	live, err := rp.sdk.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, ok, err := rp.sdk.GetReadiness(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Clients)
	require.Equal(t, "ok", ready.Checks.Keys)
}

func TestJWKS(t *testing.T) {
	rp := setupAccountsContainer(t, map[string]string{"ACCOUNTS_NUM_KEYS": "3"})

	set, err := rp.sdk.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, set.Keys, 3)
	for _, k := range set.Keys {
		require.NotEmpty(t, k.Kid)
	}
}

// TestRateLimitTokenEndpoint uses a tight token limit to check the limiter
// sits in front of the exchange.
func TestRateLimitTokenEndpoint(t *testing.T) {
	rp := setupAccountsContainer(t, map[string]string{
		"ACCOUNTS_RATELIMIT_TOKEN_REQUESTS": "3",
		"ACCOUNTS_RATELIMIT_TOKEN_BURST":    "3",
	})

	var last *http.Response
	for i := range 5 {
		form := url.Values{"grant_type": {"authorization_code"}, "code": {"x"}}
		resp, err := http.Post(rp.sdk.TokenEndpoint(), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		resp.Body.Close()
		if i < 3 {
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, "request %d should reach the handler", i+1)
		}
		last = resp
	}

	require.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	require.NotEmpty(t, last.Header.Get("Retry-After"))
}

func TestSecurityHeaders(t *testing.T) {
	rp := setupAccountsContainer(t, nil)

	resp, err := http.Get(rp.baseURL + "/error?error=invalid_request")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.NotEmpty(t, resp.Header.Get(slogx.RequestIDHeader))
}
