package authsdk

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// TokenPath is where the token endpoint lives relative to the base URL. The
// full URL is the audience every client assertion must name.
const TokenPath = "/v1/oauth2/token"

// SDKClient talks to the accounts service on behalf of one relying party.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// ClientID is the relying party's registered client_id.
	ClientID string

	// Signer signs client assertions. Its public key must be the one the
	// service resolves for ClientID.
	Signer jwtx.Signer

	// AssertionTTL is the lifetime of each client assertion. Defaults to
	// jwtx.DefaultAssertionTTL.
	AssertionTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewSDKClient creates a client for clientID. signer may be nil when only
// the unauthenticated endpoints are used.
func NewSDKClient(baseURL, clientID string, signer jwtx.Signer) *SDKClient {
	return &SDKClient{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		ClientID: clientID,
		Signer:   signer,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TokenEndpoint is the absolute token endpoint URL.
func (c *SDKClient) TokenEndpoint() string {
	return c.url(TokenPath)
}

func (c *SDKClient) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
