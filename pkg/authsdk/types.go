package authsdk

import (
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// ErrorResponse is the RFC 6749 error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is returned from POST /v1/oauth2/token. There is no refresh
// token; every journey is a one-shot grant.
type TokenResponse struct {
	// AccessToken is a JWT whose journey_state claim says how the journey
	// ended.
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`

	// Scope is the journey the token was issued for.
	Scope string `json:"scope,omitempty"`
}

// ============================================================================
// Journey Types
// ============================================================================

// Journey is the view of a journey returned by the journey endpoints.
type Journey struct {
	Scope    string            `json:"scope"`
	State    string            `json:"state"`
	Context  map[string]string `json:"context"`
	Accepts  []string          `json:"accepts"`
	Terminal bool              `json:"terminal"`
}

// JourneyResponse is returned from GET /v1/journeys/{scope} and from posting
// an event.
type JourneyResponse struct {
	Journey Journey `json:"journey"`

	// Applied is false when the submitted event was not accepted in the
	// journey's current state. The journey is unchanged in that case.
	Applied bool `json:"applied"`

	// RedirectTo is set once the journey completes. The browser should be
	// sent there; it carries the authorization code and state.
	RedirectTo string `json:"redirect_to,omitempty"`
}

// JourneyEventRequest is the body of POST /v1/journeys/{scope}/events.
type JourneyEventRequest struct {
	Event string            `json:"event"`
	Data  map[string]string `json:"data,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned from /livez and /readyz.
type HealthResponse struct {
	// Status is "ok" or "degraded".
	Status string `json:"status"`

	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`

	// Checks is only present on /readyz.
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency /readyz looks at.
type HealthChecks struct {
	Database string `json:"database"`
	Nonces   string `json:"nonces"`
	Signer   string `json:"signer"`
	Clients  string `json:"clients"`
	Keys     string `json:"keys"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse is the key set served at /.well-known/jwks.json. It holds the
// public keys that verify access tokens.
type JWKSResponse jwtx.JWKS
