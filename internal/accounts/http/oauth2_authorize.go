package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// CookieOptions shapes the session cookie.
type CookieOptions struct {
	// Secure should only be off for plain-HTTP local development.
	Secure bool

	// MaxAge is the cookie lifetime. Zero makes it a browser-session cookie.
	MaxAge time.Duration
}

func (o CookieOptions) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     authsdk.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(o.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionID returns the session cookie's value, or "" without one.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(authsdk.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// AuthorizeHandler serves GET /v1/oauth2/authorize.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
	Cookie           CookieOptions
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Authorization Endpoint
//	@Description	Starts or resumes the journey named by scope and redirects the browser to its first step.
//	@Description	An unknown client or unregistered redirect_uri sends the browser to /error. Any other problem is reported to the redirect_uri with error and state parameters.
//	@Tags			OAuth2
//	@Param			response_type	query	string	true	"Must be code"	Enums(code)
//	@Param			client_id		query	string	true	"Registered client identifier"
//	@Param			redirect_uri	query	string	true	"Exactly one of the client's registered redirect URIs"
//	@Param			scope			query	string	true	"Journey to run"	Enums(delete-account, change-email, register-passkey)
//	@Param			state			query	string	false	"Opaque value echoed back to the client"
//	@Success		302				"Location is the journey step, the client's redirect_uri, or /error"
//	@Failure		500				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			302				{string}	Set-Cookie	"accounts_session"
//	@Router			/v1/oauth2/authorize [get].
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := h.AuthorizeService.Authorize(r.Context(), service.AuthorizeRequest{
		ResponseType: q.Get("response_type"),
		ClientID:     q.Get("client_id"),
		RedirectURI:  q.Get("redirect_uri"),
		Scope:        q.Get("scope"),
		State:        q.Get("state"),
		SessionID:    sessionID(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if res.SessionID != "" {
		http.SetCookie(w, h.Cookie.cookie(res.SessionID))
	}
	httpx.Found(w, res.Location)
}
