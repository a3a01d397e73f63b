package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/journey"
	"github.com/aussiebroadwan/accounts/internal/accounts/metrics"
	"github.com/aussiebroadwan/accounts/internal/accounts/redirect"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const (
	ResponseTypeCode = "code"

	DefaultErrorPage   = "/error"
	DefaultJourneyPath = "/v1/journeys/"
)

// AuthorizeRequest is the authorize entry input as the browser sent it.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string

	// SessionID is the caller's session cookie value, if any.
	SessionID string
}

// AuthorizeResult tells the transport where to send the browser and which
// session to set. SessionID is empty when no session was touched.
type AuthorizeResult struct {
	Location  string
	SessionID string
}

// AuthorizeService starts or resumes a journey on behalf of a client.
type AuthorizeService struct {
	Clients  ClientDirectory
	Machine  *journey.Machine
	Sessions *SessionManager
	Metrics  *metrics.Metrics

	// ErrorPage is our own page shown when the client or redirect URI
	// cannot be trusted. Defaults to DefaultErrorPage.
	ErrorPage string

	// JourneyPath is the prefix the scope is appended to for the first
	// journey step. Defaults to DefaultJourneyPath.
	JourneyPath string

	Now func() time.Time
}

// Authorize never returns an error for bad client input: an untrusted
// client or redirect URI goes to the internal error page, and anything wrong
// after the redirect URI is validated goes back to the client with an error
// parameter. Only store failures are returned as errors.
func (s *AuthorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	l := slogx.FromContext(ctx).With(slog.String("client_id", req.ClientID))

	client, err := s.Clients.Lookup(req.ClientID)
	if err != nil {
		l.Info("authorize: unknown client")
		return s.errorPage(KindInvalidRequest, "unknown_client"), nil
	}
	if !s.Clients.ValidateRedirectURI(client, req.RedirectURI) {
		l.Warn("authorize: redirect_uri not registered", slog.String("redirect_uri", req.RedirectURI))
		return s.errorPage(KindInvalidRequest, "redirect_uri_mismatch"), nil
	}

	// From here on the redirect URI is trusted.
	if req.ResponseType != ResponseTypeCode {
		return s.clientError(req, KindUnsupportedResponseType)
	}
	scope := strings.TrimSpace(req.Scope)
	if scope == "" || scope != client.Scope || !s.Machine.Has(scope) {
		return s.clientError(req, KindInvalidScope)
	}

	sess, err := s.Sessions.Load(ctx, req.SessionID)
	if err != nil {
		return nil, newError(KindServerError, err)
	}

	inst, err := s.resume(ctx, sess, scope)
	if err != nil {
		return nil, newError(KindServerError, err)
	}
	snap, err := s.Machine.Snapshot(inst)
	if err != nil {
		return nil, newError(KindServerError, err)
	}

	sess.State.Journeys[scope] = snap
	sess.State.Authorizations[scope] = domain.PendingAuthorization{
		ClientID:    client.ID,
		RedirectURI: req.RedirectURI,
		State:       req.State,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return nil, newError(KindServerError, err)
	}

	s.Metrics.ObserveAuthorize("journey")
	return &AuthorizeResult{
		Location:  s.journeyPath() + url.PathEscape(scope),
		SessionID: sess.ID,
	}, nil
}

// resume returns the session's journey for scope, or a new one. A stored
// snapshot that no longer restores is replaced, since the browser is about to
// start over anyway.
func (s *AuthorizeService) resume(ctx context.Context, sess *Session, scope string) (journey.Instance, error) {
	if snap, ok := sess.State.Journeys[scope]; ok {
		inst, err := s.Machine.Restore(scope, snap)
		switch {
		case err == nil && !s.Machine.IsTerminal(inst):
			return inst, nil
		case err != nil && !errors.Is(err, journey.ErrCorruptSnapshot):
			return journey.Instance{}, err
		case err != nil:
			slogx.FromContext(ctx).Warn("authorize: replacing corrupt journey", slog.String("scope", scope), slog.Any("error", err))
			s.Metrics.ObserveJourneyEvent(scope, "corrupt")
		}
	}
	return s.Machine.Create(scope)
}

func (s *AuthorizeService) errorPage(kind Kind, reason string) *AuthorizeResult {
	s.Metrics.ObserveAuthorize("error_page")
	page := s.ErrorPage
	if page == "" {
		page = DefaultErrorPage
	}
	location, err := redirect.Build(page, redirect.Params{
		Error: &redirect.ErrorParams{Type: kind.String(), Description: reason},
	})
	if err != nil {
		location = DefaultErrorPage
	}
	return &AuthorizeResult{Location: location}
}

func (s *AuthorizeService) clientError(req AuthorizeRequest, kind Kind) (*AuthorizeResult, error) {
	s.Metrics.ObserveAuthorize(kind.String())
	location, err := redirect.Build(req.RedirectURI, redirect.Params{
		State: req.State,
		Error: &redirect.ErrorParams{Type: kind.String(), Description: kind.Entry().Description},
	})
	if err != nil {
		return nil, newError(KindServerError, err)
	}
	return &AuthorizeResult{Location: location}, nil
}

func (s *AuthorizeService) journeyPath() string {
	if s.JourneyPath == "" {
		return DefaultJourneyPath
	}
	return s.JourneyPath
}

func (s *AuthorizeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
