package domain

import (
	"encoding/json"
	"time"
)

// PendingAuthorization remembers where to send the browser once the scope's
// journey completes. It is only ever written after the redirect URI has been
// matched against the client registration.
type PendingAuthorization struct {
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	State       string    `json:"state,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionState is everything a browser session carries: at most one journey
// snapshot and one pending authorization per scope.
type SessionState struct {
	Journeys       map[string]json.RawMessage      `json:"journeys"`
	Authorizations map[string]PendingAuthorization `json:"authorizations"`
}

// NewSessionState returns an empty, ready to use state.
func NewSessionState() *SessionState {
	return &SessionState{
		Journeys:       make(map[string]json.RawMessage),
		Authorizations: make(map[string]PendingAuthorization),
	}
}

// Normalize replaces nil maps left by decoding an older or empty document.
func (s *SessionState) Normalize() {
	if s.Journeys == nil {
		s.Journeys = make(map[string]json.RawMessage)
	}
	if s.Authorizations == nil {
		s.Authorizations = make(map[string]PendingAuthorization)
	}
}

// Forget removes the journey and pending authorization for scope.
func (s *SessionState) Forget(scope string) {
	delete(s.Journeys, scope)
	delete(s.Authorizations, scope)
}

// Empty reports whether nothing is left worth persisting.
func (s *SessionState) Empty() bool {
	return len(s.Journeys) == 0 && len(s.Authorizations) == 0
}
