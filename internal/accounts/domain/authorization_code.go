package domain

import "time"

// AuthorizationCode is issued when a journey reaches a terminal state and is
// exchanged once at the token endpoint.
type AuthorizationCode struct {
	ID           string
	ClientID     string
	CodeHash     string
	RedirectURI  string
	Scope        string
	Subject      string // fingerprint of the session that ran the journey
	JourneyState string // terminal state the journey ended in
	ExpiresAt    time.Time
	UsedAt       *time.Time
	CreatedAt    time.Time
}

// Usable reports whether the code can still be exchanged at now.
func (c AuthorizationCode) Usable(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}
