package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const DefaultSessionTTL = 30 * time.Minute

// Session is a browser session loaded for the duration of one request.
type Session struct {
	ID    string
	State *domain.SessionState

	// Fresh is true when no stored session was found and a new ID was minted.
	Fresh bool
}

// SessionManager loads a session once at the start of a request and saves it
// once at the end. Two requests racing on the same session both read the
// same starting state and the later save wins; sessions belong to a single
// browser, so this is accepted rather than locked against.
type SessionManager struct {
	Store  store.Sessions
	Sealer *cryptox.Sealer
	TTL    time.Duration
	Now    func() time.Time
}

func (m *SessionManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Load returns the session for id. A missing, expired or unreadable session
// yields a fresh one with a new ID; only store failures are errors.
func (m *SessionManager) Load(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		sealed, err := m.Store.Load(ctx, id)
		switch {
		case err == nil:
			state, err := m.open(id, sealed)
			if err == nil {
				return &Session{ID: id, State: state}, nil
			}
			slogx.FromContext(ctx).Warn("discarding unreadable session", "error", err)
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("load session: %w", err)
		}
	}
	return m.fresh()
}

// Save persists the session, or removes it when nothing is left in it.
func (m *SessionManager) Save(ctx context.Context, s *Session) error {
	if s.State.Empty() {
		if s.Fresh {
			return nil
		}
		if err := m.Store.Delete(ctx, s.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sealed, err := m.Sealer.Seal(raw, []byte(s.ID))
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	ttl := orDefault(m.TTL, DefaultSessionTTL)
	if err := m.Store.Save(ctx, s.ID, sealed, m.now().Add(ttl)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.Fresh = false
	return nil
}

func (m *SessionManager) open(id string, sealed []byte) (*domain.SessionState, error) {
	raw, err := m.Sealer.Open(sealed, []byte(id))
	if err != nil {
		return nil, err
	}
	state := domain.NewSessionState()
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	state.Normalize()
	return state, nil
}

func (m *SessionManager) fresh() (*Session, error) {
	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, State: domain.NewSessionState(), Fresh: true}, nil
}
