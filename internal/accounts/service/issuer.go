package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

const DefaultCodeTTL = 60 * time.Second

// ErrCodeRejected covers every reason a code cannot be redeemed: unknown,
// expired, already used, or issued to a different client.
var ErrCodeRejected = errors.New("authorization code rejected")

// CodeGrant is what a finished journey hands over to be bound into a code.
type CodeGrant struct {
	ClientID     string
	RedirectURI  string
	Scope        string
	Subject      string
	JourneyState string
}

// CodeIssuer mints single-use authorization codes and redeems them.
type CodeIssuer interface {
	Issue(ctx context.Context, grant CodeGrant) (string, error)
	Exchange(ctx context.Context, clientID, code string) (*domain.TokenPair, error)
}

// StoreIssuer keeps code fingerprints in the store and signs access tokens
// with the service's own keys.
type StoreIssuer struct {
	Store      store.Store
	KeyManager *jwtx.KeyManager
	Issuer     string
	CodeTTL    time.Duration
	AccessTTL  time.Duration
	Now        func() time.Time
}

func (s *StoreIssuer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *StoreIssuer) Issue(ctx context.Context, grant CodeGrant) (string, error) {
	code, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}

	now := s.now()
	err = s.Store.AuthorizationCodes().Create(ctx, domain.AuthorizationCode{
		ID:           idx.NewAt(now).String(),
		ClientID:     grant.ClientID,
		CodeHash:     cryptox.FingerprintToken(code),
		RedirectURI:  grant.RedirectURI,
		Scope:        grant.Scope,
		Subject:      grant.Subject,
		JourneyState: grant.JourneyState,
		ExpiresAt:    now.Add(orDefault(s.CodeTTL, DefaultCodeTTL)),
		CreatedAt:    now,
	})
	if err != nil {
		return "", fmt.Errorf("store authorization code: %w", err)
	}
	return code, nil
}

// Exchange consumes the code and signs an access token for the journey it
// recorded. Lookup, checks and consumption share one transaction.
func (s *StoreIssuer) Exchange(ctx context.Context, clientID, code string) (*domain.TokenPair, error) {
	now := s.now()
	ttl := orDefault(s.AccessTTL, jwtx.DefaultAccessTokenTTL)

	var pair *domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		ac, err := tx.AuthorizationCodes().GetByHash(ctx, cryptox.FingerprintToken(code))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCodeRejected
			}
			return err
		}
		if ac.ClientID != clientID || !ac.Usable(now) {
			return ErrCodeRejected
		}

		if err := tx.AuthorizationCodes().MarkUsed(ctx, ac.ID, now); err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				return ErrCodeRejected
			}
			return err
		}

		signer := s.KeyManager.GetSigner()
		if signer == nil {
			return errors.New("no signing key available")
		}
		token, err := signer.Sign(jwtx.NewAccessClaims(ac.Subject, ac.ClientID, ac.Scope, ac.JourneyState, s.Issuer, ttl, now))
		if err != nil {
			return fmt.Errorf("sign access token: %w", err)
		}

		pair = &domain.TokenPair{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(ttl.Seconds()),
			Scope:       ac.Scope,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}
