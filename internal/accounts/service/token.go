package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/keys"
	"github.com/aussiebroadwan/accounts/internal/accounts/metrics"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const (
	DefaultKeyTimeout   = 3 * time.Second
	DefaultNonceTimeout = 2 * time.Second
	DefaultIssueTimeout = 5 * time.Second
)

// ClientDirectory is the read side of the client registry.
type ClientDirectory interface {
	Lookup(id string) (domain.ClientRegistration, error)
	ValidateRedirectURI(client domain.ClientRegistration, candidate string) bool
}

// TokenService exchanges an authorization code for an access token. The
// client authenticates with a signed assertion instead of a secret.
type TokenService struct {
	Clients ClientDirectory
	Keys    keys.Resolver
	Nonces  store.Nonces
	Codes   CodeIssuer
	Metrics *metrics.Metrics

	// Algorithm is the only assertion alg accepted. Defaults to ES256.
	Algorithm string

	// Audience is our token endpoint URL; assertions must name it in aud.
	Audience string

	Leeway               time.Duration
	MaxAssertionLifetime time.Duration

	KeyTimeout   time.Duration
	NonceTimeout time.Duration
	IssueTimeout time.Duration

	Now func() time.Time
}

// Exchange runs the token pipeline. Each stage fails fast, so a request that
// is structurally invalid never reaches the key resolver or nonce store.
//
// The replay check runs on the unverified jti before any key is fetched: a
// recorded jti is invalid_grant whatever its signature. The jti is only
// recorded once the signature verifies.
func (s *TokenService) Exchange(ctx context.Context, req domain.TokenRequest) (*domain.TokenPair, error) {
	pair, err := s.exchange(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	s.Metrics.ObserveTokenExchange(outcome)
	return pair, err
}

func (s *TokenService) exchange(ctx context.Context, req domain.TokenRequest) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	// 1. Structure.
	if err := req.Validate(); err != nil {
		return nil, newError(KindInvalidRequest, err)
	}

	peek, err := jwtx.PeekAssertion(req.ClientAssertion)
	if err != nil {
		return nil, newError(KindInvalidRequest, err)
	}
	if peek.Issuer == "" || peek.ID == "" {
		return nil, errorf(KindInvalidRequest, "assertion is missing iss or jti")
	}

	// 2. Replay pre-check.
	used, err := s.hasBeenUsed(ctx, peek.ID)
	if err != nil {
		return nil, newError(KindServerError, err)
	}
	if used {
		l.Warn("client assertion replayed", slog.String("client_id", peek.Issuer))
		return nil, errorf(KindInvalidGrant, "assertion jti already used")
	}

	// 3. Key resolution.
	client, err := s.Clients.Lookup(peek.Issuer)
	if err != nil {
		return nil, newError(KindInvalidClient, err)
	}

	key, err := s.verificationKey(ctx, client.KeyAlias)
	if err != nil {
		// Whether the key is missing or the key service is down is logged,
		// never returned.
		l.Error("client key resolution failed",
			slog.String("client_id", client.ID),
			slog.String("key_alias", client.KeyAlias),
			slog.Any("error", err),
		)
		return nil, newError(KindServerError, err)
	}

	// 4. Signature and claims.
	claims, err := jwtx.VerifyAssertion(req.ClientAssertion, key, jwtx.AssertionOptions{
		Algorithm:   s.algorithm(),
		ClientID:    client.ID,
		Audience:    s.Audience,
		Leeway:      s.Leeway,
		MaxLifetime: s.MaxAssertionLifetime,
		Now:         s.Now,
	})
	if err != nil {
		l.Info("client assertion rejected", slog.String("client_id", client.ID), slog.Any("error", err))
		return nil, newError(KindInvalidRequest, err)
	}

	// 5. Record the jti before anything is issued. Losing the race to a
	// concurrent duplicate is a replay.
	if err := s.recordUsed(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		if errors.Is(err, store.ErrConflict) {
			l.Warn("client assertion replayed concurrently", slog.String("client_id", client.ID))
			return nil, newError(KindInvalidGrant, err)
		}
		return nil, newError(KindServerError, err)
	}

	// 6. Issue.
	pair, err := s.issue(ctx, client.ID, req.Code)
	if err != nil {
		if errors.Is(err, ErrCodeRejected) {
			return nil, newError(KindInvalidGrant, err)
		}
		return nil, newError(KindServerError, err)
	}

	l.Info("token issued", slog.String("client_id", client.ID), slog.String("scope", pair.Scope))
	return pair, nil
}

func (s *TokenService) algorithm() string {
	if s.Algorithm == "" {
		return jwtx.AlgorithmES256
	}
	return s.Algorithm
}

// detached returns a context that survives the caller disconnecting but
// still gives up after d. Nonce writes in flight must not be abandoned.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

func (s *TokenService) verificationKey(ctx context.Context, alias string) (any, error) {
	ctx, cancel := detached(ctx, orDefault(s.KeyTimeout, DefaultKeyTimeout))
	defer cancel()
	return s.Keys.VerificationKey(ctx, alias)
}

func (s *TokenService) hasBeenUsed(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := detached(ctx, orDefault(s.NonceTimeout, DefaultNonceTimeout))
	defer cancel()
	return s.Nonces.HasBeenUsed(ctx, jti)
}

func (s *TokenService) recordUsed(ctx context.Context, jti string, expiresAt time.Time) error {
	ctx, cancel := detached(ctx, orDefault(s.NonceTimeout, DefaultNonceTimeout))
	defer cancel()
	return s.Nonces.RecordUsed(ctx, jti, expiresAt)
}

// issue runs detached as well: once the jti is recorded the code exchange
// either completes or fails on its own timeout.
func (s *TokenService) issue(ctx context.Context, clientID, code string) (*domain.TokenPair, error) {
	ctx, cancel := detached(ctx, orDefault(s.IssueTimeout, DefaultIssueTimeout))
	defer cancel()
	return s.Codes.Exchange(ctx, clientID, code)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
