package service

import (
	"context"
	"crypto"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/clients"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/journey"
	"github.com/aussiebroadwan/accounts/internal/accounts/keys"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "rp-1"
	testKeyAlias    = "rp-1-signing"
	testRedirectURI = "https://rp.example.com/callback"
	testAudience    = "https://accounts.example.com/v1/oauth2/token"
	testIssuer      = "https://accounts.example.com"
)

// countingResolver records how often the key service was asked.
type countingResolver struct {
	inner keys.Resolver
	calls atomic.Int32
}

func (r *countingResolver) VerificationKey(ctx context.Context, alias string) (crypto.PublicKey, error) {
	r.calls.Add(1)
	return r.inner.VerificationKey(ctx, alias)
}

// countingNonces records calls and can be told to fail or stall.
type countingNonces struct {
	inner   store.Nonces
	checks  atomic.Int32
	records atomic.Int32

	mu        sync.Mutex
	recordErr error
	block     bool
}

func (n *countingNonces) HasBeenUsed(ctx context.Context, jti string) (bool, error) {
	n.checks.Add(1)
	return n.inner.HasBeenUsed(ctx, jti)
}

func (n *countingNonces) RecordUsed(ctx context.Context, jti string, exp time.Time) error {
	n.records.Add(1)
	n.mu.Lock()
	err, block := n.recordErr, n.block
	n.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return n.inner.RecordUsed(ctx, jti, exp)
}

func (n *countingNonces) calls() int32 { return n.checks.Load() + n.records.Load() }

type harness struct {
	store     *sqlite.Store
	registry  *clients.Registry
	resolver  *countingResolver
	nonces    *countingNonces
	keys      *jwtx.KeyManager
	rpSigner  jwtx.Signer
	sessions  *SessionManager
	issuer    *StoreIssuer
	tokens    *TokenService
	authorize *AuthorizeService
	journeys  *JourneyService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	registry, err := clients.NewRegistry(ctx, clients.StaticSource{
		{
			ID:           testClientID,
			Name:         "Relying Party",
			Scope:        journey.ScopeDeleteAccount,
			RedirectURIs: []string{testRedirectURI},
			KeyAlias:     testKeyAlias,
		},
		{
			ID:           "rp-lost-key",
			Name:         "Relying Party Without Key",
			Scope:        journey.ScopeChangeEmail,
			RedirectURIs: []string{"https://lost.example.com/cb"},
			KeyAlias:     "missing",
		},
	})
	require.NoError(t, err)

	pemKey, err := cryptox.GenerateES256Key()
	require.NoError(t, err)
	rpSigner, err := jwtx.NewSignerES256(testKeyAlias, pemKey)
	require.NoError(t, err)
	rpPub, err := rpSigner.PublicJWK().PublicKey()
	require.NoError(t, err)

	resolver := &countingResolver{inner: keys.NewStaticResolver(map[string]crypto.PublicKey{testKeyAlias: rpPub})}
	nonces := &countingNonces{inner: st.Nonces()}

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmES256, NumKeys: 1})
	require.NoError(t, err)

	sealer, err := cryptox.NewSealer([]byte("test session key material"))
	require.NoError(t, err)

	sessions := &SessionManager{Store: st.Sessions(), Sealer: sealer}
	issuer := &StoreIssuer{Store: st, KeyManager: km, Issuer: testIssuer}
	machine := journey.Default()

	return &harness{
		store:    st,
		registry: registry,
		resolver: resolver,
		nonces:   nonces,
		keys:     km,
		rpSigner: rpSigner,
		sessions: sessions,
		issuer:   issuer,
		tokens: &TokenService{
			Clients:      registry,
			Keys:         resolver,
			Nonces:       nonces,
			Codes:        issuer,
			Audience:     testAudience,
			KeyTimeout:   time.Second,
			NonceTimeout: time.Second,
		},
		authorize: &AuthorizeService{Clients: registry, Machine: machine, Sessions: sessions},
		journeys:  &JourneyService{Machine: machine, Sessions: sessions, Codes: issuer},
	}
}

// assertion signs a client assertion for rp-1 with the given jti.
func (h *harness) assertion(t *testing.T, jti string, mutate ...func(*jwtx.AssertionClaims)) string {
	t.Helper()
	claims := jwtx.NewAssertionClaims(testClientID, testAudience, time.Minute, time.Now())
	claims.ID = jti
	for _, m := range mutate {
		m(&claims)
	}
	raw, err := h.rpSigner.Sign(claims)
	require.NoError(t, err)
	return raw
}

func (h *harness) tokenRequest(code, assertion string) domain.TokenRequest {
	return domain.TokenRequest{
		GrantType:           domain.GrantTypeAuthorizationCode,
		Code:                code,
		ClientAssertionType: domain.ClientAssertionTypeJWTBearer,
		ClientAssertion:     assertion,
	}
}

// completeJourney runs delete-account end to end and returns the code the
// client receives.
func (h *harness) completeJourney(t *testing.T, state string) string {
	t.Helper()
	ctx := context.Background()

	res, err := h.authorize.Authorize(ctx, AuthorizeRequest{
		ResponseType: ResponseTypeCode,
		ClientID:     testClientID,
		RedirectURI:  testRedirectURI,
		Scope:        journey.ScopeDeleteAccount,
		State:        state,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)

	for _, tag := range []journey.EventTag{journey.ValidatePassword, journey.Confirm} {
		step, err := h.journeys.Send(ctx, res.SessionID, journey.ScopeDeleteAccount, journey.Event{Tag: tag})
		require.NoError(t, err)
		require.True(t, step.Applied)
		if step.Journey.Terminal {
			u, err := url.Parse(step.Location)
			require.NoError(t, err)
			return u.Query().Get("code")
		}
	}
	t.Fatal("journey did not complete")
	return ""
}
