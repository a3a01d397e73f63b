package keys

import (
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const (
	DefaultJWKSCacheTTL       = 5 * time.Minute
	DefaultMinRefreshInterval = 10 * time.Second
	DefaultFetchTimeout       = 10 * time.Second

	maxJWKSBody = 1 << 20
)

// JWKSOptions configures a JWKSResolver.
type JWKSOptions struct {
	URL        string
	HTTPClient *http.Client

	// CacheTTL is how long a fetched set is trusted before the next lookup
	// refreshes it.
	CacheTTL time.Duration

	// MinRefreshInterval bounds how often an unknown alias can force a fetch.
	MinRefreshInterval time.Duration

	// FetchTimeout bounds one shared fetch. Callers stop waiting on their
	// own context well before that.
	FetchTimeout time.Duration

	Now func() time.Time
}

// JWKSResolver fetches the custodial key service's JWKS and caches it. The
// alias is the JWK kid. Concurrent lookups share a single fetch.
type JWKSResolver struct {
	opts  JWKSOptions
	set   *jwtx.KeySet
	group singleflight.Group

	mu          sync.Mutex
	fetchedAt   time.Time
	attemptedAt time.Time
	inflight    bool
}

// NewJWKSResolver validates opts and returns a resolver with an empty cache.
func NewJWKSResolver(opts JWKSOptions) (*JWKSResolver, error) {
	if opts.URL == "" {
		return nil, errors.New("keys: jwks url is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultJWKSCacheTTL
	}
	if opts.MinRefreshInterval <= 0 {
		opts.MinRefreshInterval = DefaultMinRefreshInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &JWKSResolver{opts: opts, set: jwtx.NewKeySet()}, nil
}

func (r *JWKSResolver) VerificationKey(ctx context.Context, alias string) (crypto.PublicKey, error) {
	if alias == "" {
		return nil, ErrKeyNotFound
	}

	r.mu.Lock()
	now := r.opts.Now()
	stale := r.fetchedAt.IsZero() || now.Sub(r.fetchedAt) >= r.opts.CacheTTL

	if !stale {
		if k, err := r.set.Get(alias); err == nil {
			r.mu.Unlock()
			return k, nil
		}
	}

	// A miss or a stale cache may refresh, but not more often than the floor.
	// A fetch already in flight is joined instead.
	if !r.inflight && !r.attemptedAt.IsZero() && now.Sub(r.attemptedAt) < r.opts.MinRefreshInterval {
		first := r.fetchedAt.IsZero()
		r.mu.Unlock()
		if k, err := r.set.Get(alias); err == nil {
			return k, nil
		}
		if first {
			return nil, &TransportError{Op: "fetch jwks", Err: errors.New("refresh throttled before first successful fetch")}
		}
		return nil, ErrKeyNotFound
	}

	if !r.inflight {
		r.attemptedAt = now
		r.inflight = true
	}
	// DoChan is called under mu so the flight cannot finish between the
	// inflight check and joining it.
	ch := r.group.DoChan("jwks", func() (any, error) {
		return nil, r.fetch(ctx, now)
	})
	r.mu.Unlock()

	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		return nil, &TransportError{Op: "fetch jwks", Err: ctx.Err()}
	}

	if err != nil {
		// Serve the old key if we still have one.
		if k, getErr := r.set.Get(alias); getErr == nil {
			slogx.FromContext(ctx).Warn("jwks refresh failed, serving cached key", "error", err)
			return k, nil
		}
		return nil, err
	}

	k, err := r.set.Get(alias)
	if err != nil {
		return nil, ErrKeyNotFound
	}
	return k, nil
}

// fetch runs one shared refresh. It outlives the caller that started it so
// the other waiters still get a result.
func (r *JWKSResolver) fetch(ctx context.Context, startedAt time.Time) error {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.FetchTimeout)
	defer cancel()

	err := r.refresh(fetchCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	// Later callers start a new flight rather than join this finished one.
	r.group.Forget("jwks")
	r.inflight = false
	if err == nil {
		r.fetchedAt = startedAt
	}
	return err
}

// Ready reports whether at least one successful fetch has happened.
func (r *JWKSResolver) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.fetchedAt.IsZero()
}

func (r *JWKSResolver) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.URL, nil)
	if err != nil {
		return &TransportError{Op: "build jwks request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.opts.HTTPClient.Do(req)
	if err != nil {
		return &TransportError{Op: "fetch jwks", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxJWKSBody))
		return &TransportError{Op: "fetch jwks", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var jwks jwtx.JWKS
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBody)).Decode(&jwks); err != nil {
		return &TransportError{Op: "decode jwks", Err: err}
	}

	skipped, err := r.set.ResetFromJWKS(jwks)
	if err != nil {
		return &TransportError{Op: "load jwks", Err: err}
	}
	slogx.FromContext(ctx).Debug("jwks refreshed", "keys", r.set.Len(), "skipped", skipped)
	return nil
}
