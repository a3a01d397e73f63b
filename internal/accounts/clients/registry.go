// Package clients resolves relying-party registrations and decides which
// redirect targets they may use.
package clients

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

var ErrNotFound = errors.New("clients: client not found")

// ReloadObserver is told about every reload attempt.
type ReloadObserver interface {
	ObserveRegistryReload(clients int, err error)
}

type snapshot struct {
	byID     map[string]domain.ClientRegistration
	loadedAt time.Time
}

// Registry is an immutable snapshot of client registrations that can be
// swapped wholesale. Reads never lock.
type Registry struct {
	source   Source
	known    func(scope string) bool
	observer ReloadObserver

	snap atomic.Pointer[snapshot]
}

// Option configures a Registry.
type Option func(*Registry)

// WithScopeCheck rejects registrations whose scope fails known.
func WithScopeCheck(known func(scope string) bool) Option {
	return func(r *Registry) { r.known = known }
}

// WithObserver reports reloads to o.
func WithObserver(o ReloadObserver) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry loads src once. A registry that cannot load at start is an
// error; later reload failures keep the previous snapshot.
func NewRegistry(ctx context.Context, src Source, opts ...Option) (*Registry, error) {
	r := &Registry{source: src}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload replaces the whole snapshot from the source. The previous snapshot
// stays in place if loading or validation fails.
func (r *Registry) Reload(ctx context.Context) error {
	next, err := r.load(ctx)
	if r.observer != nil {
		n := 0
		if next != nil {
			n = len(next.byID)
		}
		r.observer.ObserveRegistryReload(n, err)
	}
	if err != nil {
		return err
	}

	r.snap.Store(next)
	slogx.FromContext(ctx).Info("client registry loaded", "clients", len(next.byID))
	return nil
}

func (r *Registry) load(ctx context.Context) (*snapshot, error) {
	list, err := r.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("clients: load: %w", err)
	}
	if err := Validate(list, r.known); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.ClientRegistration, len(list))
	for _, c := range list {
		byID[c.ID] = c.Clone()
	}
	return &snapshot{byID: byID, loadedAt: time.Now().UTC()}, nil
}

// Validate checks a registration list: unique non-empty IDs, at least one
// redirect URI and a key alias per client, and (when known is set) a journey
// scope the service offers.
func Validate(list []domain.ClientRegistration, known func(scope string) bool) error {
	seen := make(map[string]struct{}, len(list))
	var errs []error

	for i, c := range list {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("client #%d: client_id is required", i))
			continue
		case len(c.RedirectURIs) == 0:
			errs = append(errs, fmt.Errorf("client %q: at least one redirect_uri is required", c.ID))
		case c.KeyAlias == "":
			errs = append(errs, fmt.Errorf("client %q: key_alias is required", c.ID))
		case c.Scope == "":
			errs = append(errs, fmt.Errorf("client %q: scope is required", c.ID))
		case known != nil && !known(c.Scope):
			errs = append(errs, fmt.Errorf("client %q: unknown scope %q", c.ID, c.Scope))
		}

		if _, dup := seen[c.ID]; dup {
			errs = append(errs, fmt.Errorf("client %q: duplicate client_id", c.ID))
		}
		seen[c.ID] = struct{}{}

		for _, uri := range c.RedirectURIs {
			if uri == "" {
				errs = append(errs, fmt.Errorf("client %q: empty redirect_uri", c.ID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("clients: invalid registry: %w", errors.Join(errs...))
	}
	return nil
}

// Lookup returns a copy of the registration for id.
func (r *Registry) Lookup(id string) (domain.ClientRegistration, error) {
	c, ok := r.snap.Load().byID[id]
	if !ok {
		return domain.ClientRegistration{}, ErrNotFound
	}
	return c.Clone(), nil
}

// ValidateRedirectURI reports whether candidate is character-for-character
// one of the client's registered redirect URIs. There is no prefix,
// wildcard, or normalised matching.
func (r *Registry) ValidateRedirectURI(client domain.ClientRegistration, candidate string) bool {
	return candidate != "" && slices.Contains(client.RedirectURIs, candidate)
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return len(r.snap.Load().byID)
}

// LoadedAt returns when the current snapshot was loaded.
func (r *Registry) LoadedAt() time.Time {
	return r.snap.Load().loadedAt
}
