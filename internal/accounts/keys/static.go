package keys

import (
	"context"
	"crypto"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
)

// StaticResolver serves a fixed set of public keys.
type StaticResolver struct {
	keys map[string]crypto.PublicKey
}

// NewStaticResolver copies keys into a resolver.
func NewStaticResolver(keys map[string]crypto.PublicKey) *StaticResolver {
	m := make(map[string]crypto.PublicKey, len(keys))
	for alias, k := range keys {
		m[alias] = k
	}
	return &StaticResolver{keys: m}
}

// LoadDir reads every <alias>.pem file in dir as a PKIX public key.
func LoadDir(dir string) (*StaticResolver, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("keys: read dir: %w", err)
	}

	m := make(map[string]crypto.PublicKey)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".pem" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("keys: read %s: %w", e.Name(), err)
		}
		pub, err := cryptox.ParsePublicKeyPEM(raw)
		if err != nil {
			return nil, fmt.Errorf("keys: parse %s: %w", e.Name(), err)
		}
		m[strings.TrimSuffix(e.Name(), ".pem")] = pub
	}
	return &StaticResolver{keys: m}, nil
}

func (r *StaticResolver) VerificationKey(_ context.Context, alias string) (crypto.PublicKey, error) {
	k, ok := r.keys[alias]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return k, nil
}

// Len returns the number of loaded keys.
func (r *StaticResolver) Len() int { return len(r.keys) }
