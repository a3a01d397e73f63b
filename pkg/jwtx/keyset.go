package jwtx

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds public verification keys by kid. It backs both our own JWKS
// endpoint and the cache of keys fetched from the custodial key service.
type KeySet struct {
	mu  sync.RWMutex
	jks JWKS
	pub map[string]any
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// AddSigner registers a signer's public JWK.
func (k *KeySet) AddSigner(s Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK parses and adds a single JWK.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	k.jks.Keys = append(k.jks.Keys, j)
	return nil
}

// Get returns the public key for kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns the set for HTTP serving.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return JWKS{Keys: append([]JWK(nil), k.jks.Keys...)}
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	return k.Len() > 0
}

// Len returns the number of usable keys.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

// ResetFromJWKS atomically replaces every key with the signing keys in jwks.
// Encryption keys and unsupported key types are skipped so one exotic entry
// in a remote set does not take the rest down; malformed supported keys are
// an error and leave the current set untouched.
func (k *KeySet) ResetFromJWKS(jwks JWKS) (skipped int, err error) {
	next := make(map[string]any, len(jwks.Keys))
	kept := make([]JWK, 0, len(jwks.Keys))

	for _, j := range jwks.Keys {
		if j.Use == "enc" || j.Kid == "" {
			skipped++
			continue
		}
		key, err := j.PublicKey()
		if errors.Is(err, ErrUnsupportedKey) {
			skipped++
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("jwtx: key %q: %w", j.Kid, err)
		}
		next[j.Kid] = key
		kept = append(kept, j)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	k.jks = JWKS{Keys: kept}
	return skipped, nil
}
