package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
)

// Supported JWT signing algorithms.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// KeyManager owns the signing keys for access tokens and the KeySet that
// publishes their public halves.
type KeyManager struct {
	KeySet    *KeySet
	algorithm string

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures NewEphemeralKeyManager.
type KeyManagerOptions struct {
	// Algorithm is one of RS256, ES256 or EdDSA.
	Algorithm string

	// RSABits is the RS256 key size. Defaults to 3072.
	RSABits int

	// NumKeys is how many signing keys to generate, 1 to 10. Defaults to 2.
	NumKeys int
}

// NewEphemeralKeyManager generates keys that live only in memory. Access
// tokens are short lived, so losing the keys on restart only invalidates
// tokens that were about to expire anyway.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	numKeys := min(max(opts.NumKeys, 0), 10)
	if numKeys == 0 {
		numKeys = 2
	}

	km := &KeyManager{KeySet: NewKeySet(), algorithm: opts.Algorithm}
	for i := range numKeys {
		kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate key ID: %w", err)
		}

		signer, err := generateSigner(opts.Algorithm, "accounts-"+kid, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signer %d: %w", i+1, err)
		}

		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}

	return km, nil
}

func generateSigner(algorithm, kid string, rsaBits int) (Signer, error) {
	var (
		pemBytes []byte
		err      error
	)

	switch algorithm {
	case AlgorithmRS256:
		if rsaBits == 0 {
			rsaBits = 3072
		}
		pemBytes, err = cryptox.GenerateRSAKey(rsaBits)
	case AlgorithmES256:
		pemBytes, err = cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		pemBytes, err = cryptox.GenerateEd25519Key()
	default:
		return nil, unsupportedAlgorithm(algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s key: %w", algorithm, err)
	}

	return NewSigner(algorithm, kid, pemBytes)
}

func unsupportedAlgorithm(alg string) error {
	return fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", alg)
}

// Algorithm returns the signing algorithm.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady reports whether there is at least one key to sign with.
func (km *KeyManager) IsReady() bool {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers) > 0 && km.KeySet.IsReady()
}

// GetSigner picks one of the active signers at random, nil if none.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}

// AddSigner registers signer for signing and publishes its public key.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return fmt.Errorf("jwtx: signer cannot be nil")
	}
	if err := signer.Validate(); err != nil {
		return err
	}
	if km.algorithm != "" && signer.Alg() != km.algorithm {
		return fmt.Errorf("jwtx: signer algorithm %s does not match %s", signer.Alg(), km.algorithm)
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return fmt.Errorf("jwtx: add signer to keyset: %w", err)
	}
	km.signers = append(km.signers, signer)
	return nil
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}
