package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrUnseal is returned when sealed data fails authentication or is truncated.
var ErrUnseal = errors.New("cryptox: unseal failed")

// Sealer encrypts and authenticates opaque blobs (journey sessions) with
// XChaCha20-Poly1305. The output format is [24-byte nonce][ciphertext+tag].
type Sealer struct {
	key []byte
}

// NewSealer derives a 32-byte key from arbitrary key material with SHA-256.
func NewSealer(material []byte) (*Sealer, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty sealing key material")
	}
	sum := sha256.Sum256(material)
	return &Sealer{key: sum[:]}, nil
}

// LoadSealer reads key material from path. An empty path generates a random
// key for development; ephemeral reports when that happened so callers can
// warn that sessions will not survive a restart.
func LoadSealer(path string) (s *Sealer, ephemeral bool, err error) {
	if path == "" {
		material := make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(material); err != nil {
			return nil, false, fmt.Errorf("cryptox: generate ephemeral key: %w", err)
		}
		s, err := NewSealer(material)
		return s, true, err
	}

	material, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("cryptox: read sealing key: %w", err)
	}
	s, err = NewSealer(material)
	return s, false, err
}

// Seal encrypts plaintext. additional is authenticated but not encrypted; the
// session store binds sealed blobs to their session ID this way.
func (s *Sealer) Seal(plaintext, additional []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: init aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, additional []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: init aead: %w", err)
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrUnseal
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, ErrUnseal
	}
	return plaintext, nil
}
