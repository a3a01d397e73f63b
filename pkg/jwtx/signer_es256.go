package jwtx

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ES256Signer signs with ECDSA P-256 and SHA-256.
type ES256Signer struct {
	kid string
	key *ecdsa.PrivateKey
}

// newES256Signer loads an ECDSA private key from PKCS8 PEM.
func newES256Signer(kid string, pemKey []byte) (*ES256Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for ES256 key")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (ES256 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := priv.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not ECDSA private key")
	}

	return &ES256Signer{kid: kid, key: key}, nil
}

func (s *ES256Signer) Alg() string { return AlgorithmES256 }
func (s *ES256Signer) KID() string { return s.kid }

func (s *ES256Signer) Sign(claims jwt.Claims) (string, error) {
	return sign(jwt.SigningMethodES256, s.kid, s.key, claims)
}

func (s *ES256Signer) PublicJWK() JWK {
	return NewES256JWK(s.kid, "sig", AlgorithmES256, &s.key.PublicKey)
}

// Validate checks the key is present and on P-256.
func (s *ES256Signer) Validate() error {
	if s.key == nil {
		return errors.New("jwtx: nil ECDSA key")
	}
	if name := s.key.Curve.Params().Name; name != "P-256" {
		return fmt.Errorf("jwtx: expected P-256 curve, got %s", name)
	}
	return nil
}
