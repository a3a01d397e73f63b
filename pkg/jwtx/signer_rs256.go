package jwtx

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// RS256Signer signs with RSA PKCS#1 v1.5 and SHA-256.
type RS256Signer struct {
	kid string
	key *rsa.PrivateKey
}

// newRS256Signer accepts both PKCS1 and PKCS8 PEM; operators hand us either.
func newRS256Signer(kid string, pemKey []byte) (*RS256Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for RSA key")
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse RSA key: %w", err)
		}
		key = k
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
		}
		k, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not RSA private key")
		}
		key = k
	default:
		return nil, fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}

	return &RS256Signer{kid: kid, key: key}, nil
}

func (s *RS256Signer) Alg() string { return AlgorithmRS256 }
func (s *RS256Signer) KID() string { return s.kid }

func (s *RS256Signer) Sign(claims jwt.Claims) (string, error) {
	return sign(jwt.SigningMethodRS256, s.kid, s.key, claims)
}

func (s *RS256Signer) PublicJWK() JWK {
	return NewRSAJWK(s.kid, "sig", AlgorithmRS256, &s.key.PublicKey)
}

func (s *RS256Signer) Validate() error {
	if s.key == nil {
		return errors.New("jwtx: nil RSA key")
	}
	return nil
}
