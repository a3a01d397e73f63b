package jwtx

import "github.com/golang-jwt/jwt/v5"

// Signer is anything that can sign a JWT and publish its public half.
type Signer interface {
	Alg() string
	KID() string
	Sign(jwt.Claims) (string, error)
	PublicJWK() JWK
	Validate() error
}

// NewSignerRS256 creates an RS256 signer from PEM bytes.
func NewSignerRS256(kid string, pemKey []byte) (Signer, error) {
	return newRS256Signer(kid, pemKey)
}

// NewSignerEdDSA creates an EdDSA signer from PKCS8 PEM bytes.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}

// NewSignerES256 creates an ES256 signer from PKCS8 PEM bytes.
func NewSignerES256(kid string, pemKey []byte) (Signer, error) {
	return newES256Signer(kid, pemKey)
}

// NewSigner picks the constructor for alg.
func NewSigner(alg, kid string, pemKey []byte) (Signer, error) {
	switch alg {
	case AlgorithmRS256:
		return NewSignerRS256(kid, pemKey)
	case AlgorithmES256:
		return NewSignerES256(kid, pemKey)
	case AlgorithmEdDSA:
		return NewSignerEdDSA(kid, pemKey)
	default:
		return nil, unsupportedAlgorithm(alg)
	}
}

func sign(method jwt.SigningMethod, kid string, key any, claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(method, claims)
	t.Header["kid"] = kid
	return t.SignedString(key)
}
