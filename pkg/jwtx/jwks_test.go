package jwtx_test

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestJWKPublicKeyAndPEM(t *testing.T) {
	for _, alg := range []string{jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA, jwtx.AlgorithmRS256} {
		t.Run(alg, func(t *testing.T) {
			jwk := newTestSigner(t, alg).PublicJWK()
			require.Equal(t, alg, jwk.Alg)
			require.Equal(t, "sig", jwk.Use)

			_, err := jwk.PublicKey()
			require.NoError(t, err)

			pemStr, err := jwk.PEM()
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))
		})
	}
}

func TestJWKUnsupported(t *testing.T) {
	_, err := jwtx.JWK{Kty: "oct"}.PublicKey()
	require.ErrorIs(t, err, jwtx.ErrUnsupportedKey)

	_, err = jwtx.JWK{Kty: "EC", Crv: "P-384"}.PublicKey()
	require.ErrorIs(t, err, jwtx.ErrUnsupportedKey)

	_, err = jwtx.JWK{Kty: "RSA", N: "!!!", E: "AQAB"}.PublicKey()
	require.Error(t, err)
}

func TestKeySetResetFromJWKS(t *testing.T) {
	es := newTestSigner(t, jwtx.AlgorithmES256).PublicJWK()
	ed := newTestSigner(t, jwtx.AlgorithmEdDSA).PublicJWK()

	ks := jwtx.NewKeySet()
	require.False(t, ks.IsReady())

	skipped, err := ks.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{
		es,
		ed,
		{Kty: "oct", Kid: "symmetric"},
		{Kty: "RSA", Kid: "enc-key", Use: "enc"},
	}})
	require.NoError(t, err)
	require.Equal(t, 2, skipped)
	require.Equal(t, 2, ks.Len())

	_, err = ks.Get(es.Kid)
	require.NoError(t, err)
	_, err = ks.Get("symmetric")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	t.Run("malformed key keeps previous set", func(t *testing.T) {
		_, err := ks.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{{Kty: "EC", Crv: "P-256", Kid: "bad", X: "%%"}}})
		require.Error(t, err)
		require.Equal(t, 2, ks.Len())
	})
}
