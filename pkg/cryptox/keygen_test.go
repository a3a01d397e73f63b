package cryptox_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func parsePKCS8(t *testing.T, data []byte) any {
	t.Helper()
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	require.Equal(t, "PRIVATE KEY", block.Type)

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	return key
}

func TestGenerateKeys(t *testing.T) {
	t.Run("es256", func(t *testing.T) {
		pemBytes, err := cryptox.GenerateES256Key()
		require.NoError(t, err)

		key, ok := parsePKCS8(t, pemBytes).(*ecdsa.PrivateKey)
		require.True(t, ok)
		require.Equal(t, elliptic.P256(), key.Curve)
	})

	t.Run("ed25519", func(t *testing.T) {
		pemBytes, err := cryptox.GenerateEd25519Key()
		require.NoError(t, err)

		_, ok := parsePKCS8(t, pemBytes).(ed25519.PrivateKey)
		require.True(t, ok)
	})

	t.Run("rsa", func(t *testing.T) {
		pemBytes, err := cryptox.GenerateRSAKey(2048)
		require.NoError(t, err)

		key, ok := parsePKCS8(t, pemBytes).(*rsa.PrivateKey)
		require.True(t, ok)
		require.Equal(t, 2048, key.N.BitLen())
	})

	t.Run("rsa too small", func(t *testing.T) {
		_, err := cryptox.GenerateRSAKey(1024)
		require.Error(t, err)
	})
}

func TestPublicKeyPEMRoundTrip(t *testing.T) {
	pemBytes, err := cryptox.GenerateES256Key()
	require.NoError(t, err)
	priv := parsePKCS8(t, pemBytes).(*ecdsa.PrivateKey)

	pubPEM, err := cryptox.PublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)

	parsed, err := cryptox.ParsePublicKeyPEM(pubPEM)
	require.NoError(t, err)
	require.True(t, priv.PublicKey.Equal(parsed))

	_, err = cryptox.ParsePublicKeyPEM(pemBytes)
	require.Error(t, err, "private key PEM is not a public key")
}
