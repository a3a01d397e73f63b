package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewEphemeralKeyManager(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		numKeys   int
		want      int
	}{
		{"RS256", jwtx.AlgorithmRS256, 1, 1},
		{"ES256 default count", jwtx.AlgorithmES256, 0, 2},
		{"EdDSA capped", jwtx.AlgorithmEdDSA, 50, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
				Algorithm: tt.algorithm,
				NumKeys:   tt.numKeys,
				RSABits:   2048,
			})
			require.NoError(t, err)
			require.True(t, km.IsReady())
			require.Equal(t, tt.algorithm, km.Algorithm())
			require.Equal(t, tt.want, km.NumSigners())
			require.Len(t, km.KeySet.PublicJWKS().Keys, tt.want)
			require.NotNil(t, km.GetSigner())
		})
	}

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: "HS256"})
		require.Error(t, err)
	})
}

func TestKeyManager_AddSignerAlgorithmMismatch(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmES256, NumKeys: 1})
	require.NoError(t, err)

	require.Error(t, km.AddSigner(newTestSigner(t, jwtx.AlgorithmEdDSA)))
	require.Error(t, km.AddSigner(nil))
	require.Equal(t, 1, km.NumSigners())
}

func TestAccessVerifier(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA})
	require.NoError(t, err)

	verifier := jwtx.AccessVerifier{
		Keys:      km.KeySet,
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    "https://accounts.example.com",
	}

	claims := jwtx.NewAccessClaims("subject-1", testClientID, "delete-account", "ACCOUNT_DELETED",
		"https://accounts.example.com", time.Minute, time.Now())
	raw, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(raw, testClientID)
	require.NoError(t, err)
	require.Equal(t, "delete-account", got.Scope)
	require.Equal(t, "ACCOUNT_DELETED", got.JourneyState)
	require.Equal(t, testClientID, got.ClientID)

	_, err = verifier.Verify(raw, "another-client")
	require.Error(t, err)

	other, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, NumKeys: 1})
	require.NoError(t, err)
	foreign, err := other.GetSigner().Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(foreign, testClientID)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}
