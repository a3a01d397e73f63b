package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	sess, err := h.sessions.Load(ctx, "")
	require.NoError(t, err)
	require.True(t, sess.Fresh)
	require.NotEmpty(t, sess.ID)

	sess.State.Authorizations["delete-account"] = domain.PendingAuthorization{ClientID: testClientID}
	require.NoError(t, h.sessions.Save(ctx, sess))

	loaded, err := h.sessions.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.False(t, loaded.Fresh)
	require.Equal(t, testClientID, loaded.State.Authorizations["delete-account"].ClientID)

	t.Run("stored bytes are sealed to the session id", func(t *testing.T) {
		raw, err := h.store.Sessions().Load(ctx, sess.ID)
		require.NoError(t, err)
		require.NotContains(t, string(raw), testClientID)

		require.NoError(t, h.store.Sessions().Save(ctx, "other-id", raw, time.Now().Add(time.Hour)))
		moved, err := h.sessions.Load(ctx, "other-id")
		require.NoError(t, err)
		require.True(t, moved.Fresh)
		require.NotEqual(t, "other-id", moved.ID)
	})

	t.Run("different key cannot open", func(t *testing.T) {
		sealer, err := cryptox.NewSealer([]byte("another key"))
		require.NoError(t, err)
		other := &SessionManager{Store: h.store.Sessions(), Sealer: sealer}

		got, err := other.Load(ctx, sess.ID)
		require.NoError(t, err)
		require.True(t, got.Fresh)
	})

	t.Run("empty state deletes", func(t *testing.T) {
		loaded.State.Forget("delete-account")
		require.NoError(t, h.sessions.Save(ctx, loaded))

		_, err := h.store.Sessions().Load(ctx, sess.ID)
		require.Error(t, err)
	})
}

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.store.Sessions().Save(ctx, "old", []byte("x"), time.Now().Add(-time.Minute)))
	require.NoError(t, h.store.Nonces().RecordUsed(ctx, "old-jti", time.Now().Add(-time.Hour)))

	hk := NewHousekeepingService(h.store, slogx.Discard(), time.Hour)
	hk.Cleanup(ctx)

	n, err := h.store.Sessions().DeleteExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	used, err := h.store.Nonces().HasBeenUsed(ctx, "old-jti")
	require.NoError(t, err)
	require.True(t, used)

	hk.Start()
	hk.Stop()
}
