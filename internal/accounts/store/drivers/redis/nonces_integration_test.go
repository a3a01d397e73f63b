//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/redis"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNoncesAgainstRedisContainer(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb, err := redis.Dial(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	nonces := redis.NewNonces(rdb, redis.Options{TTL: time.Minute})

	require.NoError(t, nonces.RecordUsed(ctx, "jti-container", time.Now().Add(time.Minute)))
	require.ErrorIs(t, nonces.RecordUsed(ctx, "jti-container", time.Now().Add(time.Minute)), store.ErrConflict)

	used, err := nonces.HasBeenUsed(ctx, "jti-container")
	require.NoError(t, err)
	require.True(t, used)
}
