//go:build integration

package scanguard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/scanguard"
)

func TestRedis_SuppressesWithinWindow(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := scanguard.Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	g := scanguard.NewRedis(client, 300*time.Millisecond)

	ok, err := g.Allow(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.Allow(ctx, "A")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, g.Release(ctx, "A"))
	ok, err = g.Allow(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok, "released key is admitted inside the window")

	time.Sleep(400 * time.Millisecond)
	ok, err = g.Allow(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok)
}
