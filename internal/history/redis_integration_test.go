//go:build integration

package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watercord/NigeriaGovhub-sub001/internal/testutil/containers"
)

func TestRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := containers.NewRedis(t)
	store := NewRedisStore(client, 3, time.Hour)

	for _, q := range []string{"grant", "farm", "grant", "loan", "tax"} {
		require.NoError(t, store.Add(ctx, "v1", Entry{Query: q, Kind: "opportunity"}))
	}
	require.NoError(t, store.Add(ctx, "v1", Entry{}))

	got, err := store.List(ctx, "v1")
	require.NoError(t, err)
	queries := make([]string, 0, len(got))
	for _, e := range got {
		queries = append(queries, e.Query)
	}
	assert.Equal(t, []string{"tax", "loan", "grant"}, queries)

	ttl, err := client.TTL(ctx, key("v1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	other, err := store.List(ctx, "v2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, store.Clear(ctx, "v1"))
	got, err = store.List(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
