//go:build integration

package attest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaregistry/internal/attest"
	"metaregistry/internal/domain"
	"metaregistry/pkg/testutil/containers"
)

func TestRedisUsedSet(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)

	t.Run("consume once per key", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		set := attest.NewRedisUsedSet(rc.Client, "", 0)
		key := domain.HashPayload([]byte("once"))

		first, err := set.ConsumeOnce(ctx, key)
		require.NoError(t, err)
		assert.True(t, first)

		second, err := set.ConsumeOnce(ctx, key)
		require.NoError(t, err)
		assert.False(t, second)

		other, err := set.ConsumeOnce(ctx, domain.HashPayload([]byte("different")))
		require.NoError(t, err)
		assert.True(t, other)
	})

	t.Run("retention reopens the key after expiry", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		set := attest.NewRedisUsedSet(rc.Client, "", 100*time.Millisecond)
		key := domain.HashPayload([]byte("expiring"))

		first, err := set.ConsumeOnce(ctx, key)
		require.NoError(t, err)
		assert.True(t, first)

		time.Sleep(200 * time.Millisecond)

		again, err := set.ConsumeOnce(ctx, key)
		require.NoError(t, err)
		assert.True(t, again, "key must be consumable again after the retention window")
	})

	t.Run("prefixes keep sets disjoint", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		a := attest.NewRedisUsedSet(rc.Client, "a:", 0)
		b := attest.NewRedisUsedSet(rc.Client, "b:", 0)
		key := domain.HashPayload([]byte("shared"))

		first, err := a.ConsumeOnce(ctx, key)
		require.NoError(t, err)
		assert.True(t, first)

		stillFirst, err := b.ConsumeOnce(ctx, key)
		require.NoError(t, err)
		assert.True(t, stillFirst)
	})
}
