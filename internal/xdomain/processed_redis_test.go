//go:build integration

package xdomain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaregistry/internal/xdomain"
	"metaregistry/pkg/testutil/containers"
)

func TestRedisProcessedSet(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)

	set := xdomain.NewRedisProcessedSet(rc.Client, "", 0)

	seen, err := set.Seen(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, set.Mark(ctx, "msg-1"))

	seen, err = set.Seen(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Ids survive across set instances sharing the same backend.
	other := xdomain.NewRedisProcessedSet(rc.Client, "", 0)
	seen, err = other.Seen(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, seen)
}
