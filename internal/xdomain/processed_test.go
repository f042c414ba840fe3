package xdomain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProcessedSet(t *testing.T) {
	ctx := context.Background()
	set := NewMemoryProcessedSet()

	seen, err := set.Seen(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, set.Mark(ctx, "msg-1"))

	seen, err = set.Seen(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = set.Seen(ctx, "msg-2")
	require.NoError(t, err)
	assert.False(t, seen)
}
