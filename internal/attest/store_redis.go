package attest

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"metaregistry/internal/domain"
)

// RedisUsedSet is the replay log shared across server instances. SETNX gives
// the atomic check-then-insert. TTL of zero keeps keys forever; operators who
// accept a bounded replay horizon can set a retention.
type RedisUsedSet struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisUsedSet(client *redis.Client, prefix string, ttl time.Duration) *RedisUsedSet {
	if prefix == "" {
		prefix = "metaregistry:used:"
	}
	return &RedisUsedSet{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisUsedSet) ConsumeOnce(ctx context.Context, key domain.Hash) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key.String(), 1, s.ttl).Result()
}
