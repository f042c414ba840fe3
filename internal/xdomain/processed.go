package xdomain

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryProcessedSet is the in-process processed-id log.
type MemoryProcessedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryProcessedSet() *MemoryProcessedSet {
	return &MemoryProcessedSet{seen: make(map[string]struct{})}
}

func (s *MemoryProcessedSet) Seen(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok, nil
}

func (s *MemoryProcessedSet) Mark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[id] = struct{}{}
	return nil
}

// RedisProcessedSet shares the processed-id log across server instances.
// TTL of zero keeps ids forever.
type RedisProcessedSet struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisProcessedSet(client *redis.Client, prefix string, ttl time.Duration) *RedisProcessedSet {
	if prefix == "" {
		prefix = "metaregistry:processed:"
	}
	return &RedisProcessedSet{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisProcessedSet) Seen(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisProcessedSet) Mark(ctx context.Context, id string) error {
	return s.client.Set(ctx, s.prefix+id, 1, s.ttl).Err()
}
