package attest

import (
	"context"
	"sync"

	"metaregistry/internal/domain"
)

// MemoryUsedSet is the in-process replay log. The mutex makes the
// check-then-insert a single step, so two concurrent callers can never both
// consume the same key.
type MemoryUsedSet struct {
	mu   sync.Mutex
	seen map[domain.Hash]struct{}
}

func NewMemoryUsedSet() *MemoryUsedSet {
	return &MemoryUsedSet{seen: make(map[domain.Hash]struct{})}
}

func (s *MemoryUsedSet) ConsumeOnce(_ context.Context, key domain.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

// Len is for tests.
func (s *MemoryUsedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
