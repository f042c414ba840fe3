package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps audit events in process memory. It favors clarity over
// performance and doubles as the test sink.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	byKey  map[string][]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string][]int)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[event.Key] = append(s.byKey[event.Key], len(s.events))
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...), nil
}

func (s *MemoryStore) ListByKey(_ context.Context, key string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0, len(s.byKey[key]))
	for _, i := range s.byKey[key] {
		out = append(out, s.events[i])
	}
	return out, nil
}
