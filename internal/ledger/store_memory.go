package ledger

import (
	"context"
	"sync"

	"metaregistry/internal/domain"
	"metaregistry/pkg/sentinel"
)

// MemoryStore keeps the ledger in process memory. Insertion order is
// preserved so pagination is stable; writer and domain indices are appended
// on first insert and never shrink (revocation is a soft delete).
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[domain.Hash]domain.MetadataRecord
	order    []domain.Hash
	byWriter map[domain.Address][]domain.Hash
	byDomain map[uint64][]domain.Hash
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[domain.Hash]domain.MetadataRecord),
		byWriter: make(map[domain.Address][]domain.Hash),
		byDomain: make(map[uint64][]domain.Hash),
	}
}

func (s *MemoryStore) Get(_ context.Context, hash domain.Hash) (domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[hash]; ok {
		return rec, nil
	}
	return domain.MetadataRecord{}, sentinel.ErrNotFound
}

func (s *MemoryStore) Put(_ context.Context, record domain.MetadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Hash]; !exists {
		s.order = append(s.order, record.Hash)
		s.byWriter[record.Writer] = append(s.byWriter[record.Writer], record.Hash)
		s.byDomain[record.DomainID] = append(s.byDomain[record.DomainID], record.Hash)
	}
	s.records[record.Hash] = record
	return nil
}

func (s *MemoryStore) ByWriter(_ context.Context, writer domain.Address) ([]domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byWriter[writer]), nil
}

func (s *MemoryStore) ByDomain(_ context.Context, domainID uint64) ([]domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byDomain[domainID]), nil
}

func (s *MemoryStore) List(_ context.Context, offset, limit int) ([]domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset < 0 || offset >= len(s.order) {
		return []domain.MetadataRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	end := len(s.order)
	if offset+limit < end {
		end = offset + limit
	}
	return s.collect(s.order[offset:end]), nil
}

func (s *MemoryStore) Counts(_ context.Context) (total, active uint64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total = uint64(len(s.records))
	for _, rec := range s.records {
		if rec.Active {
			active++
		}
	}
	return total, active, nil
}

func (s *MemoryStore) collect(hashes []domain.Hash) []domain.MetadataRecord {
	out := make([]domain.MetadataRecord, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, s.records[h])
	}
	return out
}
