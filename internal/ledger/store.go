package ledger

import (
	"context"

	"metaregistry/internal/domain"
)

// DefaultPageSize caps List pages when the caller does not ask for a limit.
const DefaultPageSize = 100

// Store is the persistence boundary for metadata records. Implementations
// return sentinel.ErrNotFound for missing hashes; the service translates.
// Put is an upsert keyed by content hash. List pages records in insertion
// order; a limit <= 0 means DefaultPageSize, never an unbounded scan.
type Store interface {
	Get(ctx context.Context, hash domain.Hash) (domain.MetadataRecord, error)
	Put(ctx context.Context, record domain.MetadataRecord) error
	ByWriter(ctx context.Context, writer domain.Address) ([]domain.MetadataRecord, error)
	ByDomain(ctx context.Context, domainID uint64) ([]domain.MetadataRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.MetadataRecord, error)
	Counts(ctx context.Context) (total, active uint64, err error)
}
