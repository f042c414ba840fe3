package ledger

import (
	"context"
	"errors"

	"metaregistry/internal/domain"
	pkgerrors "metaregistry/pkg/errors"
	"metaregistry/pkg/sentinel"
)

// Queries are side-effect free and never fail due to absence.

// Get returns the record for a hash and whether it exists.
func (s *Service) Get(ctx context.Context, hash domain.Hash) (domain.MetadataRecord, bool, error) {
	rec, err := s.store.Get(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.MetadataRecord{}, false, nil
	}
	if err != nil {
		return domain.MetadataRecord{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, "load record", err)
	}
	return rec, true, nil
}

// IsActive reports whether the hash has an active record.
func (s *Service) IsActive(ctx context.Context, hash domain.Hash) (bool, error) {
	rec, found, err := s.Get(ctx, hash)
	if err != nil {
		return false, err
	}
	return found && rec.Active, nil
}

func (s *Service) ByWriter(ctx context.Context, writer domain.Address) ([]domain.MetadataRecord, error) {
	return s.store.ByWriter(ctx, writer)
}

func (s *Service) ByDomain(ctx context.Context, domainID uint64) ([]domain.MetadataRecord, error) {
	return s.store.ByDomain(ctx, domainID)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]domain.MetadataRecord, error) {
	return s.store.List(ctx, offset, limit)
}

// Counts returns total and active record counts.
func (s *Service) Counts(ctx context.Context) (total, active uint64, err error) {
	return s.store.Counts(ctx)
}
