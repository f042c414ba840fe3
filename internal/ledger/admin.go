package ledger

import (
	"context"
	"fmt"

	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	pkgerrors "metaregistry/pkg/errors"
)

// IsDomainSupported reports whether writes tagged with domainID are accepted.
// The local domain is always supported; others are whitelisted by the
// administrator. The cross-domain receiver consults the same set for its
// authorized-source check.
func (s *Service) IsDomainSupported(domainID uint64) bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.supported[domainID]
}

// SetDomainSupported whitelists (or removes) an execution domain. Owner-only.
func (s *Service) SetDomainSupported(ctx context.Context, actor domain.Address, domainID uint64, supported bool) error {
	if !s.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may change supported domains")
	}
	if domainID == s.localDomain && !supported {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "the local domain cannot be unsupported")
	}

	s.stateMu.Lock()
	before := s.supported[domainID]
	s.supported[domainID] = supported
	s.stateMu.Unlock()

	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionDomainSupported,
		Actor:  actor.String(),
		Key:    fmt.Sprintf("%d", domainID),
		Before: fmt.Sprintf("%t", before),
		After:  fmt.Sprintf("%t", supported),
	})
	return nil
}

func (s *Service) isPaused() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.paused
}

// SetPaused halts or resumes all writes. Owner-only.
func (s *Service) SetPaused(ctx context.Context, actor domain.Address, paused bool) error {
	if !s.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may pause the registry")
	}

	s.stateMu.Lock()
	before := s.paused
	s.paused = paused
	s.stateMu.Unlock()

	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionPausedSet,
		Actor:  actor.String(),
		Before: fmt.Sprintf("%t", before),
		After:  fmt.Sprintf("%t", paused),
	})
	return nil
}
