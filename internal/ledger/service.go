// Package ledger is the authoritative store of metadata records. Writes run
// through authorization, replay protection and fee metering before commit;
// queries are side-effect free and never fail on absence.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"metaregistry/internal/attest"
	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	"metaregistry/internal/fees"
	"metaregistry/internal/platform/metrics"
	"metaregistry/internal/resolver"
	pkgerrors "metaregistry/pkg/errors"
	"metaregistry/pkg/sentinel"
)

// Service owns the write path. A single mutex serializes writes, matching
// the one-operation-at-a-time model of a ledger state machine; reads go to
// the store directly.
type Service struct {
	mu sync.Mutex

	store     Store
	authority *attest.Authority
	fees      *fees.Engine
	audit     *audit.Publisher
	notifier  resolver.Notifier
	metrics   *metrics.Metrics
	log       *slog.Logger
	tracer    trace.Tracer

	perms       domain.Permissions
	localDomain uint64

	stateMu   sync.RWMutex
	supported map[uint64]bool
	paused    bool
}

func NewService(
	store Store,
	authority *attest.Authority,
	engine *fees.Engine,
	pub *audit.Publisher,
	notifier resolver.Notifier,
	m *metrics.Metrics,
	log *slog.Logger,
	perms domain.Permissions,
	localDomain uint64,
) *Service {
	if notifier == nil {
		notifier = resolver.Noop{}
	}
	return &Service{
		store:       store,
		authority:   authority,
		fees:        engine,
		audit:       pub,
		notifier:    notifier,
		metrics:     m,
		log:         log,
		tracer:      otel.Tracer("metaregistry/ledger"),
		perms:       perms,
		localDomain: localDomain,
		supported:   map[uint64]bool{localDomain: true},
	}
}

// RegisterInput carries one candidate write. Category and PayloadSize feed
// the fee engine; the attestation provides replay protection.
type RegisterInput struct {
	Hash        domain.Hash
	Gateway     string
	Path        string
	DomainID    uint64
	Caller      domain.Address
	Attestation domain.Attestation
	Category    string
	PayloadSize uint64
}

// Register is the content-addressed upsert: first write for a hash creates
// the record, a second write by the same writer updates it, and a write
// against a revoked hash fails. Returns the committed record and the fee
// charged in native base units.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.MetadataRecord, uint64, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Register")
	defer span.End()
	start := time.Now()

	if err := s.checkWriteAllowed(in); err != nil {
		return domain.MetadataRecord{}, 0, err
	}
	if !s.authority.IsAuthorized(in.Caller) {
		return domain.MetadataRecord{}, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller is not an authorized attester")
	}
	if !s.authority.Verify(in.Hash, in.Attestation.Attester, in.Attestation.Timestamp, in.Attestation.Signature) {
		return domain.MetadataRecord{}, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "attestation signature did not verify")
	}
	if err := s.authority.Consume(ctx, in.Attestation, s.localDomain, s.localDomain); err != nil {
		s.metrics.IncReplayRejected()
		return domain.MetadataRecord{}, 0, err
	}

	quote := s.fees.CalculateFee(in.Caller, in.Category, in.PayloadSize)

	s.mu.Lock()
	rec, created, err := s.upsertLocked(ctx, in.Hash, in.Gateway, in.Path, in.DomainID, in.Caller, time.Now())
	s.mu.Unlock()
	if err != nil {
		return domain.MetadataRecord{}, 0, err
	}

	s.fees.RecordUsage(ctx, in.Caller, quote, in.PayloadSize)

	action := audit.ActionUpdated
	if created {
		action = audit.ActionRegistered
		s.metrics.IncRegistered()
	} else {
		s.metrics.IncUpdated()
	}
	s.audit.Emit(ctx, audit.Event{Action: action, Actor: in.Caller.String(), Key: rec.Hash.String()})
	s.metrics.ObserveWriteDuration(time.Since(start).Seconds())
	s.notify(ctx, rec.Hash, rec.DomainID)
	return rec, quote.Native, nil
}

func (s *Service) checkWriteAllowed(in RegisterInput) error {
	if s.isPaused() {
		return pkgerrors.New(pkgerrors.CodePaused, "registry is paused")
	}
	if in.Hash.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "content hash must be non-zero")
	}
	if in.Gateway == "" || in.Path == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway and path must be non-empty")
	}
	if !s.IsDomainSupported(in.DomainID) {
		return pkgerrors.Newf(pkgerrors.CodeUnsupportedDomain, "domain %d is not supported", in.DomainID)
	}
	return nil
}

// upsertLocked performs the create-or-update decision under the write lock.
func (s *Service) upsertLocked(ctx context.Context, hash domain.Hash, gateway, path string, domainID uint64, caller domain.Address, now time.Time) (domain.MetadataRecord, bool, error) {
	existing, err := s.store.Get(ctx, hash)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		rec := domain.MetadataRecord{
			Hash:      hash,
			Gateway:   gateway,
			Path:      path,
			CreatedAt: now,
			UpdatedAt: now,
			Writer:    caller,
			Active:    true,
			DomainID:  domainID,
		}
		if err := s.store.Put(ctx, rec); err != nil {
			return domain.MetadataRecord{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, "persist record", err)
		}
		return rec, true, nil
	case err != nil:
		return domain.MetadataRecord{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, "load record", err)
	case !existing.Active:
		return domain.MetadataRecord{}, false, pkgerrors.New(pkgerrors.CodeInvalidState, "record has been revoked")
	case existing.Writer != caller:
		return domain.MetadataRecord{}, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "only the original writer may update a record")
	default:
		existing.Gateway = gateway
		existing.Path = path
		existing.UpdatedAt = now
		if err := s.store.Put(ctx, existing); err != nil {
			return domain.MetadataRecord{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, "persist record", err)
		}
		return existing, false, nil
	}
}

// Update mutates gateway and path of an existing active record. The content
// hash and writer never change.
func (s *Service) Update(ctx context.Context, hash domain.Hash, gateway, path string, caller domain.Address) (domain.MetadataRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Update")
	defer span.End()

	if s.isPaused() {
		return domain.MetadataRecord{}, pkgerrors.New(pkgerrors.CodePaused, "registry is paused")
	}
	if gateway == "" || path == "" {
		return domain.MetadataRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "gateway and path must be non-empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Get(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.MetadataRecord{}, pkgerrors.New(pkgerrors.CodeNotFound, "record does not exist")
	}
	if err != nil {
		return domain.MetadataRecord{}, pkgerrors.Wrap(pkgerrors.CodeInternal, "load record", err)
	}
	if !rec.Active {
		return domain.MetadataRecord{}, pkgerrors.New(pkgerrors.CodeInvalidState, "record has been revoked")
	}
	if rec.Writer != caller {
		return domain.MetadataRecord{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "only the original writer may update a record")
	}

	rec.Gateway = gateway
	rec.Path = path
	rec.UpdatedAt = time.Now()
	if err := s.store.Put(ctx, rec); err != nil {
		return domain.MetadataRecord{}, pkgerrors.Wrap(pkgerrors.CodeInternal, "persist record", err)
	}

	s.metrics.IncUpdated()
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionUpdated, Actor: caller.String(), Key: rec.Hash.String()})
	s.notify(ctx, rec.Hash, rec.DomainID)
	return rec, nil
}

// Revoke soft-deletes a record. The original writer or the administrator may
// revoke; revoking an already-inactive record is a no-op success so retries
// stay simple.
func (s *Service) Revoke(ctx context.Context, hash domain.Hash, caller domain.Address) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Revoke")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Get(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "record does not exist")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, "load record", err)
	}
	if rec.Writer != caller && !s.perms.IsOwner(caller) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the writer or administrator may revoke a record")
	}
	if !rec.Active {
		return nil
	}

	rec.Active = false
	rec.UpdatedAt = time.Now()
	if err := s.store.Put(ctx, rec); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, "persist record", err)
	}

	s.metrics.IncRevoked()
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionRevoked, Actor: caller.String(), Key: rec.Hash.String()})
	s.notify(ctx, rec.Hash, rec.DomainID)
	return nil
}

// ApplyRemote commits a cross-domain message through the same upsert rules as
// local writes: a revoked record never mutates and only the original writer's
// attestations update an existing record. The receiver has already
// deduplicated and verified the message, so no fee is charged here. When the
// hash already exists, the later attestation timestamp wins regardless of
// arrival order. Messages the upsert rules turn away are no-op successes so
// their ids still get marked processed.
func (s *Service) ApplyRemote(ctx context.Context, msg domain.CrossDomainMessage) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.ApplyRemote")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Get(ctx, msg.Hash)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		rec := domain.MetadataRecord{
			Hash:      msg.Hash,
			Gateway:   msg.Gateway,
			Path:      msg.Path,
			CreatedAt: msg.Timestamp,
			UpdatedAt: msg.Timestamp,
			Writer:    msg.Attester,
			Active:    true,
			DomainID:  msg.SourceDomainID,
		}
		if err := s.store.Put(ctx, rec); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, "persist record", err)
		}
	case err != nil:
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, "load record", err)
	case !existing.Active:
		// Revoked records never resurrect through sync traffic.
		return false, nil
	case existing.Writer != msg.Attester:
		// Writer continuity holds for remote writes too.
		return false, nil
	case !existing.UpdatedAt.Before(msg.Timestamp):
		// Stale message; newer state already applied. Still a success so
		// the message id gets marked processed.
		return false, nil
	default:
		existing.Gateway = msg.Gateway
		existing.Path = msg.Path
		existing.UpdatedAt = msg.Timestamp
		if err := s.store.Put(ctx, existing); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, "persist record", err)
		}
	}

	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionCrossDomainMessageApplied,
		Actor:  msg.Attester.String(),
		Key:    msg.ID,
		After:  msg.Hash.String(),
	})
	s.notify(ctx, msg.Hash, msg.SourceDomainID)
	return true, nil
}

func (s *Service) notify(ctx context.Context, hash domain.Hash, domainID uint64) {
	if err := s.notifier.Notify(ctx, hash, domainID); err != nil {
		s.log.WarnContext(ctx, "resolver notify failed", "hash", hash.String(), "error", err)
	}
}
