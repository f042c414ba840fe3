// Package xdomain receives synchronization messages from other execution
// domains and applies them to the local ledger exactly once. Delivery is
// at-least-once and unordered; idempotence comes from the processed-id set
// and the content-hash-keyed upsert.
package xdomain

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"metaregistry/internal/attest"
	"metaregistry/internal/domain"
	"metaregistry/internal/ledger"
	"metaregistry/internal/platform/metrics"
	pkgerrors "metaregistry/pkg/errors"
)

// Rejection reasons, used as metric labels and audit detail.
const (
	ReasonDuplicateMessage     = "duplicate_message"
	ReasonUnauthorizedSource   = "unauthorized_source"
	ReasonUnauthorizedAttester = "unauthorized_attester"
	ReasonDomainMismatch       = "domain_mismatch"
	ReasonBadSignature         = "bad_signature"
	ReasonDuplicateAttestation = "duplicate_attestation"
)

// ProcessedSet tracks message ids that have been applied. Seen and Mark are
// called under the receiver's mutex, which is what makes check+apply+mark a
// single indivisible step.
type ProcessedSet interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

// Receiver drives each inbound message through
// Received -> dedup -> authorization -> apply -> acknowledged, rejecting at
// the first failed check with no partial state changes.
type Receiver struct {
	mu sync.Mutex

	processed ProcessedSet
	authority *attest.Authority
	ledger    *ledger.Service

	localDomain uint64
	metrics     *metrics.Metrics
	log         *slog.Logger
	tracer      trace.Tracer
}

func NewReceiver(processed ProcessedSet, authority *attest.Authority, svc *ledger.Service, localDomain uint64, m *metrics.Metrics, log *slog.Logger) *Receiver {
	return &Receiver{
		processed:   processed,
		authority:   authority,
		ledger:      svc,
		localDomain: localDomain,
		metrics:     m,
		log:         log,
		tracer:      otel.Tracer("metaregistry/xdomain"),
	}
}

// Process applies one message. A rejection reports the specific reason and
// leaves no state behind; a success marks the id processed even when the
// apply itself was a stale no-op.
func (r *Receiver) Process(ctx context.Context, msg domain.CrossDomainMessage) error {
	ctx, span := r.tracer.Start(ctx, "xdomain.Process")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	seen, err := r.processed.Seen(ctx, msg.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, "processed-id set unavailable", err)
	}
	if seen {
		return r.reject(msg, ReasonDuplicateMessage,
			pkgerrors.New(pkgerrors.CodeReplay, "duplicate message"))
	}
	if !r.ledger.IsDomainSupported(msg.SourceDomainID) {
		return r.reject(msg, ReasonUnauthorizedSource,
			pkgerrors.Newf(pkgerrors.CodeUnauthorized, "source domain %d is not authorized", msg.SourceDomainID))
	}
	if !r.authority.IsAuthorized(msg.Attester) {
		return r.reject(msg, ReasonUnauthorizedAttester,
			pkgerrors.New(pkgerrors.CodeUnauthorized, "attester is not authorized"))
	}
	if msg.TargetDomainID != r.localDomain {
		return r.reject(msg, ReasonDomainMismatch,
			pkgerrors.Newf(pkgerrors.CodeBadRequest, "message targets domain %d, local domain is %d", msg.TargetDomainID, r.localDomain))
	}
	if !r.authority.Verify(msg.Hash, msg.Attester, msg.Timestamp, msg.Signature) {
		return r.reject(msg, ReasonBadSignature,
			pkgerrors.New(pkgerrors.CodeUnauthorized, "message signature did not verify"))
	}

	// The embedded attestation goes through the same replay log as local
	// writes, so resending it under a fresh message id is still turned away.
	if err := r.authority.Consume(ctx, msg.Attestation(), msg.SourceDomainID, msg.TargetDomainID); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeReplay) {
			return r.reject(msg, ReasonDuplicateAttestation, err)
		}
		return err
	}

	// Apply and mark under the same lock: no window where a concurrent
	// delivery of the same id could slip past the dedup check.
	if _, err := r.ledger.ApplyRemote(ctx, msg); err != nil {
		return err
	}
	if err := r.processed.Mark(ctx, msg.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, "mark message processed", err)
	}

	r.metrics.IncMessageApplied()
	return nil
}

func (r *Receiver) reject(msg domain.CrossDomainMessage, reason string, err error) error {
	r.metrics.IncMessageRejected(reason)
	if r.log != nil {
		r.log.Info("cross-domain message rejected",
			"message_id", msg.ID,
			"source_domain", msg.SourceDomainID,
			"reason", reason,
		)
	}
	return err
}

// Result is the per-message outcome of a batch.
type Result struct {
	ID  string
	Err error
}

// ProcessBatch applies messages independently: one failure never aborts the
// rest, and already-applied messages stay applied.
func (r *Receiver) ProcessBatch(ctx context.Context, msgs []domain.CrossDomainMessage) []Result {
	results := make([]Result, len(msgs))
	for i, msg := range msgs {
		results[i] = Result{ID: msg.ID, Err: r.Process(ctx, msg)}
	}
	return results
}
