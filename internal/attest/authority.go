// Package attest decides who may write to the ledger and makes sure every
// attestation is applied at most once.
package attest

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"

	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	pkgerrors "metaregistry/pkg/errors"
)

// MaxClockSkew tolerates attester clocks slightly ahead of ours. Anything
// further in the future is rejected.
const MaxClockSkew = 5 * time.Minute

// UsedSet is the append-only replay-protection log. ConsumeOnce must be a
// single atomic check-then-insert: it returns true exactly once per key.
type UsedSet interface {
	ConsumeOnce(ctx context.Context, key domain.Hash) (bool, error)
}

// Authority maintains the allow-list of attesters and their ed25519 keys,
// verifies attestation signatures, and consumes attestations through the
// replay log.
type Authority struct {
	mu    sync.RWMutex
	perms domain.Permissions
	keys  map[domain.Address]ed25519.PublicKey

	used  UsedSet
	audit *audit.Publisher
	log   *slog.Logger
	now   func() time.Time
}

func NewAuthority(perms domain.Permissions, used UsedSet, pub *audit.Publisher, log *slog.Logger) *Authority {
	return &Authority{
		perms: perms,
		keys:  make(map[domain.Address]ed25519.PublicKey),
		used:  used,
		audit: pub,
		log:   log,
		now:   time.Now,
	}
}

// IsAuthorized reports whether addr is on the allow-list.
func (a *Authority) IsAuthorized(addr domain.Address) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.keys[addr]
	return ok
}

// Authorize adds an attester with its verification key. Owner-only.
func (a *Authority) Authorize(ctx context.Context, actor, addr domain.Address, key ed25519.PublicKey) error {
	if !a.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may authorize attesters")
	}
	if addr.IsZero() {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "attester address must be non-zero")
	}
	if len(key) != ed25519.PublicKeySize {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "attester key must be a 32-byte ed25519 public key")
	}

	a.mu.Lock()
	a.keys[addr] = key
	a.mu.Unlock()

	a.audit.Emit(ctx, audit.Event{
		Action: audit.ActionAttesterAuthorized,
		Actor:  actor.String(),
		Key:    addr.String(),
		After:  hex.EncodeToString(key),
	})
	return nil
}

// Deauthorize removes an attester from the allow-list. Owner-only.
func (a *Authority) Deauthorize(ctx context.Context, actor, addr domain.Address) error {
	if !a.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may deauthorize attesters")
	}

	a.mu.Lock()
	prev, ok := a.keys[addr]
	delete(a.keys, addr)
	a.mu.Unlock()
	if !ok {
		return nil
	}

	a.audit.Emit(ctx, audit.Event{
		Action: audit.ActionAttesterDeauthorized,
		Actor:  actor.String(),
		Key:    addr.String(),
		Before: hex.EncodeToString(prev),
	})
	return nil
}

// Verify checks that sig over the canonical signing bytes recovers to the
// attester's registered key and that the timestamp is not from the future.
func (a *Authority) Verify(hash domain.Hash, attester domain.Address, ts time.Time, sig []byte) bool {
	if ts.After(a.now().Add(MaxClockSkew)) {
		return false
	}

	a.mu.RLock()
	key, ok := a.keys[attester]
	a.mu.RUnlock()
	if !ok || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(key, domain.SigningBytes(hash, attester, ts), sig)
}

// Consume records the attestation's dedup key in the replay log. A second
// call with the same (hash, source, target, timestamp) tuple fails with a
// replay error and has no side effects.
func (a *Authority) Consume(ctx context.Context, att domain.Attestation, sourceDomain, targetDomain uint64) error {
	first, err := a.used.ConsumeOnce(ctx, att.DedupKey(sourceDomain, targetDomain))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, "replay log unavailable", err)
	}
	if !first {
		return pkgerrors.New(pkgerrors.CodeReplay, "attestation already consumed")
	}
	return nil
}
