package xdomain

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/suite"

	"metaregistry/internal/attest"
	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	"metaregistry/internal/fees"
	"metaregistry/internal/ledger"
	"metaregistry/internal/platform/logger"
	"metaregistry/internal/resolver"
	pkgerrors "metaregistry/pkg/errors"
)

const (
	localDomain  = uint64(1)
	remoteDomain = uint64(2)
)

type ReceiverSuite struct {
	suite.Suite

	owner    domain.Address
	attester domain.Address
	priv     ed25519.PrivateKey

	authority *attest.Authority
	service   *ledger.Service
	receiver  *Receiver
}

func TestReceiverSuite(t *testing.T) {
	suite.Run(t, new(ReceiverSuite))
}

func (s *ReceiverSuite) SetupTest() {
	ctx := context.Background()
	log := logger.New()

	s.owner = domain.Address{0xAA}
	s.attester = domain.Address{0x01}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.priv = priv

	perms := domain.Permissions{Owner: s.owner}
	publisher := audit.NewPublisher(audit.NewMemoryStore(), log)
	s.authority = attest.NewAuthority(perms, attest.NewMemoryUsedSet(), publisher, log)
	s.Require().NoError(s.authority.Authorize(ctx, s.owner, s.attester, pub))

	engine := fees.NewEngine(fees.Config{Permissions: perms}, publisher, nil, log)
	s.service = ledger.NewService(ledger.NewMemoryStore(), s.authority, engine, publisher, resolver.Noop{}, nil, log, perms, localDomain)
	s.Require().NoError(s.service.SetDomainSupported(ctx, s.owner, remoteDomain, true))

	s.receiver = NewReceiver(NewMemoryProcessedSet(), s.authority, s.service, localDomain, nil, log)
}

func (s *ReceiverSuite) message(id string, hash domain.Hash, gateway, path string, ts time.Time) domain.CrossDomainMessage {
	return s.messageFrom(id, hash, gateway, path, ts, s.attester, s.priv)
}

func (s *ReceiverSuite) messageFrom(id string, hash domain.Hash, gateway, path string, ts time.Time, attester domain.Address, priv ed25519.PrivateKey) domain.CrossDomainMessage {
	return domain.CrossDomainMessage{
		ID:             id,
		Hash:           hash,
		Gateway:        gateway,
		Path:           path,
		SourceDomainID: remoteDomain,
		TargetDomainID: localDomain,
		Attester:       attester,
		Timestamp:      ts,
		Signature:      ed25519.Sign(priv, domain.SigningBytes(hash, attester, ts)),
	}
}

func (s *ReceiverSuite) TestProcessAppliesMessage() {
	ctx := context.Background()
	hash := domain.HashPayload([]byte("remote-doc"))

	err := s.receiver.Process(ctx, s.message("msg-1", hash, "gw://a", "/m1", time.Now()))
	s.Require().NoError(err)

	rec, found, err := s.service.Get(ctx, hash)
	s.Require().NoError(err)
	s.True(found)
	s.Equal("gw://a", rec.Gateway)
	s.Equal(s.attester, rec.Writer)
	s.Equal(remoteDomain, rec.DomainID)
	s.True(rec.Active)
}

func (s *ReceiverSuite) TestDuplicateDeliveryAppliesOnce() {
	ctx := context.Background()
	hash := domain.HashPayload([]byte("redelivered"))
	ts := time.Now()

	msg := s.message("msg-dup", hash, "gw://a", "/m1", ts)
	s.Require().NoError(s.receiver.Process(ctx, msg))

	// At-least-once delivery redelivers the identical message.
	err := s.receiver.Process(ctx, msg)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeReplay))

	rec, _, err := s.service.Get(ctx, hash)
	s.Require().NoError(err)
	s.Equal("gw://a", rec.Gateway)
}

func (s *ReceiverSuite) TestSameHashLaterTimestampWins() {
	ctx := context.Background()
	hash := domain.HashPayload([]byte("converging"))
	base := time.Now()

	older := s.message("msg-old", hash, "gw://old", "/m1", base)
	newer := s.message("msg-new", hash, "gw://new", "/m2", base.Add(time.Minute))

	s.Run("in order", func() {
		s.Require().NoError(s.receiver.Process(ctx, older))
		s.Require().NoError(s.receiver.Process(ctx, newer))

		rec, _, err := s.service.Get(ctx, hash)
		s.Require().NoError(err)
		s.Equal("gw://new", rec.Gateway)
	})

	s.Run("out of order converges to the same state", func() {
		s.SetupTest()
		older := s.message("msg-old", hash, "gw://old", "/m1", base)
		newer := s.message("msg-new", hash, "gw://new", "/m2", base.Add(time.Minute))

		s.Require().NoError(s.receiver.Process(ctx, newer))
		// The older message still succeeds so its id gets marked, but the
		// newer state is kept.
		s.Require().NoError(s.receiver.Process(ctx, older))

		rec, _, err := s.service.Get(ctx, hash)
		s.Require().NoError(err)
		s.Equal("gw://new", rec.Gateway)
		s.Equal("/m2", rec.Path)
	})
}

func (s *ReceiverSuite) TestForeignWriterRecordIsNotOverwritten() {
	ctx := context.Background()
	hash := domain.HashPayload([]byte("held"))
	ts := time.Now()
	s.Require().NoError(s.receiver.Process(ctx, s.message("msg-own", hash, "gw://a", "/m1", ts)))

	other := domain.Address{0x02}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.Require().NoError(s.authority.Authorize(ctx, s.owner, other, pub))

	// A different authorized attester claims the same hash with a later
	// timestamp. The delivery succeeds so its id gets marked, but writer
	// continuity keeps the record untouched.
	takeover := s.messageFrom("msg-takeover", hash, "gw://other", "/x", ts.Add(time.Minute), other, priv)
	s.Require().NoError(s.receiver.Process(ctx, takeover))

	rec, found, err := s.service.Get(ctx, hash)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal("gw://a", rec.Gateway)
	s.Equal("/m1", rec.Path)
	s.Equal(s.attester, rec.Writer)
}

func (s *ReceiverSuite) TestRevokedRecordStaysRevoked() {
	ctx := context.Background()
	hash := domain.HashPayload([]byte("revoked-upstream"))
	ts := time.Now()
	s.Require().NoError(s.receiver.Process(ctx, s.message("msg-1", hash, "gw://a", "/m1", ts)))
	s.Require().NoError(s.service.Revoke(ctx, hash, s.attester))

	// Even the original writer cannot resurrect the record through sync.
	err := s.receiver.Process(ctx, s.message("msg-2", hash, "gw://late", "/m2", ts.Add(time.Minute)))
	s.Require().NoError(err)

	rec, _, err := s.service.Get(ctx, hash)
	s.Require().NoError(err)
	s.False(rec.Active)
	s.Equal("gw://a", rec.Gateway)
	s.Equal("/m1", rec.Path)
}

func (s *ReceiverSuite) TestSameAttestationUnderNewIDRejected() {
	ctx := context.Background()
	hash := domain.HashPayload([]byte("re-wrapped"))
	msg := s.message("msg-a", hash, "gw://a", "/m1", time.Now())
	s.Require().NoError(s.receiver.Process(ctx, msg))

	// Rewrapping a consumed attestation in a fresh message id must not
	// slip past replay protection.
	resent := msg
	resent.ID = "msg-b"
	err := s.receiver.Process(ctx, resent)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeReplay))
}

func (s *ReceiverSuite) TestRejections() {
	ctx := context.Background()
	hash := domain.HashPayload([]byte("rejected"))
	ts := time.Now()

	s.Run("unauthorized source domain", func() {
		msg := s.message("msg-r1", hash, "gw://a", "/m1", ts)
		msg.SourceDomainID = 77
		err := s.receiver.Process(ctx, msg)
		s.True(pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	})

	s.Run("unauthorized attester", func() {
		msg := s.message("msg-r2", hash, "gw://a", "/m1", ts)
		msg.Attester = domain.Address{0x99}
		err := s.receiver.Process(ctx, msg)
		s.True(pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	})

	s.Run("target domain mismatch", func() {
		msg := s.message("msg-r3", hash, "gw://a", "/m1", ts)
		msg.TargetDomainID = 42
		err := s.receiver.Process(ctx, msg)
		s.True(pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	s.Run("bad signature", func() {
		msg := s.message("msg-r4", hash, "gw://a", "/m1", ts)
		msg.Signature[0] ^= 0xFF
		err := s.receiver.Process(ctx, msg)
		s.True(pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	})

	s.Run("rejections leave no record behind", func() {
		_, found, err := s.service.Get(ctx, hash)
		s.Require().NoError(err)
		s.False(found)
	})

	s.Run("rejected ids are not marked processed", func() {
		err := s.receiver.Process(ctx, s.message("msg-r1", hash, "gw://a", "/m1", ts))
		s.Require().NoError(err, "an id from a rejected delivery must remain usable")
	})
}

func (s *ReceiverSuite) TestProcessBatchIsIndependent() {
	ctx := context.Background()
	good1 := domain.HashPayload([]byte("batch-1"))
	good2 := domain.HashPayload([]byte("batch-2"))
	ts := time.Now()

	bad := s.message("msg-b2", domain.HashPayload([]byte("batch-bad")), "gw://a", "/m1", ts)
	bad.Attester = domain.Address{0x99}

	results := s.receiver.ProcessBatch(ctx, []domain.CrossDomainMessage{
		s.message("msg-b1", good1, "gw://a", "/m1", ts),
		bad,
		s.message("msg-b3", good2, "gw://a", "/m2", ts),
	})

	s.Require().Len(results, 3)
	s.NoError(results[0].Err)
	s.Error(results[1].Err)
	s.NoError(results[2].Err)

	_, found, err := s.service.Get(ctx, good2)
	s.Require().NoError(err)
	s.True(found, "a failure earlier in the batch must not block later messages")
}
