package attest

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	"metaregistry/internal/platform/logger"
	pkgerrors "metaregistry/pkg/errors"
)

var (
	owner    = domain.Address{0xAA}
	attester = domain.Address{0x01}
)

func newTestAuthority(t *testing.T) (*Authority, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	a := NewAuthority(
		domain.Permissions{Owner: owner},
		NewMemoryUsedSet(),
		audit.NewPublisher(audit.NewMemoryStore(), logger.New()),
		logger.New(),
	)
	require.NoError(t, a.Authorize(context.Background(), owner, attester, pub))
	return a, priv
}

func signedAttestation(priv ed25519.PrivateKey, hash domain.Hash, ts time.Time) domain.Attestation {
	return domain.Attestation{
		Hash:      hash,
		Attester:  attester,
		Timestamp: ts,
		Signature: ed25519.Sign(priv, domain.SigningBytes(hash, attester, ts)),
		Algorithm: domain.AlgorithmEd25519,
	}
}

func TestAuthorizeGuards(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(t)
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	t.Run("non-owner cannot authorize", func(t *testing.T) {
		err := a.Authorize(ctx, attester, domain.Address{0x02}, pub)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	})

	t.Run("zero address rejected", func(t *testing.T) {
		err := a.Authorize(ctx, owner, domain.Address{}, pub)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	t.Run("short key rejected", func(t *testing.T) {
		err := a.Authorize(ctx, owner, domain.Address{0x02}, pub[:16])
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	t.Run("non-owner cannot deauthorize", func(t *testing.T) {
		err := a.Deauthorize(ctx, attester, attester)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	})

	t.Run("deauthorize removes the attester", func(t *testing.T) {
		require.True(t, a.IsAuthorized(attester))
		require.NoError(t, a.Deauthorize(ctx, owner, attester))
		assert.False(t, a.IsAuthorized(attester))

		// Removing an unknown attester stays a no-op.
		require.NoError(t, a.Deauthorize(ctx, owner, attester))
	})
}

func TestVerify(t *testing.T) {
	a, priv := newTestAuthority(t)
	hash := domain.HashPayload([]byte("doc"))
	now := time.Now()
	a.now = func() time.Time { return now }

	t.Run("valid signature", func(t *testing.T) {
		att := signedAttestation(priv, hash, now)
		assert.True(t, a.Verify(att.Hash, att.Attester, att.Timestamp, att.Signature))
	})

	t.Run("signature over a different hash", func(t *testing.T) {
		att := signedAttestation(priv, hash, now)
		other := domain.HashPayload([]byte("other"))
		assert.False(t, a.Verify(other, att.Attester, att.Timestamp, att.Signature))
	})

	t.Run("signature bound to its timestamp", func(t *testing.T) {
		att := signedAttestation(priv, hash, now)
		assert.False(t, a.Verify(att.Hash, att.Attester, now.Add(time.Second), att.Signature))
	})

	t.Run("timestamp within clock skew", func(t *testing.T) {
		ts := now.Add(MaxClockSkew - time.Second)
		att := signedAttestation(priv, hash, ts)
		assert.True(t, a.Verify(att.Hash, att.Attester, att.Timestamp, att.Signature))
	})

	t.Run("timestamp beyond clock skew", func(t *testing.T) {
		ts := now.Add(MaxClockSkew + time.Minute)
		att := signedAttestation(priv, hash, ts)
		assert.False(t, a.Verify(att.Hash, att.Attester, att.Timestamp, att.Signature))
	})

	t.Run("unknown attester", func(t *testing.T) {
		att := signedAttestation(priv, hash, now)
		assert.False(t, a.Verify(att.Hash, domain.Address{0x99}, att.Timestamp, att.Signature))
	})

	t.Run("truncated signature", func(t *testing.T) {
		att := signedAttestation(priv, hash, now)
		assert.False(t, a.Verify(att.Hash, att.Attester, att.Timestamp, att.Signature[:32]))
	})
}

func TestConsumeOnce(t *testing.T) {
	ctx := context.Background()
	a, priv := newTestAuthority(t)
	att := signedAttestation(priv, domain.HashPayload([]byte("doc")), time.Now())

	require.NoError(t, a.Consume(ctx, att, 1, 1))

	err := a.Consume(ctx, att, 1, 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeReplay))

	// The same attestation toward a different target domain is a distinct
	// consumption.
	require.NoError(t, a.Consume(ctx, att, 1, 2))
}

func TestMemoryUsedSetConcurrent(t *testing.T) {
	ctx := context.Background()
	set := NewMemoryUsedSet()
	key := domain.HashPayload([]byte("contended"))

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := set.ConsumeOnce(ctx, key)
			assert.NoError(t, err)
			if first {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one caller may consume a key")
	assert.Equal(t, 1, set.Len())
}
