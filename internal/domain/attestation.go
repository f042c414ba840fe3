package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// AlgorithmEd25519 is the only signature algorithm currently accepted.
const AlgorithmEd25519 = "ed25519"

// Attestation is a claim that Attester vouches for the content behind Hash.
// It is consumed once by the ledger or receiver and then discarded except
// for its derived dedup key.
type Attestation struct {
	Hash      Hash      `json:"contentHash"`
	Attester  Address   `json:"attester"`
	Timestamp time.Time `json:"timestamp"`
	Signature []byte    `json:"signature"`
	Algorithm string    `json:"algorithm"`
}

// SigningBytes is the canonical message an attester signs:
// contentHash(32) || attester(20) || unix timestamp seconds (8, big-endian).
func SigningBytes(hash Hash, attester Address, ts time.Time) []byte {
	buf := make([]byte, 0, 60)
	buf = append(buf, hash[:]...)
	buf = append(buf, attester[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(ts.Unix()))
	return buf
}

// DedupKey derives the replay-protection key for this attestation between a
// source and target domain. The key covers (hash, source, target, timestamp)
// so the same content may be legitimately re-attested at a later time.
func (a Attestation) DedupKey(sourceDomain, targetDomain uint64) Hash {
	buf := make([]byte, 0, 56)
	buf = append(buf, a.Hash[:]...)
	buf = binary.BigEndian.AppendUint64(buf, sourceDomain)
	buf = binary.BigEndian.AppendUint64(buf, targetDomain)
	buf = binary.BigEndian.AppendUint64(buf, uint64(a.Timestamp.Unix()))
	return Hash(sha256.Sum256(buf))
}
