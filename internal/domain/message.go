package domain

import "time"

// CrossDomainMessage propagates a ledger write from one domain to another.
// Delivery is at-least-once and unordered; the receiver deduplicates on ID.
// The JSON encoding is the wire format on the sync topic.
type CrossDomainMessage struct {
	ID             string    `json:"id"`
	Hash           Hash      `json:"contentHash"`
	Gateway        string    `json:"gateway"`
	Path           string    `json:"path"`
	SourceDomainID uint64    `json:"sourceDomainId"`
	TargetDomainID uint64    `json:"targetDomainId"`
	Attester       Address   `json:"attester"`
	Timestamp      time.Time `json:"timestamp"`
	Signature      []byte    `json:"signature"`
}

// Attestation extracts the embedded attestation so the receiver can reuse
// the same verification and replay paths as local writes.
func (m CrossDomainMessage) Attestation() Attestation {
	return Attestation{
		Hash:      m.Hash,
		Attester:  m.Attester,
		Timestamp: m.Timestamp,
		Signature: m.Signature,
		Algorithm: AlgorithmEd25519,
	}
}
