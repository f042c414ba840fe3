package httptransport

import (
	"encoding/hex"
	"strings"
	"time"

	"metaregistry/internal/domain"
	"metaregistry/internal/fees"
	pkgerrors "metaregistry/pkg/errors"
)

// Request DTOs. Binary fields travel as 0x-prefixed hex so payloads stay
// copy-pasteable; timestamps are RFC 3339.

type attestationRequest struct {
	Attester  string    `json:"attester"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
	Algorithm string    `json:"algorithm,omitempty"`
}

func (r attestationRequest) toDomain(hash domain.Hash) (domain.Attestation, error) {
	attester, err := domain.ParseAddress(r.Attester)
	if err != nil {
		return domain.Attestation{}, err
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(r.Signature, "0x"))
	if err != nil {
		return domain.Attestation{}, pkgerrors.New(pkgerrors.CodeBadRequest, "signature is not valid hex")
	}
	alg := r.Algorithm
	if alg == "" {
		alg = domain.AlgorithmEd25519
	}
	return domain.Attestation{
		Hash:      hash,
		Attester:  attester,
		Timestamp: r.Timestamp,
		Signature: sig,
		Algorithm: alg,
	}, nil
}

type registerRequest struct {
	ContentHash string             `json:"contentHash"`
	Gateway     string             `json:"gateway"`
	Path        string             `json:"path"`
	DomainID    uint64             `json:"domainId"`
	Caller      string             `json:"caller"`
	Category    string             `json:"category,omitempty"`
	PayloadSize uint64             `json:"payloadSize"`
	Attestation attestationRequest `json:"attestation"`
}

type updateRequest struct {
	Gateway string `json:"gateway"`
	Path    string `json:"path"`
	Caller  string `json:"caller"`
}

type revokeRequest struct {
	Caller string `json:"caller"`
}

type syncMessageRequest struct {
	ID             string    `json:"id"`
	ContentHash    string    `json:"contentHash"`
	Gateway        string    `json:"gateway"`
	Path           string    `json:"path"`
	SourceDomainID uint64    `json:"sourceDomainId"`
	TargetDomainID uint64    `json:"targetDomainId"`
	Attester       string    `json:"attester"`
	Timestamp      time.Time `json:"timestamp"`
	Signature      string    `json:"signature"`
}

func (r syncMessageRequest) toDomain() (domain.CrossDomainMessage, error) {
	hash, err := domain.ParseHash(r.ContentHash)
	if err != nil {
		return domain.CrossDomainMessage{}, err
	}
	attester, err := domain.ParseAddress(r.Attester)
	if err != nil {
		return domain.CrossDomainMessage{}, err
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(r.Signature, "0x"))
	if err != nil {
		return domain.CrossDomainMessage{}, pkgerrors.New(pkgerrors.CodeBadRequest, "signature is not valid hex")
	}
	return domain.CrossDomainMessage{
		ID:             r.ID,
		Hash:           hash,
		Gateway:        r.Gateway,
		Path:           r.Path,
		SourceDomainID: r.SourceDomainID,
		TargetDomainID: r.TargetDomainID,
		Attester:       attester,
		Timestamp:      r.Timestamp,
		Signature:      sig,
	}, nil
}

type authorizeAttesterRequest struct {
	Attester  string `json:"attester"`
	PublicKey string `json:"publicKey"`
	Remove    bool   `json:"remove,omitempty"`
}

type supportDomainRequest struct {
	DomainID  uint64 `json:"domainId"`
	Supported bool   `json:"supported"`
}

type feeTierRequest struct {
	Caller string         `json:"caller"`
	Tier   domain.FeeTier `json:"tier"`
}

type exemptionRequest struct {
	Caller   string `json:"caller,omitempty"`
	Category string `json:"category,omitempty"`
	Exempt   bool   `json:"exempt"`
}

type beneficiariesRequest struct {
	Beneficiaries []beneficiaryEntry `json:"beneficiaries"`
}

type beneficiaryEntry struct {
	Account string `json:"account"`
	Percent uint64 `json:"percent"`
}

func (r beneficiariesRequest) toDomain() ([]fees.Beneficiary, error) {
	out := make([]fees.Beneficiary, len(r.Beneficiaries))
	for i, b := range r.Beneficiaries {
		account, err := domain.ParseAddress(b.Account)
		if err != nil {
			return nil, err
		}
		out[i] = fees.Beneficiary{Account: account, Percent: b.Percent}
	}
	return out, nil
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

type oracleRequest struct {
	GasPriceWei         uint64 `json:"gasPriceWei"`
	NativePriceMicroUSD uint64 `json:"nativePriceMicroUsd"`
}
