package domain

import (
	"encoding/hex"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	pkgerrors "metaregistry/pkg/errors"
)

// Hash is the 32-byte content hash identifying a metadata record. It is the
// sha2-256 digest of the serialized metadata document and the primary key for
// every ledger operation.
type Hash [32]byte

// HashPayload derives the content hash for a serialized metadata document.
func HashPayload(payload []byte) Hash {
	var h Hash
	mh, err := multihash.Sum(payload, multihash.SHA2_256, -1)
	if err != nil {
		// sha2-256 with default length cannot fail; keep the zero hash
		// out of reach regardless.
		return h
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return h
	}
	copy(h[:], decoded.Digest)
	return h
}

// ParseHash accepts a 64-char hex string, with or without 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 64 {
		return h, pkgerrors.New(pkgerrors.CodeBadRequest, "content hash must be 32 bytes of hex")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, pkgerrors.New(pkgerrors.CodeBadRequest, "content hash is not valid hex")
	}
	copy(h[:], raw)
	return h, nil
}

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// CID renders the hash as a CIDv1 over the raw codec, the form gateways
// expect in retrieval URLs.
func (h Hash) CID() (cid.Cid, error) {
	mh, err := multihash.Encode(h[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
