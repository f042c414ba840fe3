package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	pkgerrors "metaregistry/pkg/errors"
)

// Address is a 20-byte account identifier for writers, attesters, owners and
// fee beneficiaries.
type Address [20]byte

// ParseAddress accepts a 40-char hex string, with or without 0x prefix.
// Case is not checked here; checksum validation belongs to the validator.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 40 {
		return a, pkgerrors.New(pkgerrors.CodeBadRequest, "address must be 20 bytes of hex")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, pkgerrors.New(pkgerrors.CodeBadRequest, "address is not valid hex")
	}
	copy(a[:], raw)
	return a, nil
}

func (a Address) IsZero() bool { return a == Address{} }

// String renders the checksum-cased form.
func (a Address) String() string { return ChecksumAddress(hex.EncodeToString(a[:])) }

// ChecksumAddress applies the mixed-case checksum encoding to a bare
// 40-char lowercase hex string and returns it 0x-prefixed. Each hex letter is
// uppercased when the corresponding nibble of Keccak-256(lowercase hex) is
// >= 8.
func ChecksumAddress(hexAddr string) string {
	hexAddr = strings.ToLower(strings.TrimPrefix(hexAddr, "0x"))
	k := sha3.NewLegacyKeccak256()
	k.Write([]byte(hexAddr))
	digest := k.Sum(nil)

	out := make([]byte, len(hexAddr))
	for i := 0; i < len(hexAddr); i++ {
		c := hexAddr[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out)
}
