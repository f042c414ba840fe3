package validator

import (
	"encoding/hex"
	"strings"

	"github.com/asaskevich/govalidator"
	"golang.org/x/crypto/sha3"

	"metaregistry/internal/domain"
)

// checkAddress validates one account address: 20 bytes of hex, non-zero,
// and checksum-cased when mixed case is used. All-lower and all-upper forms
// carry no checksum information and are accepted as-is. Returns an empty
// string when valid.
func checkAddress(addr string) string {
	bare := strings.TrimPrefix(addr, "0x")
	if len(bare) != 40 {
		return "address must be 20 bytes of hex"
	}
	if !govalidator.IsHexadecimal(bare) {
		return "address is not valid hex"
	}

	parsed, err := domain.ParseAddress(addr)
	if err != nil {
		return "address is not valid hex"
	}
	if parsed.IsZero() {
		return "zero address is not allowed"
	}

	hasUpper := strings.ContainsAny(bare, "ABCDEF")
	hasLower := strings.ContainsAny(bare, "abcdef")
	if hasUpper && hasLower && "0x"+bare != domain.ChecksumAddress(bare) {
		return "address checksum case is invalid"
	}
	return ""
}

// InterfaceID derives the 4-byte EIP-165 style identifier for an interface
// name: the first four bytes of Keccak-256 over the canonical name.
func InterfaceID(name string) [4]byte {
	k := sha3.NewLegacyKeccak256()
	k.Write([]byte(name))
	digest := k.Sum(nil)

	var id [4]byte
	copy(id[:], digest[:4])
	return id
}

func parseInterfaceID(s string) ([4]byte, error) {
	var id [4]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != 4 {
		if err == nil {
			err = hex.ErrLength
		}
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}
