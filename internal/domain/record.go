package domain

import "time"

// MetadataRecord is the authoritative ledger entry for one content hash.
// The hash never changes after creation; only Gateway, Path, Active and
// UpdatedAt may mutate, and only through the original writer or the
// administrator. Revocation is a soft delete so history and indices stay
// intact.
type MetadataRecord struct {
	Hash      Hash      `json:"contentHash"`
	Gateway   string    `json:"gateway"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Writer    Address   `json:"writer"`
	Active    bool      `json:"active"`
	DomainID  uint64    `json:"domainId"`
}

// Permissions holds the single administrator identity. Administrative calls
// pass the acting address through Guard instead of scattering ownership
// checks.
type Permissions struct {
	Owner Address
}

func (p Permissions) IsOwner(actor Address) bool {
	return !p.Owner.IsZero() && actor == p.Owner
}
