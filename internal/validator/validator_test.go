package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaregistry/internal/domain"
	pkgerrors "metaregistry/pkg/errors"
)

var testNow = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return testNow }
	return New(cfg)
}

// validDocument returns a document that passes every check; tests break one
// field at a time.
func validDocument() domain.ContractMetadata {
	return domain.ContractMetadata{
		Identifier:   "acme.swap.defi.router.v2.1.0.1",
		Organization: "acme",
		Protocol:     "swap",
		Category:     "defi",
		Role:         "router",
		Version:      "2.1.0",
		DomainID:     1,
		Addresses:    []string{"0x52908400098527886e0f7030069857d2e4169ee7"},
		ContentHash:  domain.HashPayload([]byte("acme-swap-router")).String(),
	}
}

func assertHasError(t *testing.T, res domain.ValidationResult, fragment string) {
	t.Helper()
	require.False(t, res.Valid)
	for _, e := range res.Errors {
		if strings.Contains(e, fragment) {
			return
		}
	}
	t.Fatalf("no error containing %q in %v", fragment, res.Errors)
}

func assertHasWarning(t *testing.T, res domain.ValidationResult, fragment string) {
	t.Helper()
	for _, w := range res.Warnings {
		if strings.Contains(w, fragment) {
			return
		}
	}
	t.Fatalf("no warning containing %q in %v", fragment, res.Warnings)
}

func TestValidateAcceptsCompleteDocument(t *testing.T) {
	v := newTestValidator()
	res := v.Validate(validDocument())
	assert.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "metaregistry", res.Validator)
	assert.Equal(t, testNow, res.ValidatedAt)
}

func TestValidateRequiredFields(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name     string
		mutate   func(*domain.ContractMetadata)
		fragment string
	}{
		{"missing organization", func(m *domain.ContractMetadata) { m.Organization = "" }, "organization"},
		{"missing protocol", func(m *domain.ContractMetadata) { m.Protocol = "" }, "protocol"},
		{"missing version", func(m *domain.ContractMetadata) { m.Version = "" }, "version"},
		{"missing domain id", func(m *domain.ContractMetadata) { m.DomainID = 0 }, "domainId"},
		{"no addresses", func(m *domain.ContractMetadata) { m.Addresses = nil }, "at least one address"},
		{"missing content hash", func(m *domain.ContractMetadata) { m.ContentHash = "" }, "contentHash"},
		{"zero content hash", func(m *domain.ContractMetadata) { m.ContentHash = domain.Hash{}.String() }, "non-zero"},
		{"unrecognized category", func(m *domain.ContractMetadata) { m.Category = "gaming" }, "unrecognized category"},
		{"unrecognized role", func(m *domain.ContractMetadata) { m.Role = "wizard" }, "unrecognized role"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := validDocument()
			tc.mutate(&meta)
			assertHasError(t, v.Validate(meta), tc.fragment)
		})
	}
}

func TestBuildIdentifierRoundTrip(t *testing.T) {
	v := newTestValidator()

	t.Run("without variant", func(t *testing.T) {
		meta := validDocument()
		meta.Identifier = BuildIdentifier(meta)
		assert.Equal(t, "acme.swap.defi.router.v2.1.0.1", meta.Identifier)
		assert.True(t, v.Validate(meta).Valid)
	})

	t.Run("with variant", func(t *testing.T) {
		meta := validDocument()
		meta.Variant = "stable"
		meta.Identifier = BuildIdentifier(meta)
		assert.Equal(t, "acme.swap.defi.router.stable.v2.1.0.1", meta.Identifier)
		assert.True(t, v.Validate(meta).Valid)
	})

	t.Run("mismatched identifier is an error", func(t *testing.T) {
		meta := validDocument()
		meta.Identifier = "acme.swap.defi.vault.v2.1.0.1"
		assertHasError(t, v.Validate(meta), "does not match structured fields")
	})
}

func TestValidateVersion(t *testing.T) {
	v := newTestValidator()

	t.Run("malformed version is a warning", func(t *testing.T) {
		meta := validDocument()
		meta.Version = "2.1"
		meta.Identifier = "" // drop the identifier so only the version rule fires
		res := v.Validate(meta)
		assertHasError(t, res, "identifier") // identifier became required-missing
		assertHasWarning(t, res, "does not parse as major.minor.patch")
	})

	t.Run("malformed version inside the identifier is an error", func(t *testing.T) {
		meta := validDocument()
		meta.Version = "2.1"
		meta.Identifier = "acme.swap.defi.router.v2.1.1"
		assertHasError(t, v.Validate(meta), "embedded in the identifier")
	})
}

func TestValidateAddresses(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name     string
		addr     string
		fragment string
	}{
		{"too short", "0xdeadbeef", "20 bytes"},
		{"not hex", "0xzz908400098527886e0f7030069857d2e4169ee7", "not valid hex"},
		{"zero address", "0x0000000000000000000000000000000000000000", "zero address"},
		{"wrong checksum case", "0x52908400098527886E0f7030069857D2E4169ee7", "checksum"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := validDocument()
			meta.Addresses = append(meta.Addresses, tc.addr)
			assertHasError(t, v.Validate(meta), tc.fragment)
		})
	}

	t.Run("checksum-cased address accepted", func(t *testing.T) {
		meta := validDocument()
		meta.Addresses = []string{"0x52908400098527886E0F7030069857D2E4169EE7"}
		assert.True(t, v.Validate(meta).Valid)
	})
}

func TestValidateSecurity(t *testing.T) {
	v := newTestValidator()

	meta := validDocument()
	meta.Security = &domain.SecurityBlock{Audits: []domain.AuditEntry{
		{Auditor: "sigma", Date: testNow.AddDate(-1, 0, 0)},
		{Auditor: "", Date: testNow.AddDate(-1, 0, 0)},
		{Auditor: "trail", Date: testNow.AddDate(1, 0, 0)},
		{Auditor: "zellic"},
	}}

	res := v.Validate(meta)
	assertHasError(t, res, "audits[1]: auditor is required")
	assertHasError(t, res, "audits[2]: audit date is in the future")
	assertHasWarning(t, res, "audits[3]: audit date is missing")
}

func TestValidateDeployment(t *testing.T) {
	v := newTestValidator()
	deployed := testNow.AddDate(0, -6, 0)

	t.Run("complete block passes", func(t *testing.T) {
		meta := validDocument()
		meta.Deployment = &domain.DeploymentBlock{
			Timestamp: deployed,
			Deployer:  "0x52908400098527886e0f7030069857d2e4169ee7",
			Owner:     "0x52908400098527886e0f7030069857d2e4169ee7",
		}
		assert.True(t, v.Validate(meta).Valid)
	})

	t.Run("future timestamp", func(t *testing.T) {
		meta := validDocument()
		meta.Deployment = &domain.DeploymentBlock{
			Timestamp: testNow.AddDate(0, 0, 1),
			Deployer:  "0x52908400098527886e0f7030069857d2e4169ee7",
			Owner:     "0x52908400098527886e0f7030069857d2e4169ee7",
		}
		assertHasError(t, v.Validate(meta), "in the future")
	})

	t.Run("multi-signer governance requires signer contract and threshold", func(t *testing.T) {
		meta := validDocument()
		meta.Deployment = &domain.DeploymentBlock{
			Timestamp:  deployed,
			Deployer:   "0x52908400098527886e0f7030069857d2e4169ee7",
			Owner:      "0x52908400098527886e0f7030069857d2e4169ee7",
			Governance: &domain.Governance{Mode: domain.GovernanceModeMultiSigner},
		}
		res := v.Validate(meta)
		assertHasError(t, res, "signerContract")
		assertHasError(t, res, "threshold must be positive")
	})
}

func TestValidateStandards(t *testing.T) {
	v := newTestValidator()

	t.Run("known tags pass", func(t *testing.T) {
		meta := validDocument()
		meta.Standards = []domain.Standard{
			{Name: "IERC20", InterfaceID: "0x36372b07", Tag: "erc20"},
		}
		res := v.Validate(meta)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Warnings)
	})

	t.Run("unknown tag warns but stays valid", func(t *testing.T) {
		meta := validDocument()
		meta.Standards = []domain.Standard{
			{Name: "IWeird", InterfaceID: "0x01020304", Tag: "erc9999"},
		}
		res := v.Validate(meta)
		assert.True(t, res.Valid)
		assertHasWarning(t, res, "unrecognized standard tag")
	})

	t.Run("zero or malformed interface ids fail", func(t *testing.T) {
		meta := validDocument()
		meta.Standards = []domain.Standard{
			{Name: "IERC20", InterfaceID: "0x00000000"},
			{Name: "IERC165", InterfaceID: "0x36"},
			{Name: ""},
		}
		res := v.Validate(meta)
		assertHasError(t, res, "standards[0]")
		assertHasError(t, res, "standards[1]")
		assertHasError(t, res, "standards[2]: interface name is required")
	})
}

func TestInterfaceID(t *testing.T) {
	// Deterministic and non-zero for real interface names.
	id := InterfaceID("supportsInterface(bytes4)")
	assert.NotEqual(t, [4]byte{}, id)
	assert.Equal(t, id, InterfaceID("supportsInterface(bytes4)"))
	assert.NotEqual(t, id, InterfaceID("totalSupply()"))
}

func TestCheckConsistency(t *testing.T) {
	v := newTestValidator()

	a := validDocument()
	b := validDocument()
	b.DomainID = 5
	b.Identifier = BuildIdentifier(b)

	t.Run("same entity on two domains agrees", func(t *testing.T) {
		require.NoError(t, v.CheckConsistency([]domain.ContractMetadata{a, b}))
	})

	t.Run("single record is trivially consistent", func(t *testing.T) {
		require.NoError(t, v.CheckConsistency([]domain.ContractMetadata{a}))
	})

	t.Run("identifier stem disagreement", func(t *testing.T) {
		c := b
		c.Role = "vault"
		c.Identifier = BuildIdentifier(c)
		err := v.CheckConsistency([]domain.ContractMetadata{a, c})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("content hash disagreement", func(t *testing.T) {
		c := b
		c.ContentHash = domain.HashPayload([]byte("diverged")).String()
		err := v.CheckConsistency([]domain.ContractMetadata{a, c})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("organization disagreement", func(t *testing.T) {
		c := b
		c.Organization = "other"
		c.Identifier = BuildIdentifier(c)
		err := v.CheckConsistency([]domain.ContractMetadata{a, c})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}
