// Package validator checks metadata documents for structural and semantic
// correctness. It is stateless: every call produces a fresh ValidationResult
// and nothing is persisted. Errors block a write; warnings are advisory and
// never do.
package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"metaregistry/internal/domain"
	pkgerrors "metaregistry/pkg/errors"
)

// Config carries the recognized category, role and standard-tag registries.
// They are loaded at startup so new standards can be added without a
// recompile.
type Config struct {
	Categories   []string
	Roles        []string
	StandardTags []string

	// Identity names this validator in results.
	Identity string

	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultConfig returns the built-in registries.
func DefaultConfig() Config {
	return Config{
		Categories: []string{
			"defi", "infrastructure", "governance", "token", "nft", "oracle", "bridge",
		},
		Roles: []string{
			"core", "router", "factory", "vault", "adapter", "proxy", "registry",
		},
		StandardTags: []string{
			"erc20", "erc165", "erc721", "erc1155", "erc4626",
		},
		Identity: "metaregistry",
	}
}

type Validator struct {
	categories map[string]bool
	roles      map[string]bool
	tags       map[string]bool
	identity   string
	now        func() time.Time
}

func New(cfg Config) *Validator {
	v := &Validator{
		categories: toSet(cfg.Categories),
		roles:      toSet(cfg.Roles),
		tags:       toSet(cfg.StandardTags),
		identity:   cfg.Identity,
		now:        cfg.Now,
	}
	if v.identity == "" {
		v.identity = "metaregistry"
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

// Validate runs every rule family over one document.
func (v *Validator) Validate(meta domain.ContractMetadata) domain.ValidationResult {
	c := &collector{}

	v.checkRequired(meta, c)
	v.checkIdentifier(meta, c)
	v.checkAddresses(meta, c)
	v.checkVersion(meta, c)
	v.checkSecurity(meta, c)
	v.checkDeployment(meta, c)
	v.checkStandards(meta, c)

	return domain.ValidationResult{
		Valid:       len(c.errors) == 0,
		Errors:      c.errors,
		Warnings:    c.warnings,
		ValidatedAt: v.now(),
		Validator:   v.identity,
	}
}

type collector struct {
	errors   []string
	warnings []string
}

func (c *collector) errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *collector) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) checkRequired(meta domain.ContractMetadata, c *collector) {
	for _, f := range []struct{ name, value string }{
		{"identifier", meta.Identifier},
		{"organization", meta.Organization},
		{"protocol", meta.Protocol},
		{"category", meta.Category},
		{"role", meta.Role},
		{"version", meta.Version},
	} {
		if f.value == "" {
			c.errorf("missing required field: %s", f.name)
		}
	}
	if meta.DomainID == 0 {
		c.errorf("missing required field: domainId")
	}
	if len(meta.Addresses) == 0 {
		c.errorf("at least one address is required")
	}
	if meta.ContentHash == "" {
		c.errorf("missing required field: contentHash")
	} else if h, err := domain.ParseHash(meta.ContentHash); err != nil || h.IsZero() {
		c.errorf("contentHash must be a non-zero 32-byte hex digest")
	}

	if meta.Category != "" && !v.categories[strings.ToLower(meta.Category)] {
		c.errorf("unrecognized category: %s", meta.Category)
	}
	if meta.Role != "" && !v.roles[strings.ToLower(meta.Role)] {
		c.errorf("unrecognized role: %s", meta.Role)
	}
}

// BuildIdentifier constructs the canonical identifier from structured
// fields: org.protocol.category.role[.variant].v{major}.{minor}.{patch}.{domainId}.
// Validating an identifier built this way against the same fields never
// produces a grammar error.
func BuildIdentifier(meta domain.ContractMetadata) string {
	parts := []string{meta.Organization, meta.Protocol, meta.Category, meta.Role}
	if meta.Variant != "" {
		parts = append(parts, meta.Variant)
	}
	version := meta.Version
	if major, minor, patch, ok := parseVersion(version); ok {
		version = fmt.Sprintf("v%d.%d.%d", major, minor, patch)
	} else {
		version = "v" + version
	}
	parts = append(parts, version, strconv.FormatUint(meta.DomainID, 10))
	return strings.Join(parts, ".")
}

// checkIdentifier cross-checks every identifier segment against the
// structured fields. The identifier is the primary lookup key, so any
// mismatch is an error rather than a warning.
func (v *Validator) checkIdentifier(meta domain.ContractMetadata, c *collector) {
	if meta.Identifier == "" {
		return
	}
	if expected := BuildIdentifier(meta); meta.Identifier != expected {
		c.errorf("identifier %q does not match structured fields (want %q)", meta.Identifier, expected)
	}
}

func (v *Validator) checkAddresses(meta domain.ContractMetadata, c *collector) {
	for i, addr := range meta.Addresses {
		if err := checkAddress(addr); err != "" {
			c.errorf("address[%d]: %s", i, err)
		}
	}
}

func (v *Validator) checkVersion(meta domain.ContractMetadata, c *collector) {
	if meta.Version == "" {
		return
	}
	if _, _, _, ok := parseVersion(meta.Version); !ok {
		// A malformed version embedded in the primary lookup key poisons
		// lookups, so it escalates from warning to error.
		if strings.Contains(meta.Identifier, meta.Version) {
			c.errorf("version %q does not parse as major.minor.patch and is embedded in the identifier", meta.Version)
		} else {
			c.warnf("version %q does not parse as major.minor.patch", meta.Version)
		}
	}
}

func (v *Validator) checkSecurity(meta domain.ContractMetadata, c *collector) {
	if meta.Security == nil {
		return
	}
	now := v.now()
	for i, a := range meta.Security.Audits {
		if a.Auditor == "" {
			c.errorf("security.audits[%d]: auditor is required", i)
		}
		switch {
		case a.Date.IsZero():
			c.warnf("security.audits[%d]: audit date is missing", i)
		case a.Date.After(now):
			c.errorf("security.audits[%d]: audit date is in the future", i)
		}
	}
}

func (v *Validator) checkDeployment(meta domain.ContractMetadata, c *collector) {
	d := meta.Deployment
	if d == nil {
		return
	}
	switch {
	case d.Timestamp.IsZero():
		c.errorf("deployment.timestamp must be set")
	case d.Timestamp.After(v.now()):
		c.errorf("deployment.timestamp is in the future")
	}
	if err := checkAddress(d.Deployer); err != "" {
		c.errorf("deployment.deployer: %s", err)
	}
	if err := checkAddress(d.Owner); err != "" {
		c.errorf("deployment.owner: %s", err)
	}
	if g := d.Governance; g != nil && g.Mode == domain.GovernanceModeMultiSigner {
		if err := checkAddress(g.SignerContract); err != "" {
			c.errorf("deployment.governance.signerContract: %s", err)
		}
		if g.Threshold == 0 {
			c.errorf("deployment.governance.threshold must be positive for multi-signer governance")
		}
	}
}

func (v *Validator) checkStandards(meta domain.ContractMetadata, c *collector) {
	for i, s := range meta.Standards {
		if s.Name == "" {
			c.errorf("standards[%d]: interface name is required", i)
		}
		id, err := parseInterfaceID(s.InterfaceID)
		if err != nil || id == [4]byte{} {
			c.errorf("standards[%d]: interface id must be a non-zero 4-byte hex value", i)
		}
		// New standards appear faster than this registry updates, so an
		// unknown tag is only advisory.
		if s.Tag != "" && !v.tags[strings.ToLower(s.Tag)] {
			c.warnf("standards[%d]: unrecognized standard tag %q", i, s.Tag)
		}
	}
}

// CheckConsistency enforces the cross-domain invariant: records claiming to
// be the same entity on different domains must agree on identifier (up to
// the trailing domain segment), organization, protocol and content hash.
// It is a cross-record check, not an error on any single document.
func (v *Validator) CheckConsistency(metas []domain.ContractMetadata) error {
	if len(metas) < 2 {
		return nil
	}
	first := metas[0]
	for i, m := range metas[1:] {
		if identifierStem(m.Identifier) != identifierStem(first.Identifier) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "record %d disagrees on identifier: %q vs %q", i+1, m.Identifier, first.Identifier)
		}
		if m.Organization != first.Organization {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "record %d disagrees on organization", i+1)
		}
		if m.Protocol != first.Protocol {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "record %d disagrees on protocol", i+1)
		}
		if m.ContentHash != first.ContentHash {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "record %d disagrees on content hash", i+1)
		}
	}
	return nil
}

// identifierStem drops the trailing domain segment, which legitimately
// differs per domain.
func identifierStem(identifier string) string {
	i := strings.LastIndex(identifier, ".")
	if i < 0 {
		return identifier
	}
	return identifier[:i]
}

func parseVersion(s string) (major, minor, patch uint64, ok bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	nums := make([]uint64, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}
