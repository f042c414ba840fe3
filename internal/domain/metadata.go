package domain

import "time"

// ContractMetadata is the structured metadata document submitted for
// registration. It is decoded from JSON with encoding/json; malformed input
// is a validation failure, never a silent fallback.
type ContractMetadata struct {
	Identifier   string `json:"identifier"`
	Organization string `json:"organization"`
	Protocol     string `json:"protocol"`
	Category     string `json:"category"`
	Role         string `json:"role"`
	Variant      string `json:"variant,omitempty"`
	Version      string `json:"version"`
	DomainID     uint64 `json:"domainId"`

	Addresses   []string `json:"addresses"`
	ContentHash string   `json:"contentHash"`

	Security   *SecurityBlock   `json:"security,omitempty"`
	Deployment *DeploymentBlock `json:"deployment,omitempty"`
	Standards  []Standard       `json:"standards,omitempty"`
}

// SecurityBlock lists third-party audits of the contract.
type SecurityBlock struct {
	Audits []AuditEntry `json:"audits"`
}

type AuditEntry struct {
	Auditor string    `json:"auditor"`
	Date    time.Time `json:"date"`
	Report  string    `json:"report,omitempty"`
}

// DeploymentBlock records how and by whom the contract was deployed.
type DeploymentBlock struct {
	Timestamp  time.Time   `json:"timestamp"`
	Deployer   string      `json:"deployer"`
	Owner      string      `json:"owner"`
	Governance *Governance `json:"governance,omitempty"`
}

// GovernanceModeMultiSigner requires a signer contract and threshold.
const GovernanceModeMultiSigner = "multi-signer"

type Governance struct {
	Mode           string `json:"mode"`
	SignerContract string `json:"signerContract,omitempty"`
	Threshold      uint64 `json:"threshold,omitempty"`
}

// Standard declares an interface the contract implements. InterfaceID is the
// 4-byte EIP-165 style identifier, hex-encoded.
type Standard struct {
	Name        string `json:"name"`
	InterfaceID string `json:"interfaceId"`
	Tag         string `json:"tag,omitempty"`
}

// ValidationResult is produced fresh on every validation call and never
// persisted as ledger state. Errors block a write; warnings are advisory.
type ValidationResult struct {
	Valid       bool      `json:"valid"`
	Errors      []string  `json:"errors"`
	Warnings    []string  `json:"warnings"`
	ValidatedAt time.Time `json:"validatedAt"`
	Validator   string    `json:"validator"`
}
