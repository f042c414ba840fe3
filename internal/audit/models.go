package audit

import "time"

// Actions named after the state transitions they record. Every ledger,
// attestation, fee and receiver transition emits exactly one of these.
const (
	ActionRegistered                = "Registered"
	ActionUpdated                   = "Updated"
	ActionRevoked                   = "Revoked"
	ActionAttesterAuthorized        = "AttesterAuthorized"
	ActionAttesterDeauthorized      = "AttesterDeauthorized"
	ActionDomainSupported           = "DomainSupported"
	ActionCrossDomainMessageApplied = "CrossDomainMessageApplied"
	ActionFeeCollected              = "FeeCollected"
	ActionFeeDistributed            = "FeeDistributed"
	ActionFeeTierSet                = "FeeTierSet"
	ActionExemptionSet              = "ExemptionSet"
	ActionBeneficiariesSet          = "BeneficiariesSet"
	ActionPausedSet                 = "PausedSet"
)

// Event is one append-only audit record. Key is the primary key of the
// affected entity (content hash or message id); Before/After carry the
// changed values for administrative operations.
type Event struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Key       string    `json:"key"`
	Before    string    `json:"before,omitempty"`
	After     string    `json:"after,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
