package fees

import (
	"context"
	"fmt"

	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	pkgerrors "metaregistry/pkg/errors"
)

// Administrative operations. All owner-guarded and audited with before/after
// values.

func (e *Engine) SetTier(ctx context.Context, actor, caller domain.Address, tier domain.FeeTier) error {
	if !e.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may set fee tiers")
	}

	e.mu.Lock()
	before := e.tiers[caller]
	e.tiers[caller] = tier
	e.mu.Unlock()

	e.audit.Emit(ctx, audit.Event{
		Action: audit.ActionFeeTierSet,
		Actor:  actor.String(),
		Key:    caller.String(),
		Before: fmt.Sprintf("%+v", before),
		After:  fmt.Sprintf("%+v", tier),
	})
	return nil
}

func (e *Engine) SetCallerExempt(ctx context.Context, actor, caller domain.Address, exempt bool) error {
	if !e.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may set exemptions")
	}

	e.mu.Lock()
	before := e.exemptCallers[caller]
	e.exemptCallers[caller] = exempt
	e.mu.Unlock()

	e.audit.Emit(ctx, audit.Event{
		Action: audit.ActionExemptionSet,
		Actor:  actor.String(),
		Key:    caller.String(),
		Before: fmt.Sprintf("%t", before),
		After:  fmt.Sprintf("%t", exempt),
	})
	return nil
}

func (e *Engine) SetCategoryExempt(ctx context.Context, actor domain.Address, category string, exempt bool) error {
	if !e.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may set exemptions")
	}

	e.mu.Lock()
	before := e.exemptCategories[category]
	e.exemptCategories[category] = exempt
	e.mu.Unlock()

	e.audit.Emit(ctx, audit.Event{
		Action: audit.ActionExemptionSet,
		Actor:  actor.String(),
		Key:    category,
		Before: fmt.Sprintf("%t", before),
		After:  fmt.Sprintf("%t", exempt),
	})
	return nil
}

// SetBeneficiaries replaces the distribution table. The same sum-to-100
// invariant Distribute enforces is checked here so a bad table is caught at
// configuration time.
func (e *Engine) SetBeneficiaries(ctx context.Context, actor domain.Address, table []Beneficiary) error {
	if !e.perms.IsOwner(actor) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the administrator may set beneficiaries")
	}
	var total uint64
	for _, b := range table {
		if b.Account.IsZero() {
			return pkgerrors.New(pkgerrors.CodeBadRequest, "beneficiary account must be non-zero")
		}
		total += b.Percent
	}
	if total != 100 {
		return pkgerrors.Newf(pkgerrors.CodePayment, "invalid share table: percentages sum to %d, want 100", total)
	}

	e.mu.Lock()
	before := len(e.beneficiaries)
	e.beneficiaries = append([]Beneficiary{}, table...)
	e.mu.Unlock()

	e.audit.Emit(ctx, audit.Event{
		Action: audit.ActionBeneficiariesSet,
		Actor:  actor.String(),
		Before: fmt.Sprintf("entries=%d", before),
		After:  fmt.Sprintf("entries=%d", len(table)),
	})
	return nil
}
