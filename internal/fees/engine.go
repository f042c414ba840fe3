// Package fees meters registration payments. All USD math is integer
// micro-USD; native amounts are gwei-scale base units (1e9 per native unit).
package fees

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	"metaregistry/internal/platform/metrics"
	pkgerrors "metaregistry/pkg/errors"
)

// nativeBaseUnitsPerUnit converts whole native units to base units.
const nativeBaseUnitsPerUnit = 1_000_000_000

// Beneficiary receives a fixed percentage of every distribution. Percentages
// across the table must sum to exactly 100.
type Beneficiary struct {
	Account domain.Address `json:"account"`
	Percent uint64         `json:"percent"`
}

// Payout is one beneficiary's cut of a distribution.
type Payout struct {
	Account domain.Address `json:"account"`
	Amount  uint64         `json:"amount"`
}

// Quote is the priced fee for one registration. MicroUSD feeds the monthly
// cap accounting; Native is what the caller actually pays.
type Quote struct {
	Native   uint64
	MicroUSD uint64
}

type monthUsage struct {
	year     int
	month    time.Month
	microUSD uint64
}

// Engine computes, caps and distributes registration fees and keeps the
// per-caller usage ledger. Oracle readings (gas price, native/USD price) are
// pushed in from outside; the engine never fetches them itself.
type Engine struct {
	mu    sync.RWMutex
	perms domain.Permissions

	defaultTier      domain.FeeTier
	tiers            map[domain.Address]domain.FeeTier
	exemptCallers    map[domain.Address]bool
	exemptCategories map[string]bool
	beneficiaries    []Beneficiary

	stats   map[domain.Address]domain.UserStats
	monthly map[domain.Address]monthUsage

	gasHighWei          uint64
	gasLowWei           uint64
	gasPriceWei         uint64
	nativePriceMicroUSD uint64

	audit   *audit.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// Config seeds the engine from startup configuration.
type Config struct {
	Permissions           domain.Permissions
	DefaultRateMicroUSDKB uint64
	GasHighWatermarkWei   uint64
	GasLowWatermarkWei    uint64
}

func NewEngine(cfg Config, pub *audit.Publisher, m *metrics.Metrics, log *slog.Logger) *Engine {
	return &Engine{
		perms:            cfg.Permissions,
		defaultTier:      domain.FeeTier{BaseRateMicroUSDPerKB: cfg.DefaultRateMicroUSDKB, Enabled: true},
		tiers:            make(map[domain.Address]domain.FeeTier),
		exemptCallers:    make(map[domain.Address]bool),
		exemptCategories: make(map[string]bool),
		stats:            make(map[domain.Address]domain.UserStats),
		monthly:          make(map[domain.Address]monthUsage),
		gasHighWei:       cfg.GasHighWatermarkWei,
		gasLowWei:        cfg.GasLowWatermarkWei,
		audit:            pub,
		metrics:          m,
		log:              log,
		now:              time.Now,
	}
}

// SetGasPrice records the latest network gas price reading.
func (e *Engine) SetGasPrice(wei uint64) {
	e.mu.Lock()
	e.gasPriceWei = wei
	e.mu.Unlock()
}

// SetNativePrice records the latest native-unit/USD price, in micro-USD per
// whole native unit.
func (e *Engine) SetNativePrice(microUSD uint64) {
	e.mu.Lock()
	e.nativePriceMicroUSD = microUSD
	e.mu.Unlock()
}

// CalculateFee prices one registration. Exempt callers and categories pay
// nothing. The category is supplied by the caller of this function, not
// derived from the payload.
func (e *Engine) CalculateFee(caller domain.Address, category string, payloadSizeBytes uint64) Quote {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.exemptCallers[caller] || e.exemptCategories[category] {
		return Quote{}
	}

	tier := e.defaultTier
	if t, ok := e.tiers[caller]; ok && t.Enabled {
		tier = t
	}

	fee := payloadSizeBytes * tier.BaseRateMicroUSDPerKB / 1024
	if tier.DiscountPercent > 0 && tier.DiscountPercent <= 100 {
		fee = fee * (100 - tier.DiscountPercent) / 100
	}

	// Gas band adjustment: +10% above the high watermark, -10% below the
	// low one. An unset reading leaves the fee unadjusted.
	switch {
	case e.gasPriceWei == 0:
	case e.gasPriceWei > e.gasHighWei:
		fee = fee * 110 / 100
	case e.gasPriceWei < e.gasLowWei:
		fee = fee * 90 / 100
	}

	if tier.MonthlyCapMicroUSD > 0 {
		used := e.monthUsageLocked(caller)
		if used >= tier.MonthlyCapMicroUSD {
			fee = 0
		} else if used+fee > tier.MonthlyCapMicroUSD {
			fee = tier.MonthlyCapMicroUSD - used
		}
	}

	if e.nativePriceMicroUSD == 0 {
		// Oracle not primed; nothing to convert into.
		return Quote{MicroUSD: fee}
	}
	return Quote{
		Native:   fee * nativeBaseUnitsPerUnit / e.nativePriceMicroUSD,
		MicroUSD: fee,
	}
}

func (e *Engine) monthUsageLocked(caller domain.Address) uint64 {
	u, ok := e.monthly[caller]
	if !ok {
		return 0
	}
	now := e.now()
	if u.year != now.Year() || u.month != now.Month() {
		return 0
	}
	return u.microUSD
}

// Distribute splits a collected amount across the beneficiary table. The
// percentages must sum to exactly 100; integer remainders go to the first
// beneficiary so payouts always sum to amount.
func (e *Engine) Distribute(ctx context.Context, amount uint64) ([]Payout, error) {
	e.mu.RLock()
	table := append([]Beneficiary{}, e.beneficiaries...)
	e.mu.RUnlock()

	var total uint64
	for _, b := range table {
		total += b.Percent
	}
	if total != 100 {
		return nil, pkgerrors.Newf(pkgerrors.CodePayment, "invalid share table: percentages sum to %d, want 100", total)
	}

	payouts := make([]Payout, len(table))
	var paid uint64
	for i, b := range table {
		share := amount * b.Percent / 100
		payouts[i] = Payout{Account: b.Account, Amount: share}
		paid += share
	}
	payouts[0].Amount += amount - paid

	e.metrics.IncFeeDistribution()
	e.audit.Emit(ctx, audit.Event{
		Action: audit.ActionFeeDistributed,
		After:  fmt.Sprintf("amount=%d beneficiaries=%d", amount, len(table)),
	})
	return payouts, nil
}

// RecordUsage bumps the caller's running totals. Counters only ever grow and
// this must be called exactly once per successful write.
func (e *Engine) RecordUsage(ctx context.Context, caller domain.Address, quote Quote, payloadSizeBytes uint64) {
	e.mu.Lock()
	s := e.stats[caller]
	if s.Registrations == 0 {
		s.FirstRegistration = e.now()
	}
	s.Registrations++
	s.BytesProcessed += payloadSizeBytes
	s.FeesPaidNative += quote.Native
	e.stats[caller] = s

	now := e.now()
	u := e.monthly[caller]
	if u.year != now.Year() || u.month != now.Month() {
		u = monthUsage{year: now.Year(), month: now.Month()}
	}
	u.microUSD += quote.MicroUSD
	e.monthly[caller] = u
	e.mu.Unlock()

	if quote.Native > 0 {
		e.metrics.AddFeesCollected(quote.Native)
		e.audit.Emit(ctx, audit.Event{
			Action: audit.ActionFeeCollected,
			Actor:  caller.String(),
			After:  fmt.Sprintf("native=%d microUsd=%d bytes=%d", quote.Native, quote.MicroUSD, payloadSizeBytes),
		})
	}
}

// StatsFor returns the caller's usage totals.
func (e *Engine) StatsFor(caller domain.Address) (domain.UserStats, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.stats[caller]
	return s, ok
}
