package domain

import "time"

// FeeTier is the per-caller rate schedule. Amounts are integer micro-USD to
// keep fee math exact; MonthlyCapMicroUSD of zero means uncapped.
type FeeTier struct {
	BaseRateMicroUSDPerKB uint64 `json:"baseRateMicroUsdPerKb"`
	MonthlyCapMicroUSD    uint64 `json:"monthlyCapMicroUsd"`
	DiscountPercent       uint64 `json:"discountPercent"`
	Enabled               bool   `json:"enabled"`
}

// UserStats are per-caller running totals. They only ever grow; the fee
// engine bumps them exactly once per successful write.
type UserStats struct {
	Registrations     uint64    `json:"registrations"`
	BytesProcessed    uint64    `json:"bytesProcessed"`
	FeesPaidNative    uint64    `json:"feesPaidNative"`
	FirstRegistration time.Time `json:"firstRegistration"`
}
