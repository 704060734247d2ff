// Package model implements the online trading-cost models: the static fee
// table, the Almgren-Chriss impact model, and the two rolling-window
// estimators (slippage and maker/taker).
package model

import (
	"fmt"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// OrderType distinguishes market and limit orders for fee purposes.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// FeeTier is one row of the exchange fee schedule.
type FeeTier struct {
	MakerFeePct  float64
	TakerFeePct  float64
	MinVolume30d float64
}

// feeTiers is the OKX 9-tier schedule, ascending by 30-day volume threshold.
// Immutable for the process lifetime.
var feeTiers = [9]FeeTier{
	{MakerFeePct: 0.08, TakerFeePct: 0.10, MinVolume30d: 0},
	{MakerFeePct: 0.07, TakerFeePct: 0.09, MinVolume30d: 50_000},
	{MakerFeePct: 0.06, TakerFeePct: 0.08, MinVolume30d: 100_000},
	{MakerFeePct: 0.05, TakerFeePct: 0.07, MinVolume30d: 200_000},
	{MakerFeePct: 0.04, TakerFeePct: 0.06, MinVolume30d: 500_000},
	{MakerFeePct: 0.03, TakerFeePct: 0.05, MinVolume30d: 1_000_000},
	{MakerFeePct: 0.02, TakerFeePct: 0.04, MinVolume30d: 2_000_000},
	{MakerFeePct: 0.01, TakerFeePct: 0.03, MinVolume30d: 5_000_000},
	{MakerFeePct: 0.00, TakerFeePct: 0.02, MinVolume30d: 10_000_000},
}

// FeeCalculator computes trading fees against the static tier table.
type FeeCalculator struct{}

// NewFeeCalculator creates a FeeCalculator.
func NewFeeCalculator() *FeeCalculator {
	return &FeeCalculator{}
}

// CalculateFee returns the fee amount in quote currency and the applied fee
// rate in percent. Market orders always pay the taker rate; limit orders pay
// the maker rate only when isMaker is set. A tier outside [1, 9] is a
// programming error and fails fast with domain.ErrInvalidTier.
func (c *FeeCalculator) CalculateFee(orderType OrderType, quantity, price float64, tier int, isMaker bool) (feeAmount, feeRatePct float64, err error) {
	if tier < 1 || tier > len(feeTiers) {
		return 0, 0, fmt.Errorf("fee tier %d: %w", tier, domain.ErrInvalidTier)
	}

	t := feeTiers[tier-1]
	rate := t.TakerFeePct
	if orderType != OrderTypeMarket && isMaker {
		rate = t.MakerFeePct
	}

	return quantity * price * rate / 100, rate, nil
}

// TierForVolume returns the highest tier whose 30-day volume threshold is met
// by volume30d. Volume below every threshold defaults to tier 1; a boundary
// volume belongs to the tier it unlocks.
func (c *FeeCalculator) TierForVolume(volume30d float64) int {
	for i := len(feeTiers) - 1; i >= 0; i-- {
		if volume30d >= feeTiers[i].MinVolume30d {
			return i + 1
		}
	}
	return 1
}
