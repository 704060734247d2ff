package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/costsim/internal/domain"
)

func TestCalculateFeeMarketOrder(t *testing.T) {
	c := NewFeeCalculator()

	amount, rate, err := c.CalculateFee(OrderTypeMarket, 10, 100, 1, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.00, amount, 1e-12)
	assert.Equal(t, 0.10, rate)

	// Market orders pay the taker rate even when flagged as maker.
	amount2, rate2, err := c.CalculateFee(OrderTypeMarket, 10, 100, 1, true)
	require.NoError(t, err)
	assert.Equal(t, amount, amount2)
	assert.Equal(t, rate, rate2)
}

func TestCalculateFeeLimitMaker(t *testing.T) {
	c := NewFeeCalculator()

	_, rate, err := c.CalculateFee(OrderTypeLimit, 10, 100, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 0.08, rate)

	// An unfilled-at-placement limit order that crosses pays taker.
	_, rate, err = c.CalculateFee(OrderTypeLimit, 10, 100, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 0.10, rate)
}

func TestCalculateFeeTopTierMakerIsFree(t *testing.T) {
	c := NewFeeCalculator()

	amount, rate, err := c.CalculateFee(OrderTypeLimit, 10, 100, 9, true)
	require.NoError(t, err)
	assert.Zero(t, amount)
	assert.Zero(t, rate)
}

func TestCalculateFeeInvalidTier(t *testing.T) {
	c := NewFeeCalculator()

	for _, tier := range []int{0, -1, 10} {
		_, _, err := c.CalculateFee(OrderTypeMarket, 10, 100, tier, false)
		assert.ErrorIs(t, err, domain.ErrInvalidTier)
	}
}

func TestTierForVolume(t *testing.T) {
	c := NewFeeCalculator()

	tests := []struct {
		volume float64
		tier   int
	}{
		{0, 1},
		{49_999, 1},
		{50_000, 2},
		{75_000, 2},
		{100_000, 3},
		{4_999_999, 7},
		{5_000_000, 8},
		{10_000_000, 9},
		{50_000_000, 9},
	}
	for _, tc2 := range tests {
		assert.Equal(t, tc2.tier, c.TierForVolume(tc2.volume), "volume %v", tc2.volume)
	}
}
