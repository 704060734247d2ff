package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// book returns a two-level book centered on mid with the given half spread.
func book(mid, halfSpread float64) (asks, bids []domain.PriceLevel) {
	asks = []domain.PriceLevel{
		{Price: mid + halfSpread, Quantity: 5},
		{Price: mid + 2*halfSpread, Quantity: 5},
	}
	bids = []domain.PriceLevel{
		{Price: mid - halfSpread, Quantity: 5},
		{Price: mid - 2*halfSpread, Quantity: 5},
	}
	return asks, bids
}

func TestSlippagePredictHeuristicBeforeWarmup(t *testing.T) {
	e := NewSlippageEstimator(100, 10, nil)
	asks, bids := book(100, 0.1)

	// (spread/mid) * (1 + quantity/askVolume) = (0.2/100) * (1 + 1/10)
	got := e.Predict(asks, bids, 1)
	assert.InDelta(t, 0.0022, got, 1e-9)
	assert.False(t, e.IsWarm())
}

func TestSlippageWarmupTransition(t *testing.T) {
	e := NewSlippageEstimator(100, 10, nil)

	for i := 0; i < 9; i++ {
		asks, bids := book(100, 0.05+float64(i)*0.01)
		e.Update(asks, bids, 1)
	}
	assert.False(t, e.IsWarm())

	asks, bids := book(100, 0.15)
	e.Update(asks, bids, 1)
	assert.True(t, e.IsWarm())
	assert.Equal(t, 10, e.WindowLen())
}

func TestSlippagePredictFittedIsNonNegative(t *testing.T) {
	e := NewSlippageEstimator(200, 10, nil)

	for i := 0; i < 150; i++ {
		asks, bids := book(100, 0.05+float64(i%20)*0.005)
		e.Update(asks, bids, 1)

		got := e.Predict(asks, bids, 1)
		assert.GreaterOrEqual(t, got, 0.0, "iteration %d", i)
	}
	require.True(t, e.IsWarm())
}

func TestSlippagePredictIsIdempotent(t *testing.T) {
	e := NewSlippageEstimator(100, 10, nil)
	for i := 0; i < 30; i++ {
		asks, bids := book(100, 0.1)
		e.Update(asks, bids, 1)
	}

	asks, bids := book(100, 0.1)
	first := e.Predict(asks, bids, 2)
	second := e.Predict(asks, bids, 2)
	assert.Equal(t, first, second)
}

func TestSlippageUpdateIgnoresEmptySides(t *testing.T) {
	e := NewSlippageEstimator(100, 10, nil)
	asks, _ := book(100, 0.1)

	e.Update(asks, nil, 1)
	e.Update(nil, nil, 1)
	assert.Zero(t, e.WindowLen())
	assert.Zero(t, e.Predict(nil, nil, 1))
}

func TestSlippageSellSideLabel(t *testing.T) {
	e := NewSlippageEstimator(100, 1, nil)
	asks, bids := book(100, 0.1)

	// A sell (negative quantity) labels against the bid VWAP; the window
	// accepts it like any other sample.
	e.Update(asks, bids, -1)
	assert.Equal(t, 1, e.WindowLen())
}
