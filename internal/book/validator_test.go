package book

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/costsim/internal/domain"
)

func testValidator() *Validator {
	return NewValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestValidateSortsLevels(t *testing.T) {
	v := testValidator()

	msg := RawMessage{
		Timestamp: "2025-05-04T10:00:00Z",
		Asks: [][]any{
			{100.3, 1.0},
			{100.1, 2.0},
			{100.2, 3.0},
		},
		Bids: [][]any{
			{99.8, 1.0},
			{99.9, 2.0},
			{99.7, 3.0},
		},
	}

	snap, err := v.Validate(msg)
	require.NoError(t, err)

	require.Len(t, snap.Asks, 3)
	require.Len(t, snap.Bids, 3)
	for i := 1; i < len(snap.Asks); i++ {
		assert.Less(t, snap.Asks[i-1].Price, snap.Asks[i].Price)
	}
	for i := 1; i < len(snap.Bids); i++ {
		assert.Greater(t, snap.Bids[i-1].Price, snap.Bids[i].Price)
	}

	assert.Equal(t, 100.1, snap.BestAsk)
	assert.Equal(t, 99.9, snap.BestBid)
	assert.Equal(t, 100.0, snap.MidPrice)
	assert.False(t, snap.WideSpread)
	assert.Equal(t, time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC), snap.Timestamp)
}

func TestValidateEmptyBook(t *testing.T) {
	v := testValidator()

	_, err := v.Validate(RawMessage{Bids: [][]any{{99.9, 1.0}}})
	assert.ErrorIs(t, err, domain.ErrEmptyBook)

	_, err = v.Validate(RawMessage{Asks: [][]any{{100.1, 1.0}}})
	assert.ErrorIs(t, err, domain.ErrEmptyBook)
}

func TestValidateNoValidLevels(t *testing.T) {
	v := testValidator()

	msg := RawMessage{
		Asks: [][]any{
			{"not-a-price", 1.0},
			{-5.0, 1.0},
			{100.1, 0.0},
		},
		Bids: [][]any{{99.9, 1.0}},
	}

	_, err := v.Validate(msg)
	assert.ErrorIs(t, err, domain.ErrNoValidLevels)
}

func TestValidateDropsBadLevelsKeepsRest(t *testing.T) {
	v := testValidator()

	msg := RawMessage{
		Asks: [][]any{
			{"100.1", "2.5"},
			{100.2, -1.0},
			{100.3},
			{100.4, 1.0},
		},
		Bids: [][]any{
			{99.9, 1.0},
			{"bogus", 1.0},
		},
	}

	snap, err := v.Validate(msg)
	require.NoError(t, err)

	require.Len(t, snap.Asks, 2)
	assert.Equal(t, 100.1, snap.Asks[0].Price)
	assert.Equal(t, 2.5, snap.Asks[0].Quantity)
	assert.Equal(t, 100.4, snap.Asks[1].Price)
	require.Len(t, snap.Bids, 1)
}

func TestValidateDropsFirstOutlierPerSide(t *testing.T) {
	v := testValidator()

	// The 100.5 -> 102.0 ask gap (~1.5%) exceeds the tolerance; only the
	// first such level is removed even though 102.0 -> 104.0 also gaps.
	msg := RawMessage{
		Asks: [][]any{
			{100.0, 1.0},
			{100.5, 1.0},
			{102.0, 1.0},
			{104.0, 1.0},
		},
		Bids: [][]any{
			{99.9, 1.0},
			{99.5, 1.0},
			{98.0, 1.0},
		},
	}

	snap, err := v.Validate(msg)
	require.NoError(t, err)

	askPrices := make([]float64, 0, len(snap.Asks))
	for _, l := range snap.Asks {
		askPrices = append(askPrices, l.Price)
	}
	assert.Equal(t, []float64{100.0, 100.5, 104.0}, askPrices)

	bidPrices := make([]float64, 0, len(snap.Bids))
	for _, l := range snap.Bids {
		bidPrices = append(bidPrices, l.Price)
	}
	assert.Equal(t, []float64{99.9, 99.5}, bidPrices)
}

func TestValidateMergesDuplicatePrices(t *testing.T) {
	v := testValidator()

	msg := RawMessage{
		Asks: [][]any{
			{100.1, 1.0},
			{100.1, 2.0},
			{100.2, 1.0},
		},
		Bids: [][]any{
			{99.9, 3.0},
			{99.8, 1.0},
			{99.9, 1.5},
		},
	}

	snap, err := v.Validate(msg)
	require.NoError(t, err)

	require.Len(t, snap.Asks, 2)
	assert.Equal(t, 100.1, snap.Asks[0].Price)
	assert.Equal(t, 3.0, snap.Asks[0].Quantity)
	for i := 1; i < len(snap.Asks); i++ {
		assert.Less(t, snap.Asks[i-1].Price, snap.Asks[i].Price)
	}

	require.Len(t, snap.Bids, 2)
	assert.Equal(t, 99.9, snap.Bids[0].Price)
	assert.Equal(t, 4.5, snap.Bids[0].Quantity)
	for i := 1; i < len(snap.Bids); i++ {
		assert.Greater(t, snap.Bids[i-1].Price, snap.Bids[i].Price)
	}
}

func TestValidateFlagsWideSpread(t *testing.T) {
	v := testValidator()

	msg := RawMessage{
		Asks: [][]any{{102.0, 1.0}},
		Bids: [][]any{{100.0, 1.0}},
	}

	snap, err := v.Validate(msg)
	require.NoError(t, err)
	assert.True(t, snap.WideSpread)
	assert.InDelta(t, 0.02, snap.Spread(), 1e-12)
}

func TestValidateFallsBackToReceiveTime(t *testing.T) {
	v := testValidator()

	before := time.Now().UTC()
	snap, err := v.Validate(RawMessage{
		Timestamp: "garbage",
		Asks:      [][]any{{100.1, 1.0}},
		Bids:      [][]any{{99.9, 1.0}},
	})
	require.NoError(t, err)
	assert.False(t, snap.Timestamp.Before(before))
}
