package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/costsim/internal/book"
	"github.com/alanyoungcy/costsim/internal/domain"
	"github.com/alanyoungcy/costsim/internal/metrics"
	"github.com/alanyoungcy/costsim/internal/model"
)

func testPipeline(t *testing.T) (*Pipeline, *metrics.Set) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	impact, err := model.NewAlmgrenChriss(0.02, 0.1, 0.1)
	require.NoError(t, err)

	met := metrics.New()
	p := New(
		book.NewValidator(logger),
		model.NewSlippageEstimator(100, 10, nil),
		model.NewMakerTakerEstimator(100, 10, nil),
		impact,
		model.NewFeeCalculator(),
		8,
		met,
		logger,
	)
	return p, met
}

func rawBook(asks, bids [][]any) book.RawMessage {
	return book.RawMessage{
		Timestamp: "2025-05-04T10:39:01Z",
		Exchange:  "OKX",
		Symbol:    "BTC-USDT-SWAP",
		Asks:      asks,
		Bids:      bids,
	}
}

func TestHandleMessageSkipsWithoutInput(t *testing.T) {
	p, met := testPipeline(t)

	p.HandleMessage(rawBook(
		[][]any{{100.1, 1.0}},
		[][]any{{99.9, 1.0}},
	))

	assert.Zero(t, p.Queue().Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(met.CyclesSkipped))
	assert.Zero(t, testutil.ToFloat64(met.RecordsPublished))
}

func TestHandleMessageRejectsEmptyBook(t *testing.T) {
	p, met := testPipeline(t)
	p.SetInput(domain.OperatorInput{Quantity: 1, FeeTier: 1, Volatility: 0.02})

	p.HandleMessage(rawBook(nil, nil))

	assert.Zero(t, p.Queue().Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(met.SnapshotsRejected))
}

func TestHandleMessagePublishesRecord(t *testing.T) {
	p, met := testPipeline(t)
	p.SetInput(domain.OperatorInput{Quantity: 1, FeeTier: 1, Volatility: 0.02})

	p.HandleMessage(rawBook(
		[][]any{{100.1, 5.0}, {100.2, 5.0}},
		[][]any{{99.9, 5.0}, {99.8, 5.0}},
	))

	out := p.Queue().Drain(0)
	require.Len(t, out, 1)
	rec := out[0]

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "2025-05-04T10:39:01Z", rec.CreatedAt.Format("2006-01-02T15:04:05Z"))

	// Tier-1 taker fee against mid: 1 * 100.0 * 0.10%.
	assert.InDelta(t, 0.10, rec.FeeAmount, 1e-9)
	assert.InDelta(t, 0.10, rec.FeeRatePct, 1e-9)
	assert.Greater(t, rec.SlippagePct, 0.0)
	assert.Greater(t, rec.ImpactAmount, 0.0)
	assert.InDelta(t, rec.SlippagePct+rec.FeeAmount+rec.ImpactAmount, rec.NetCost, 1e-9)
	assert.GreaterOrEqual(t, rec.MakerProbability, 0.0)
	assert.LessOrEqual(t, rec.MakerProbability, 1.0)
	assert.GreaterOrEqual(t, rec.LatencyMs, 0.0)

	assert.Equal(t, 1.0, testutil.ToFloat64(met.MessagesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.RecordsPublished))
}

func TestHandleMessageWideSpreadPricesAtBestBid(t *testing.T) {
	p, _ := testPipeline(t)
	p.SetInput(domain.OperatorInput{Quantity: 1, FeeTier: 1, Volatility: 0.02})

	// Spread of 2 on a bid of 100 is 2%, well past the warning threshold.
	p.HandleMessage(rawBook(
		[][]any{{102.0, 5.0}},
		[][]any{{100.0, 5.0}},
	))

	out := p.Queue().Drain(0)
	require.Len(t, out, 1)

	// Fee priced at the best bid, not the mid: 1 * 100.0 * 0.10%.
	assert.InDelta(t, 0.10, out[0].FeeAmount, 1e-9)
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	p, met := testPipeline(t)

	cases := []domain.OperatorInput{
		{Quantity: 0, FeeTier: 1, Volatility: 0.02},
		{Quantity: 1, FeeTier: 0, Volatility: 0.02},
		{Quantity: 1, FeeTier: 4, Volatility: 0.02},
		{Quantity: 1, FeeTier: 1, Volatility: 1.5},
		{Quantity: 1, FeeTier: 1, Volatility: -0.1},
	}
	for _, in := range cases {
		p.SetInput(in)
		p.HandleMessage(rawBook(
			[][]any{{100.1, 1.0}},
			[][]any{{99.9, 1.0}},
		))
	}

	assert.Zero(t, p.Queue().Len())
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(met.CyclesSkipped))
}

func TestTrackSpreadReturnsPriorMean(t *testing.T) {
	p, _ := testPipeline(t)

	assert.Zero(t, p.trackSpread(0.002))
	assert.InDelta(t, 0.002, p.trackSpread(0.004), 1e-12)
	assert.InDelta(t, 0.003, p.trackSpread(0.006), 1e-12)
}

func TestSetInputLastWriteWins(t *testing.T) {
	p, _ := testPipeline(t)
	assert.Equal(t, domain.OperatorInput{}, p.Input())

	p.SetInput(domain.OperatorInput{Quantity: 10, FeeTier: 2, Volatility: 0.05})
	p.SetInput(domain.OperatorInput{Quantity: 20, FeeTier: 3, Volatility: 0.1})

	got := p.Input()
	assert.Equal(t, 20.0, got.Quantity)
	assert.Equal(t, 3, got.FeeTier)
}
