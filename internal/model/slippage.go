package model

import (
	"github.com/alanyoungcy/costsim/internal/domain"
)

const (
	// DefaultSlippageWindow is the rolling-window capacity for slippage
	// training samples.
	DefaultSlippageWindow = 500

	// DefaultSlippageWarmup is the minimum sample count before the fitted
	// model is trusted over the closed-form heuristic.
	DefaultSlippageWarmup = 10
)

// SlippageEstimator predicts expected slippage as a percentage of mid price.
// It maintains a rolling window of (features, realized slippage) samples and
// refits an online median regressor on every update once warm; before warm-up
// it falls back to a spread-based heuristic.
//
// The estimator is owned by the ingestion path and is not safe for concurrent
// use; updates and predictions happen synchronously per message.
type SlippageEstimator struct {
	window  *SampleWindow
	learner Learner
	warmup  int
}

// NewSlippageEstimator creates an estimator with the given window capacity
// and warm-up threshold. A nil learner defaults to the quantile regressor.
func NewSlippageEstimator(windowSize, warmup int, learner Learner) *SlippageEstimator {
	if windowSize <= 0 {
		windowSize = DefaultSlippageWindow
	}
	if warmup <= 0 {
		warmup = DefaultSlippageWarmup
	}
	if learner == nil {
		learner = NewQuantileRegressor()
	}
	return &SlippageEstimator{
		window:  NewSampleWindow(windowSize),
		learner: learner,
		warmup:  warmup,
	}
}

// IsWarm reports whether enough samples have been observed to trust the
// fitted model.
func (e *SlippageEstimator) IsWarm() bool {
	return e.window.Len() >= e.warmup
}

// WindowLen returns the current number of training samples.
func (e *SlippageEstimator) WindowLen() int {
	return e.window.Len()
}

// Update records one observation. The realized slippage label is the distance
// from mid to the executable VWAP on the side the signed quantity would hit:
// ask VWAP for buys (positive quantity), bid VWAP for sells. Once warm, the
// regressor is refit on the full window.
func (e *SlippageEstimator) Update(asks, bids []domain.PriceLevel, signedQuantity float64) {
	if len(asks) == 0 || len(bids) == 0 {
		return
	}

	mid := (asks[0].Price + bids[0].Price) / 2
	if mid <= 0 {
		return
	}

	var realized float64
	if signedQuantity >= 0 {
		realized = (vwap(asks, 0) - mid) / mid
	} else {
		realized = (mid - vwap(bids, 0)) / mid
	}

	e.window.Push(Sample{
		Features: e.features(asks, bids, signedQuantity),
		Label:    realized,
	})

	if e.IsWarm() {
		e.learner.Fit(e.window.Samples())
	}
}

// Predict returns the expected slippage percentage for an order of the given
// quantity. Before warm-up it uses the closed-form heuristic
// (spread/mid)*(1+quantity/totalAskVolume); afterwards it evaluates the
// fitted regressor. The result is clamped non-negative: slippage is a cost,
// never a rebate, in this model. Predict is read-only and idempotent.
func (e *SlippageEstimator) Predict(asks, bids []domain.PriceLevel, quantity float64) float64 {
	if len(asks) == 0 || len(bids) == 0 {
		return 0
	}

	mid := (asks[0].Price + bids[0].Price) / 2
	if mid <= 0 {
		return 0
	}

	if !e.IsWarm() {
		spread := asks[0].Price - bids[0].Price
		askVolume := totalQuantity(asks, 0)
		if askVolume == 0 {
			return spread / mid
		}
		return (spread / mid) * (1 + quantity/askVolume)
	}

	pred := e.learner.PredictOne(e.features(asks, bids, quantity))
	if pred < 0 {
		return 0
	}
	return pred
}

// features derives the slippage feature vector: relative spread, ask/bid
// VWAP distances from mid, book imbalance, and relative order size.
func (e *SlippageEstimator) features(asks, bids []domain.PriceLevel, quantity float64) []float64 {
	mid := (asks[0].Price + bids[0].Price) / 2
	spread := (asks[0].Price - bids[0].Price) / mid
	askVWAP := vwap(asks, 0)
	bidVWAP := vwap(bids, 0)

	askVolume := totalQuantity(asks, 0)
	relSize := 0.0
	if askVolume > 0 {
		relSize = abs(quantity) / askVolume
	}

	return []float64{
		spread,
		(askVWAP - mid) / mid,
		(mid - bidVWAP) / mid,
		imbalance(asks, bids, 0),
		relSize,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
