package model

import (
	"github.com/alanyoungcy/costsim/internal/domain"
)

const (
	// DefaultMakerTakerWindow is the rolling-window capacity for
	// maker/taker training samples.
	DefaultMakerTakerWindow = 1000

	// DefaultMakerTakerWarmup is the sample count at which the classifier
	// receives its single warm-up fit.
	DefaultMakerTakerWarmup = 100

	// featureDepth is the number of levels per side used for depth and
	// dispersion features.
	featureDepth = 5

	// volumeDepth is the number of levels per side used for the total
	// volume feature.
	volumeDepth = 10
)

// MakerTakerEstimator predicts the probability that a hypothetical order
// fills passively (maker). It keeps a rolling window of labeled book
// features and fits an online logistic classifier once, eagerly, the first
// time the window reaches the warm-up threshold. Unlike the slippage
// estimator it does not refit on every update.
//
// Owned by the ingestion path; not safe for concurrent use.
type MakerTakerEstimator struct {
	window  *SampleWindow
	learner Learner
	warmup  int
	fitted  bool
}

// NewMakerTakerEstimator creates an estimator with the given window capacity
// and warm-up threshold. A nil learner defaults to the logistic classifier.
func NewMakerTakerEstimator(windowSize, warmup int, learner Learner) *MakerTakerEstimator {
	if windowSize <= 0 {
		windowSize = DefaultMakerTakerWindow
	}
	if warmup <= 0 {
		warmup = DefaultMakerTakerWarmup
	}
	if learner == nil {
		learner = NewLogisticClassifier()
	}
	return &MakerTakerEstimator{
		window:  NewSampleWindow(windowSize),
		learner: learner,
		warmup:  warmup,
	}
}

// IsWarm reports whether the classifier has received its warm-up fit.
func (e *MakerTakerEstimator) IsWarm() bool {
	return e.fitted
}

// WindowLen returns the current number of training samples.
func (e *MakerTakerEstimator) WindowLen() int {
	return e.window.Len()
}

// Update records one labeled observation and performs the one-shot warm-up
// fit when the window first reaches the threshold.
func (e *MakerTakerEstimator) Update(asks, bids []domain.PriceLevel, isMaker bool) {
	if len(asks) == 0 || len(bids) == 0 {
		return
	}

	label := 0.0
	if isMaker {
		label = 1.0
	}
	e.window.Push(Sample{Features: e.features(asks, bids), Label: label})

	if !e.fitted && e.window.Len() >= e.warmup {
		e.learner.Fit(e.window.Samples())
		e.fitted = true
	}
}

// PredictMakerProbability returns the maker probability in [0, 1]. Before
// warm-up it uses a spread heuristic clamped to [0.2, 0.8]: wider spreads
// push toward a passive fill. PredictMakerProbability is read-only and
// idempotent.
func (e *MakerTakerEstimator) PredictMakerProbability(asks, bids []domain.PriceLevel) float64 {
	if len(asks) == 0 || len(bids) == 0 {
		return 0.5
	}

	if !e.fitted {
		mid := (asks[0].Price + bids[0].Price) / 2
		if mid <= 0 {
			return 0.5
		}
		spread := asks[0].Price - bids[0].Price
		return clamp(0.5+10*(spread/mid), 0.2, 0.8)
	}

	return clamp(e.learner.PredictOne(e.features(asks, bids)), 0, 1)
}

// features derives the maker/taker feature vector: spread, top-5 depth, book
// imbalance, price dispersion over the top 5 levels of both sides, and total
// top-10 volume.
func (e *MakerTakerEstimator) features(asks, bids []domain.PriceLevel) []float64 {
	spread := asks[0].Price - bids[0].Price
	depth := totalQuantity(asks, featureDepth) + totalQuantity(bids, featureDepth)
	volume := totalQuantity(asks, volumeDepth) + totalQuantity(bids, volumeDepth)

	return []float64{
		spread,
		depth,
		imbalance(asks, bids, featureDepth),
		priceDispersion(asks, bids, featureDepth),
		volume,
	}
}
