package domain

import "time"

// OperatorInput bundles the three scalar inputs the operator supplies when
// sizing a hypothetical order. Inputs are advisory: the producer reads the
// latest value without coordination (last write wins).
type OperatorInput struct {
	// Quantity is the hypothetical order size in base units. Must be > 0.
	Quantity float64
	// FeeTier is the operator-selected fee tier. The UI exposes tiers 1-3
	// even though the full fee table has nine.
	FeeTier int
	// Volatility is the operator's market volatility estimate in [0, 1].
	Volatility float64
}

// CostEstimateRecord is the value object produced once per processed snapshot
// and handed across the queue boundary to the presentation layer, which owns
// it thereafter.
type CostEstimateRecord struct {
	ID string

	// SlippagePct is the expected slippage as a percentage of mid price.
	SlippagePct float64
	// FeeAmount is the expected exchange fee in quote currency.
	FeeAmount float64
	// FeeRatePct is the fee rate applied, as a percentage.
	FeeRatePct float64
	// ImpactAmount is the Almgren-Chriss temporary+permanent impact in
	// quote currency.
	ImpactAmount float64
	// NetCost is the sum of slippage, fee, and impact.
	NetCost float64
	// MakerProbability is the estimated probability of a passive (maker)
	// fill, in [0, 1]. The taker probability is its complement.
	MakerProbability float64
	// LatencyMs is the trailing-average pipeline processing latency in
	// milliseconds.
	LatencyMs float64

	CreatedAt time.Time
}

// TakerProbability returns the complement of MakerProbability.
func (r *CostEstimateRecord) TakerProbability() float64 {
	return 1 - r.MakerProbability
}
