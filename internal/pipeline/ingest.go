// Package pipeline wires the validator and the cost models together: every
// validated snapshot is scored synchronously on the receive path and the
// resulting estimate record is published to a bounded handoff queue drained
// by a periodic consumer.
package pipeline

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/costsim/internal/book"
	"github.com/alanyoungcy/costsim/internal/domain"
	"github.com/alanyoungcy/costsim/internal/metrics"
	"github.com/alanyoungcy/costsim/internal/model"
)

// impactHorizonDays is the execution horizon assumed for the hypothetical
// order.
const impactHorizonDays = 1.0

// operatorTiers is the UI-restricted subset of the fee table the operator
// may select from.
const operatorTiers = 3

// latencyLogEvery is how many processed messages pass between latency
// summaries in the debug log.
const latencyLogEvery = 1000

// Pipeline is the ingestion pipeline. Messages are handled strictly in
// arrival order on the feed's receive goroutine; operator inputs are read
// with last-write-wins semantics.
type Pipeline struct {
	validator  *book.Validator
	slippage   *model.SlippageEstimator
	makerTaker *model.MakerTakerEstimator
	impact     *model.AlmgrenChriss
	fees       *model.FeeCalculator

	input atomic.Pointer[domain.OperatorInput]

	queue   *RecordQueue
	latency *latencyWindow
	met     *metrics.Set
	logger  *slog.Logger

	// Trailing mean of the relative spread, used to label maker/taker
	// training samples: a book wider than its own recent average makes a
	// passive fill plausible.
	spreadMean  float64
	spreadCount int64

	lastVolatility float64
	processed      int64
}

// New creates a Pipeline publishing to a queue of the given capacity.
func New(
	validator *book.Validator,
	slippage *model.SlippageEstimator,
	makerTaker *model.MakerTakerEstimator,
	impact *model.AlmgrenChriss,
	fees *model.FeeCalculator,
	queueCapacity int,
	met *metrics.Set,
	logger *slog.Logger,
) *Pipeline {
	p := &Pipeline{
		validator:  validator,
		slippage:   slippage,
		makerTaker: makerTaker,
		impact:     impact,
		fees:       fees,
		latency:    newLatencyWindow(defaultLatencySamples),
		met:        met,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
	p.queue = NewRecordQueue(queueCapacity, met.RecordsDropped.Inc)
	return p
}

// SetInput replaces the operator inputs used for subsequent cycles.
func (p *Pipeline) SetInput(in domain.OperatorInput) {
	p.input.Store(&in)
}

// Input returns the current operator inputs (zero value when unset).
func (p *Pipeline) Input() domain.OperatorInput {
	if in := p.input.Load(); in != nil {
		return *in
	}
	return domain.OperatorInput{}
}

// Queue exposes the handoff queue for the consumer.
func (p *Pipeline) Queue() *RecordQueue {
	return p.queue
}

// HandleMessage processes one raw message end to end: validate, update and
// apply the estimators, assemble a record, publish. It is the feed handler
// and must stay bounded-latency; every failure mode skips the cycle rather
// than stopping the pipeline.
func (p *Pipeline) HandleMessage(msg book.RawMessage) {
	start := time.Now()

	snap, err := p.validator.Validate(msg)
	if err != nil {
		p.met.SnapshotsRejected.Inc()
		p.logger.Debug("snapshot rejected", slog.String("reason", err.Error()))
		return
	}

	in := p.Input()
	if !validInput(in) {
		p.met.CyclesSkipped.Inc()
		p.logger.Warn("skipping cycle: invalid operator input",
			slog.Float64("quantity", in.Quantity),
			slog.Int("fee_tier", in.FeeTier),
			slog.Float64("volatility", in.Volatility),
		)
		return
	}

	// Slippage: update the rolling window, then predict.
	p.slippage.Update(snap.Asks, snap.Bids, in.Quantity)
	slippagePct := p.slippage.Predict(snap.Asks, snap.Bids, in.Quantity)

	// Fee: a wide-spread book is priced conservatively at the best bid.
	price := snap.MidPrice
	if snap.WideSpread {
		price = snap.BestBid
	}
	feeAmount, feeRate, err := p.fees.CalculateFee(model.OrderTypeMarket, in.Quantity, price, in.FeeTier, false)
	if err != nil {
		// Unreachable given input validation; treat as a skipped cycle
		// rather than crashing the receive path.
		p.met.CyclesSkipped.Inc()
		p.logger.Error("fee calculation failed", slog.String("error", err.Error()))
		return
	}

	// Market impact with the operator's current volatility.
	p.impact.SetVolatility(in.Volatility)
	if in.Volatility != p.lastVolatility {
		p.lastVolatility = in.Volatility
		p.logger.Debug("execution schedule recomputed",
			slog.Float64("volatility", in.Volatility),
			slog.Any("rates", p.impact.OptimalSchedule(in.Quantity, impactHorizonDays)),
		)
	}
	tempImpact, permImpact := p.impact.Impact(in.Quantity, price, impactHorizonDays)
	impactAmount := (tempImpact + permImpact) * price

	// Maker/taker: label against the trailing spread mean, then predict.
	rel := snap.Spread()
	p.makerTaker.Update(snap.Asks, snap.Bids, rel > p.trackSpread(rel))
	makerProb := p.makerTaker.PredictMakerProbability(snap.Asks, snap.Bids)

	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	p.latency.Observe(elapsedMs)
	avgLatency := p.latency.Mean()
	p.met.PipelineLatencyMs.Set(avgLatency)

	p.processed++
	if p.processed%latencyLogEvery == 0 {
		p.logger.Debug("latency window",
			slog.Float64("mean_ms", avgLatency),
			slog.Float64("min_ms", p.latency.Min()),
			slog.Float64("max_ms", p.latency.Max()),
		)
	}

	rec := domain.CostEstimateRecord{
		ID:               uuid.NewString(),
		SlippagePct:      slippagePct,
		FeeAmount:        feeAmount,
		FeeRatePct:       feeRate,
		ImpactAmount:     impactAmount,
		NetCost:          slippagePct + feeAmount + impactAmount,
		MakerProbability: makerProb,
		LatencyMs:        avgLatency,
		CreatedAt:        snap.Timestamp,
	}

	p.queue.Push(rec)
	p.met.MessagesProcessed.Inc()
	p.met.RecordsPublished.Inc()
}

// trackSpread folds one relative-spread observation into the trailing mean
// and returns the mean prior to the observation.
func (p *Pipeline) trackSpread(rel float64) float64 {
	prior := p.spreadMean
	p.spreadCount++
	p.spreadMean += (rel - p.spreadMean) / float64(p.spreadCount)
	return prior
}

// validInput enforces the operator-input contract: positive quantity, fee
// tier within the UI subset, volatility in [0, 1].
func validInput(in domain.OperatorInput) bool {
	if in.Quantity <= 0 {
		return false
	}
	if in.FeeTier < 1 || in.FeeTier > operatorTiers {
		return false
	}
	if in.Volatility < 0 || in.Volatility > 1 {
		return false
	}
	return true
}
