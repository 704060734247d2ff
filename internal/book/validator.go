package book

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/alanyoungcy/costsim/internal/domain"
)

const (
	// maxLevelGap is the largest relative price gap tolerated between two
	// adjacent levels on one side before the further level is treated as
	// an outlier.
	maxLevelGap = 0.01

	// wideSpreadThreshold is the relative spread above which the snapshot
	// is flagged (a warning, not a rejection).
	wideSpreadThreshold = 0.01
)

// Validator turns raw wire messages into sanitized OrderBookSnapshots.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{
		logger: logger.With(slog.String("component", "book_validator")),
	}
}

// Validate sanitizes a raw message. It returns domain.ErrEmptyBook when
// either side is missing from the message and domain.ErrNoValidLevels when
// coercion leaves a side empty. Individual bad levels are dropped and logged
// without rejecting the whole message.
func (v *Validator) Validate(msg RawMessage) (*domain.OrderBookSnapshot, error) {
	if len(msg.Asks) == 0 || len(msg.Bids) == 0 {
		return nil, domain.ErrEmptyBook
	}

	asks := v.coerceLevels(msg.Asks, "ask")
	bids := v.coerceLevels(msg.Bids, "bid")
	if len(asks) == 0 || len(bids) == 0 {
		return nil, domain.ErrNoValidLevels
	}

	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })

	asks = mergeDuplicates(asks)
	bids = mergeDuplicates(bids)

	asks = dropFirstOutlier(asks, func(prev, cur domain.PriceLevel) float64 {
		return (cur.Price - prev.Price) / prev.Price
	})
	bids = dropFirstOutlier(bids, func(prev, cur domain.PriceLevel) float64 {
		return (prev.Price - cur.Price) / prev.Price
	})

	snap := &domain.OrderBookSnapshot{
		Asks:      asks,
		Bids:      bids,
		BestAsk:   asks[0].Price,
		BestBid:   bids[0].Price,
		Timestamp: parseTimestamp(msg.Timestamp),
	}
	snap.MidPrice = (snap.BestAsk + snap.BestBid) / 2

	if snap.Spread() > wideSpreadThreshold {
		snap.WideSpread = true
		v.logger.Warn("wide spread detected",
			slog.Float64("best_bid", snap.BestBid),
			slog.Float64("best_ask", snap.BestAsk),
			slog.Float64("spread", snap.Spread()),
		)
	}

	return snap, nil
}

// coerceLevels converts raw (price, quantity) pairs to PriceLevels, dropping
// pairs that fail coercion or carry non-positive values.
func (v *Validator) coerceLevels(raw [][]any, side string) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for i, pair := range raw {
		if len(pair) < 2 {
			v.logger.Debug("dropping malformed level",
				slog.String("side", side), slog.Int("index", i))
			continue
		}
		price, perr := toFloat(pair[0])
		qty, qerr := toFloat(pair[1])
		if perr != nil || qerr != nil || price <= 0 || qty <= 0 {
			v.logger.Debug("dropping invalid level",
				slog.String("side", side),
				slog.Int("index", i),
				slog.Any("price", pair[0]),
				slog.Any("quantity", pair[1]),
			)
			continue
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels
}

// mergeDuplicates collapses adjacent equal-price levels into one, summing
// their quantities, so each side stays strictly monotonic. Levels must
// already be sorted.
func mergeDuplicates(levels []domain.PriceLevel) []domain.PriceLevel {
	out := levels[:1]
	for _, l := range levels[1:] {
		if l.Price == out[len(out)-1].Price {
			out[len(out)-1].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}

// dropFirstOutlier scans from the best price for the first adjacent pair
// whose relative gap exceeds maxLevelGap and removes the further level. At
// most one level is removed per call; scanning stops at the first hit so the
// cost stays a single bounded pass.
func dropFirstOutlier(levels []domain.PriceLevel, gap func(prev, cur domain.PriceLevel) float64) []domain.PriceLevel {
	for i := 1; i < len(levels); i++ {
		if gap(levels[i-1], levels[i]) > maxLevelGap {
			return append(levels[:i], levels[i+1:]...)
		}
	}
	return levels
}

// toFloat coerces a decoded JSON value (string, number) to float64.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	case json.Number:
		return x.Float64()
	default:
		return 0, strconv.ErrSyntax
	}
}

// parseTimestamp interprets the exchange timestamp, falling back to the local
// receive time when absent or unparseable.
func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Now().UTC()
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t
	}
	return time.Now().UTC()
}
