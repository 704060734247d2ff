package domain

import "time"

// PriceLevel is a single price+quantity entry in an orderbook. A level is
// immutable once constructed; the validator only emits levels with positive
// price and quantity.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// OrderBookSnapshot is a sanitized, sorted view of one L2 message for a single
// instrument. Asks are ascending and bids descending by price; both sides are
// non-empty. A snapshot is owned by whichever pipeline stage currently holds
// it and is never mutated after construction.
type OrderBookSnapshot struct {
	Asks      []PriceLevel
	Bids      []PriceLevel
	BestBid   float64
	BestAsk   float64
	MidPrice  float64
	// WideSpread marks a book whose relative spread exceeds the warning
	// threshold. Downstream fee computation prices against the best bid
	// instead of the mid when this is set.
	WideSpread bool
	Timestamp  time.Time
}

// Spread returns the relative bid/ask spread (best ask minus best bid, as a
// fraction of the best bid).
func (s *OrderBookSnapshot) Spread() float64 {
	if s.BestBid <= 0 {
		return 0
	}
	return (s.BestAsk - s.BestBid) / s.BestBid
}
