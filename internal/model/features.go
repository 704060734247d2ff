package model

import (
	"math"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// vwap returns the volume-weighted average price over up to depth levels.
func vwap(levels []domain.PriceLevel, depth int) float64 {
	if depth <= 0 || depth > len(levels) {
		depth = len(levels)
	}
	var notional, volume float64
	for _, l := range levels[:depth] {
		notional += l.Price * l.Quantity
		volume += l.Quantity
	}
	if volume == 0 {
		return 0
	}
	return notional / volume
}

// totalQuantity sums quantities over up to depth levels.
func totalQuantity(levels []domain.PriceLevel, depth int) float64 {
	if depth <= 0 || depth > len(levels) {
		depth = len(levels)
	}
	var sum float64
	for _, l := range levels[:depth] {
		sum += l.Quantity
	}
	return sum
}

// imbalance returns (bidDepth-askDepth)/(bidDepth+askDepth) over the top
// depth levels of each side, in [-1, 1].
func imbalance(asks, bids []domain.PriceLevel, depth int) float64 {
	askDepth := totalQuantity(asks, depth)
	bidDepth := totalQuantity(bids, depth)
	total := askDepth + bidDepth
	if total == 0 {
		return 0
	}
	return (bidDepth - askDepth) / total
}

// priceDispersion returns the standard deviation of the top depth ask and bid
// prices pooled together.
func priceDispersion(asks, bids []domain.PriceLevel, depth int) float64 {
	prices := make([]float64, 0, 2*depth)
	for i := 0; i < depth && i < len(asks); i++ {
		prices = append(prices, asks[i].Price)
	}
	for i := 0; i < depth && i < len(bids); i++ {
		prices = append(prices, bids[i].Price)
	}
	if len(prices) < 2 {
		return 0
	}
	var mean float64
	for _, p := range prices {
		mean += p
	}
	mean /= float64(len(prices))
	var variance float64
	for _, p := range prices {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(prices))
	return math.Sqrt(variance)
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
