// Package display renders cost estimates for an operator terminal.
package display

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// ConsoleSink writes the newest estimate of each batch to an io.Writer in
// a fixed single-line layout.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Consume renders the last record of the batch. Earlier records in the
// same batch are superseded and not shown.
func (c *ConsoleSink) Consume(_ context.Context, recs []domain.CostEstimateRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rec := recs[len(recs)-1]

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out,
		"slippage=%.4f%% fee=$%.2f (%.4f%%) impact=$%.2f net=$%.2f maker/taker=%.2f/%.2f latency=%.1f ms\n",
		rec.SlippagePct*100,
		rec.FeeAmount,
		rec.FeeRatePct,
		rec.ImpactAmount,
		rec.NetCost,
		rec.MakerProbability,
		rec.TakerProbability(),
		rec.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("display: write estimate: %w", err)
	}
	return nil
}
