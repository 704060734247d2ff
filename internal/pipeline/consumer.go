package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// DefaultDrainInterval is how often the consumer drains the handoff queue.
const DefaultDrainInterval = 100 * time.Millisecond

// Sink receives drained batches of estimate records. Sink errors are logged
// and the batch is passed to the remaining sinks; a failing sink never
// stalls the pipeline.
type Sink interface {
	Consume(ctx context.Context, recs []domain.CostEstimateRecord) error
}

// Consumer drains the pipeline's queue on a fixed interval and fans each
// batch out to its sinks.
type Consumer struct {
	queue    *RecordQueue
	sinks    []Sink
	interval time.Duration
	logger   *slog.Logger
}

// NewConsumer creates a Consumer draining queue into sinks every interval.
func NewConsumer(queue *RecordQueue, sinks []Sink, interval time.Duration, logger *slog.Logger) *Consumer {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	return &Consumer{
		queue:    queue,
		sinks:    sinks,
		interval: interval,
		logger:   logger.With(slog.String("component", "consumer")),
	}
}

// Run drains until ctx is cancelled, then performs one final drain so
// nothing queued at shutdown is lost.
func (c *Consumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(context.Background())
			return ctx.Err()
		case <-ticker.C:
			c.flush(ctx)
		}
	}
}

func (c *Consumer) flush(ctx context.Context) {
	recs := c.queue.Drain(0)
	if len(recs) == 0 {
		return
	}
	for _, sink := range c.sinks {
		if err := sink.Consume(ctx, recs); err != nil {
			c.logger.Error("sink failed",
				slog.Int("records", len(recs)),
				slog.String("error", err.Error()),
			)
		}
	}
}
