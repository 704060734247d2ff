package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// DefaultEstimateChannel is the pub/sub channel the latest estimate is
// published on.
const DefaultEstimateChannel = "costsim:estimates"

// StoreSink persists drained batches into an estimate store.
type StoreSink struct {
	store domain.EstimateStore
}

var _ Sink = (*StoreSink)(nil)

func NewStoreSink(store domain.EstimateStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Consume(ctx context.Context, recs []domain.CostEstimateRecord) error {
	if err := s.store.InsertBatch(ctx, recs); err != nil {
		return fmt.Errorf("pipeline: insert batch: %w", err)
	}
	return nil
}

// PublishSink caches the newest record of each batch and broadcasts it on
// the estimate bus as JSON.
type PublishSink struct {
	cache   domain.EstimateCache
	bus     domain.EstimateBus
	channel string
}

var _ Sink = (*PublishSink)(nil)

func NewPublishSink(cache domain.EstimateCache, bus domain.EstimateBus, channel string) *PublishSink {
	if channel == "" {
		channel = DefaultEstimateChannel
	}
	return &PublishSink{cache: cache, bus: bus, channel: channel}
}

func (s *PublishSink) Consume(ctx context.Context, recs []domain.CostEstimateRecord) error {
	if len(recs) == 0 {
		return nil
	}
	latest := recs[len(recs)-1]

	if err := s.cache.SetLatest(ctx, latest); err != nil {
		return fmt.Errorf("pipeline: cache latest: %w", err)
	}

	payload, err := json.Marshal(latest)
	if err != nil {
		return fmt.Errorf("pipeline: marshal estimate: %w", err)
	}
	if err := s.bus.Publish(ctx, s.channel, payload); err != nil {
		return fmt.Errorf("pipeline: publish estimate: %w", err)
	}
	return nil
}
