package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// latestEstimateKey holds the newest estimate record as JSON.
const latestEstimateKey = "costsim:estimate:latest"

// latestEstimateTTL bounds staleness: a stale key expires rather than
// serving an estimate from a dead pipeline.
const latestEstimateTTL = 5 * time.Minute

// EstimateCache implements domain.EstimateCache over a single Redis key.
type EstimateCache struct {
	rdb *redis.Client
}

var _ domain.EstimateCache = (*EstimateCache)(nil)

// NewEstimateCache creates an EstimateCache backed by the given Client.
func NewEstimateCache(c *Client) *EstimateCache {
	return &EstimateCache{rdb: c.Underlying()}
}

// SetLatest stores rec as the current estimate.
func (ec *EstimateCache) SetLatest(ctx context.Context, rec domain.CostEstimateRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: marshal estimate: %w", err)
	}
	if err := ec.rdb.Set(ctx, latestEstimateKey, payload, latestEstimateTTL).Err(); err != nil {
		return fmt.Errorf("redis: set latest estimate: %w", err)
	}
	return nil
}

// GetLatest returns the current estimate, or domain.ErrNotFound when the
// key is absent or expired.
func (ec *EstimateCache) GetLatest(ctx context.Context) (domain.CostEstimateRecord, error) {
	payload, err := ec.rdb.Get(ctx, latestEstimateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CostEstimateRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CostEstimateRecord{}, fmt.Errorf("redis: get latest estimate: %w", err)
	}

	var rec domain.CostEstimateRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.CostEstimateRecord{}, fmt.Errorf("redis: unmarshal estimate: %w", err)
	}
	return rec, nil
}
