package domain

import (
	"context"
	"io"
	"time"
)

// EstimateStore persists the published cost-estimate history. Pruning is by
// explicit ID so a row is only ever deleted after its batch was archived.
type EstimateStore interface {
	InsertBatch(ctx context.Context, records []CostEstimateRecord) error
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]CostEstimateRecord, error)
	DeleteIDs(ctx context.Context, ids []string) (int64, error)
	Latest(ctx context.Context) (CostEstimateRecord, error)
}

// EstimateCache provides fast access to the most recent estimate.
type EstimateCache interface {
	SetLatest(ctx context.Context, rec CostEstimateRecord) error
	GetLatest(ctx context.Context) (CostEstimateRecord, error)
}

// EstimateBus fans published estimates out to external subscribers
// (frontends, dashboards). Subscribers attach with their own Redis clients;
// this process only publishes.
type EstimateBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// BlobWriter uploads objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
