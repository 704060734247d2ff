package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// Archiver periodically moves aged estimate rows out of the store into
// blob storage as CSV, then prunes them. A failed upload leaves the rows
// in place for the next sweep.
type Archiver struct {
	store     domain.EstimateStore
	blob      domain.BlobWriter
	retention time.Duration
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// ArchiverConfig controls sweep cadence and retention.
type ArchiverConfig struct {
	Retention time.Duration
	Interval  time.Duration
	BatchSize int
}

func NewArchiver(store domain.EstimateStore, blob domain.BlobWriter, cfg ArchiverConfig, logger *slog.Logger) *Archiver {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10000
	}
	return &Archiver{
		store:     store,
		blob:      blob,
		retention: cfg.Retention,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.Sweep(ctx); err != nil {
				a.logger.Error("archive sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep archives and prunes one batch of rows older than the retention
// cutoff. Only the rows that made it into the uploaded CSV are pruned;
// aged rows beyond the batch size stay for the next sweep. A no-op when
// nothing has aged out.
func (a *Archiver) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-a.retention)

	recs, err := a.store.ListBefore(ctx, cutoff, a.batchSize)
	if err != nil {
		return fmt.Errorf("pipeline: list aged estimates: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	body, err := encodeCSV(recs)
	if err != nil {
		return fmt.Errorf("pipeline: encode archive: %w", err)
	}

	path := fmt.Sprintf("estimates/%s.csv", cutoff.Format("2006-01-02T15-04-05"))
	if err := a.blob.Put(ctx, path, bytes.NewReader(body), "text/csv"); err != nil {
		return fmt.Errorf("pipeline: upload archive: %w", err)
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	deleted, err := a.store.DeleteIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("pipeline: prune archived estimates: %w", err)
	}

	a.logger.Info("archived estimates",
		slog.String("path", path),
		slog.Int("records", len(recs)),
		slog.Int64("deleted", deleted),
	)
	return nil
}

func encodeCSV(recs []domain.CostEstimateRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "slippage_pct", "fee_amount", "fee_rate_pct",
		"impact_amount", "net_cost", "maker_probability",
		"latency_ms", "created_at",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range recs {
		row := []string{
			r.ID,
			formatFloat(r.SlippagePct),
			formatFloat(r.FeeAmount),
			formatFloat(r.FeeRatePct),
			formatFloat(r.ImpactAmount),
			formatFloat(r.NetCost),
			formatFloat(r.MakerProbability),
			formatFloat(r.LatencyMs),
			r.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
