package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// EstimateStore implements domain.EstimateStore using PostgreSQL.
type EstimateStore struct {
	pool *pgxpool.Pool
}

var _ domain.EstimateStore = (*EstimateStore)(nil)

// NewEstimateStore creates a new EstimateStore backed by the given pool.
func NewEstimateStore(pool *pgxpool.Pool) *EstimateStore {
	return &EstimateStore{pool: pool}
}

const estimateSelectCols = `id, slippage_pct, fee_amount, fee_rate_pct,
	impact_amount, net_cost, maker_probability, latency_ms, created_at`

func scanEstimateRows(rows pgx.Rows) ([]domain.CostEstimateRecord, error) {
	var recs []domain.CostEstimateRecord
	for rows.Next() {
		var r domain.CostEstimateRecord
		if err := rows.Scan(
			&r.ID, &r.SlippagePct, &r.FeeAmount, &r.FeeRatePct,
			&r.ImpactAmount, &r.NetCost, &r.MakerProbability,
			&r.LatencyMs, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// InsertBatch inserts multiple estimate records using a pgx Batch.
// Re-delivered records with an existing id are silently skipped.
func (s *EstimateStore) InsertBatch(ctx context.Context, recs []domain.CostEstimateRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO cost_estimates (
			id, slippage_pct, fee_amount, fee_rate_pct,
			impact_amount, net_cost, maker_probability,
			latency_ms, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9
		) ON CONFLICT (id) DO NOTHING`

	for _, r := range recs {
		batch.Queue(query,
			r.ID, r.SlippagePct, r.FeeAmount, r.FeeRatePct,
			r.ImpactAmount, r.NetCost, r.MakerProbability,
			r.LatencyMs, r.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range recs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert estimate batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListBefore returns up to limit records created before cutoff, oldest first.
func (s *EstimateStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.CostEstimateRecord, error) {
	query := `SELECT ` + estimateSelectCols + `
		FROM cost_estimates WHERE created_at < $1 ORDER BY created_at ASC`
	args := []any{cutoff}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list estimates before cutoff: %w", err)
	}
	defer rows.Close()

	recs, err := scanEstimateRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan estimates: %w", err)
	}
	return recs, nil
}

// DeleteIDs removes the records with the given IDs and returns the number of
// rows deleted.
func (s *EstimateStore) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM cost_estimates WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete estimates by id: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Latest returns the most recently created record, or domain.ErrNotFound
// when the table is empty.
func (s *EstimateStore) Latest(ctx context.Context) (domain.CostEstimateRecord, error) {
	var r domain.CostEstimateRecord
	err := s.pool.QueryRow(ctx,
		`SELECT `+estimateSelectCols+`
		FROM cost_estimates ORDER BY created_at DESC LIMIT 1`,
	).Scan(
		&r.ID, &r.SlippagePct, &r.FeeAmount, &r.FeeRatePct,
		&r.ImpactAmount, &r.NetCost, &r.MakerProbability,
		&r.LatencyMs, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CostEstimateRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CostEstimateRecord{}, fmt.Errorf("postgres: latest estimate: %w", err)
	}
	return r, nil
}
