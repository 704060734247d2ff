package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/costsim/internal/domain"
)

type fakeEstimateStore struct {
	rows    []domain.CostEstimateRecord
	deleted []string
	listErr error
}

func (s *fakeEstimateStore) InsertBatch(_ context.Context, recs []domain.CostEstimateRecord) error {
	s.rows = append(s.rows, recs...)
	return nil
}

func (s *fakeEstimateStore) ListBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.CostEstimateRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.CostEstimateRecord
	for _, r := range s.rows {
		if r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeEstimateStore) DeleteIDs(_ context.Context, ids []string) (int64, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.rows[:0]
	for _, r := range s.rows {
		if drop[r.ID] {
			s.deleted = append(s.deleted, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return int64(len(ids)), nil
}

func (s *fakeEstimateStore) Latest(_ context.Context) (domain.CostEstimateRecord, error) {
	if len(s.rows) == 0 {
		return domain.CostEstimateRecord{}, domain.ErrNotFound
	}
	return s.rows[len(s.rows)-1], nil
}

type fakeBlobWriter struct {
	path        string
	contentType string
	body        []byte
	puts        int
	err         error
}

func (b *fakeBlobWriter) Put(_ context.Context, path string, r io.Reader, contentType string) error {
	if b.err != nil {
		return b.err
	}
	b.puts++
	b.path = path
	b.contentType = contentType
	b.body, _ = io.ReadAll(r)
	return nil
}

func archiverLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func agedRows(ids ...string) []domain.CostEstimateRecord {
	created := time.Now().UTC().Add(-48 * time.Hour)
	recs := make([]domain.CostEstimateRecord, len(ids))
	for i, id := range ids {
		recs[i] = domain.CostEstimateRecord{
			ID:        id,
			CreatedAt: created.Add(time.Duration(i) * time.Minute),
		}
	}
	return recs
}

func TestSweepArchivesAndPrunes(t *testing.T) {
	created := time.Date(2025, 5, 4, 10, 39, 1, 0, time.UTC)
	store := &fakeEstimateStore{rows: []domain.CostEstimateRecord{
		{ID: "r1", SlippagePct: 0.0022, FeeAmount: 0.1, NetCost: 0.4022, CreatedAt: created},
		{ID: "r2", SlippagePct: 0.003, FeeAmount: 0.1, NetCost: 0.5, CreatedAt: created.Add(time.Second)},
	}}
	blob := &fakeBlobWriter{}
	a := NewArchiver(store, blob, ArchiverConfig{Retention: time.Hour}, archiverLogger())

	require.NoError(t, a.Sweep(context.Background()))

	assert.Equal(t, "text/csv", blob.contentType)
	assert.Contains(t, blob.path, "estimates/")
	assert.Equal(t, []string{"r1", "r2"}, store.deleted)
	assert.Empty(t, store.rows)

	rows, err := csv.NewReader(bytes.NewReader(blob.body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, "0.0022", rows[1][1])
	assert.Equal(t, "2025-05-04T10:39:01Z", rows[1][8])
	assert.Equal(t, "r2", rows[2][0])
}

func TestSweepPrunesOnlyArchivedRows(t *testing.T) {
	store := &fakeEstimateStore{rows: agedRows("r1", "r2", "r3", "r4", "r5")}
	blob := &fakeBlobWriter{}
	a := NewArchiver(store, blob, ArchiverConfig{Retention: time.Hour, BatchSize: 2}, archiverLogger())

	require.NoError(t, a.Sweep(context.Background()))

	// Only the two rows in the uploaded CSV were pruned; the overflow
	// waits for the next sweep.
	assert.Equal(t, []string{"r1", "r2"}, store.deleted)
	require.Len(t, store.rows, 3)
	assert.Equal(t, "r3", store.rows[0].ID)

	rows, err := csv.NewReader(bytes.NewReader(blob.body)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3) // header + 2 records

	// Successive sweeps drain the backlog without losing anything.
	require.NoError(t, a.Sweep(context.Background()))
	require.NoError(t, a.Sweep(context.Background()))
	assert.Empty(t, store.rows)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5"}, store.deleted)
	assert.Equal(t, 3, blob.puts)
}

func TestSweepNoAgedRowsIsNoop(t *testing.T) {
	store := &fakeEstimateStore{}
	blob := &fakeBlobWriter{}
	a := NewArchiver(store, blob, ArchiverConfig{}, archiverLogger())

	require.NoError(t, a.Sweep(context.Background()))
	assert.Empty(t, blob.path)
}

func TestSweepUploadFailureKeepsRows(t *testing.T) {
	store := &fakeEstimateStore{rows: agedRows("r1")}
	blob := &fakeBlobWriter{err: errors.New("bucket offline")}
	a := NewArchiver(store, blob, ArchiverConfig{}, archiverLogger())

	err := a.Sweep(context.Background())
	require.Error(t, err)
	assert.Len(t, store.rows, 1)
	assert.Empty(t, store.deleted)
}
