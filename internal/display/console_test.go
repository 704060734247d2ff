package display

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/costsim/internal/domain"
)

func TestConsumeRendersNewestRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	err := sink.Consume(context.Background(), []domain.CostEstimateRecord{
		{SlippagePct: 0.99}, // superseded within the batch
		{
			SlippagePct:      0.0022,
			FeeAmount:        0.10,
			FeeRatePct:       0.10,
			ImpactAmount:     0.30,
			NetCost:          0.4022,
			MakerProbability: 0.52,
			LatencyMs:        1.25,
		},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"slippage=0.2200% fee=$0.10 (0.1000%) impact=$0.30 net=$0.40 maker/taker=0.52/0.48 latency=1.2 ms\n",
		buf.String(),
	)
}

func TestConsumeEmptyBatchWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	require.NoError(t, sink.Consume(context.Background(), nil))
	assert.Zero(t, buf.Len())
}
