package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWindowEvictsOldestFirst(t *testing.T) {
	w := NewSampleWindow(3)

	for i := 0; i < 5; i++ {
		w.Push(Sample{Label: float64(i)})
	}

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 3, w.Cap())

	samples := w.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, 2.0, samples[0].Label)
	assert.Equal(t, 3.0, samples[1].Label)
	assert.Equal(t, 4.0, samples[2].Label)
}

func TestSampleWindowPartialFill(t *testing.T) {
	w := NewSampleWindow(10)

	w.Push(Sample{Label: 1})
	w.Push(Sample{Label: 2})

	assert.Equal(t, 2, w.Len())
	samples := w.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, 1.0, samples[0].Label)
	assert.Equal(t, 2.0, samples[1].Label)
}

func TestSampleWindowZeroCapacity(t *testing.T) {
	w := NewSampleWindow(0)
	w.Push(Sample{Label: 1})
	w.Push(Sample{Label: 2})
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 2.0, w.Samples()[0].Label)
}
