package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/costsim/internal/domain"
)

func TestNewAlmgrenChrissRejectsBadCoefficients(t *testing.T) {
	_, err := NewAlmgrenChriss(0.02, 0, 0.1)
	assert.ErrorIs(t, err, domain.ErrInvalidCoefficients)

	_, err = NewAlmgrenChriss(0.02, 0.1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidCoefficients)
}

func TestImpact(t *testing.T) {
	m, err := NewAlmgrenChriss(0.02, 0.1, 0.1)
	require.NoError(t, err)

	temp, perm := m.Impact(1, 50_000, 1)
	assert.InDelta(t, 2e-6, perm, 1e-15)
	assert.Greater(t, temp, 0.0)

	// Impact grows with order size.
	temp2, perm2 := m.Impact(10, 50_000, 1)
	assert.Greater(t, temp2, temp)
	assert.Greater(t, perm2, perm)
}

func TestOptimalSchedule(t *testing.T) {
	m, err := NewAlmgrenChriss(0.02, 0.1, 0.1)
	require.NoError(t, err)

	rates := m.OptimalSchedule(100, 1)
	require.Len(t, rates, 10)

	// The schedule starts at the full quantity and decays monotonically.
	assert.InDelta(t, 100, rates[0], 1e-9)
	for i := 1; i < len(rates); i++ {
		assert.Less(t, rates[i], rates[i-1])
	}
	assert.Greater(t, rates[len(rates)-1], 0.0)
}
