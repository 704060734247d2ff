package model

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// scheduleSteps is the number of points in the optimal execution schedule.
const scheduleSteps = 10

// AlmgrenChriss is the closed-form Almgren-Chriss market-impact model.
// Volatility may be updated between calls to track the operator's current
// input; eta and gamma are fixed at construction.
type AlmgrenChriss struct {
	volatility float64
	eta        float64 // temporary-impact coefficient
	gamma      float64 // permanent-impact coefficient
}

// NewAlmgrenChriss creates the model. Non-positive eta or gamma is a
// programming error (the execution schedule divides by both) and fails fast.
func NewAlmgrenChriss(volatility, eta, gamma float64) (*AlmgrenChriss, error) {
	if eta <= 0 || gamma <= 0 {
		return nil, fmt.Errorf("eta=%v gamma=%v: %w", eta, gamma, domain.ErrInvalidCoefficients)
	}
	return &AlmgrenChriss{volatility: volatility, eta: eta, gamma: gamma}, nil
}

// SetVolatility replaces the volatility used by the execution schedule.
func (m *AlmgrenChriss) SetVolatility(v float64) {
	m.volatility = v
}

// Impact returns the temporary and permanent market impact for an order of
// the given quantity executed over horizonDays. Both values are fractions of
// price; multiply by price for a quote-currency amount.
func (m *AlmgrenChriss) Impact(quantity, price, horizonDays float64) (tempImpact, permImpact float64) {
	tempImpact = m.eta * (quantity / price) * math.Sqrt(quantity/horizonDays)
	permImpact = m.gamma * (quantity / price)
	return tempImpact, permImpact
}

// OptimalSchedule returns the optimal trading rate at ten equally spaced
// points in [0, horizonDays]. The schedule decays monotonically, front-loading
// execution.
func (m *AlmgrenChriss) OptimalSchedule(quantity, horizonDays float64) []float64 {
	k := math.Sqrt(m.eta * m.volatility / m.gamma)
	denom := math.Cosh(k * horizonDays)

	rates := make([]float64, scheduleSteps)
	for i := range rates {
		t := horizonDays * float64(i) / float64(scheduleSteps-1)
		rates[i] = quantity * math.Cosh(k*(horizonDays-t)) / denom
	}
	return rates
}
