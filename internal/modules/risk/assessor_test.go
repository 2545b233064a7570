package risk

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/advisor/internal/domain"
)

func newTestAssessor() *Assessor {
	return New(0.10, 0.20, zerolog.Nop())
}

func modelWithCorrelation(rho float64) domain.ReturnModel {
	// Two assets at 20% vol each; off-diagonal scales with correlation
	cov := 0.04 * rho
	return domain.ReturnModel{
		Symbols:         []string{"AAA", "BBB"},
		ExpectedReturns: []float64{0.08, 0.06},
		Covariance:      [][]float64{{0.04, cov}, {cov, 0.04}},
		Periods:         252,
	}
}

func TestAssessPortfolioVolatility(t *testing.T) {
	a := newTestAssessor()

	// Equal weights, uncorrelated 20%-vol assets: vol = sqrt(0.5^2*0.04*2) ~ 14.14%
	got, err := a.Assess([]float64{0.5, 0.5}, modelWithCorrelation(0), domain.RiskModerate)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.02), got.Volatility, 1e-9)
	assert.Equal(t, domain.BandModerate, got.Band)
	assert.InDelta(t, 0.5, got.Herfindahl, 1e-9)
	assert.InDelta(t, 0.5, got.LargestWeight, 1e-9)
	assert.True(t, got.FitsProfile)
}

func TestAssessCorrelationRaisesRisk(t *testing.T) {
	a := newTestAssessor()
	w := []float64{0.5, 0.5}

	prev := -1.0
	for _, rho := range []float64{-0.5, 0, 0.5, 1} {
		got, err := a.Assess(w, modelWithCorrelation(rho), domain.RiskModerate)
		require.NoError(t, err)
		assert.Greater(t, got.Volatility, prev, "volatility should rise with correlation")
		prev = got.Volatility
	}

	// Perfectly correlated equal-vol assets diversify nothing
	got, err := a.Assess(w, modelWithCorrelation(1), domain.RiskModerate)
	require.NoError(t, err)
	assert.InDelta(t, 0.20, got.Volatility, 1e-9)
	assert.Equal(t, domain.BandHigh, got.Band)
	assert.False(t, got.FitsProfile)
}

func TestBandThresholds(t *testing.T) {
	a := newTestAssessor()

	assert.Equal(t, domain.BandLow, a.Band(0.05))
	assert.Equal(t, domain.BandModerate, a.Band(0.10))
	assert.Equal(t, domain.BandModerate, a.Band(0.15))
	assert.Equal(t, domain.BandHigh, a.Band(0.20))
	assert.Equal(t, domain.BandHigh, a.Band(0.50))
}

func TestFitsProfileByBand(t *testing.T) {
	a := newTestAssessor()
	model := modelWithCorrelation(1) // 20% vol at equal weights -> HIGH

	got, err := a.Assess([]float64{0.5, 0.5}, model, domain.RiskAggressive)
	require.NoError(t, err)
	assert.True(t, got.FitsProfile)

	got, err = a.Assess([]float64{0.5, 0.5}, model, domain.RiskConservative)
	require.NoError(t, err)
	assert.False(t, got.FitsProfile)
}

func TestAssessRejectsInvalidWeights(t *testing.T) {
	a := newTestAssessor()
	model := modelWithCorrelation(0)

	var invalid *domain.InvalidPortfolioError

	_, err := a.Assess([]float64{0.5, 0.6}, model, domain.RiskModerate)
	require.ErrorAs(t, err, &invalid)

	_, err = a.Assess([]float64{1.5, -0.5}, model, domain.RiskModerate)
	require.ErrorAs(t, err, &invalid)

	_, err = a.Assess([]float64{1}, model, domain.RiskModerate)
	require.ErrorAs(t, err, &invalid)
}

func TestHerfindahlConcentration(t *testing.T) {
	a := newTestAssessor()
	model := modelWithCorrelation(0)

	spread, err := a.Assess([]float64{0.5, 0.5}, model, domain.RiskModerate)
	require.NoError(t, err)
	concentrated, err := a.Assess([]float64{0.9, 0.1}, model, domain.RiskModerate)
	require.NoError(t, err)

	assert.Greater(t, concentrated.Herfindahl, spread.Herfindahl)
	assert.InDelta(t, 0.82, concentrated.Herfindahl, 1e-9)
	assert.InDelta(t, 0.18, concentrated.Diversification, 1e-9)
}
