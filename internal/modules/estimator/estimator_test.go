package estimator

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/advisor/internal/domain"
)

func seriesFromCloses(symbol string, closes []float64) domain.AssetSeries {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: base.AddDate(0, 0, i), Close: c}
	}
	return domain.AssetSeries{Symbol: symbol, Points: points}
}

func TestEstimateTwoAssets(t *testing.T) {
	e := New(252, nil, zerolog.Nop())

	series := map[string]domain.AssetSeries{
		"AAA": seriesFromCloses("AAA", []float64{100, 110, 99}),
		"BBB": seriesFromCloses("BBB", []float64{50, 55, 49.5}),
	}

	model, err := e.Estimate(series, []string{"AAA", "BBB"}, 365)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, model.Symbols)
	assert.Equal(t, 2, model.Periods)

	// Returns are [0.10, -0.10] for both assets: zero mean, sample
	// variance 0.02, annualized by 252.
	assert.InDelta(t, 0.0, model.ExpectedReturns[0], 1e-9)
	assert.InDelta(t, 0.0, model.ExpectedReturns[1], 1e-9)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, 0.02*252, model.Covariance[i][j], 1e-9)
		}
	}
}

func TestEstimateAlignsUnequalLengths(t *testing.T) {
	e := New(252, nil, zerolog.Nop())

	series := map[string]domain.AssetSeries{
		"LONG":  seriesFromCloses("LONG", []float64{90, 95, 100, 110, 99}),
		"SHORT": seriesFromCloses("SHORT", []float64{50, 55, 49.5}),
	}

	model, err := e.Estimate(series, []string{"LONG", "SHORT"}, 365)
	require.NoError(t, err)

	// Aligned on SHORT's 2 return periods; LONG's older returns dropped,
	// so both assets see [0.10, -0.10].
	assert.Equal(t, 2, model.Periods)
	assert.InDelta(t, 0.0, model.ExpectedReturns[0], 1e-9)
	assert.InDelta(t, 0.02*252, model.Covariance[0][1], 1e-9)
}

func TestEstimateCovarianceSymmetric(t *testing.T) {
	e := New(252, nil, zerolog.Nop())

	series := map[string]domain.AssetSeries{
		"AAA": seriesFromCloses("AAA", []float64{100, 103, 101, 107, 105}),
		"BBB": seriesFromCloses("BBB", []float64{50, 49, 52, 51, 54}),
		"CCC": seriesFromCloses("CCC", []float64{20, 21, 20.5, 22, 21.7}),
	}

	model, err := e.Estimate(series, []string{"AAA", "BBB", "CCC"}, 365)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Greater(t, model.Covariance[i][i], 0.0)
		for j := 0; j < 3; j++ {
			assert.Equal(t, model.Covariance[i][j], model.Covariance[j][i])
		}
	}
}

func TestEstimateInsufficientData(t *testing.T) {
	e := New(252, nil, zerolog.Nop())

	series := map[string]domain.AssetSeries{
		"AAA": seriesFromCloses("AAA", []float64{100, 110, 99}),
		"BBB": seriesFromCloses("BBB", []float64{50, 55}),
	}

	_, err := e.Estimate(series, []string{"AAA", "BBB"}, 365)
	require.Error(t, err)

	var insufficient *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "BBB", insufficient.Symbol)
	assert.Equal(t, 1, insufficient.Periods)
}

func TestEstimateMissingSymbol(t *testing.T) {
	e := New(252, nil, zerolog.Nop())

	series := map[string]domain.AssetSeries{
		"AAA": seriesFromCloses("AAA", []float64{100, 110, 99}),
	}

	_, err := e.Estimate(series, []string{"AAA", "GONE"}, 365)
	require.Error(t, err)

	var mismatch *domain.SymbolMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "GONE", mismatch.Symbol)
}
