package optimizer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/advisor/internal/domain"
)

func twoAssetModel() domain.ReturnModel {
	return domain.ReturnModel{
		Symbols:         []string{"GROWTH", "BOND"},
		ExpectedReturns: []float64{0.10, 0.05},
		Covariance:      [][]float64{{0.04, 0.01}, {0.01, 0.02}},
		Periods:         252,
	}
}

func newTestOptimizer() *Optimizer {
	return New(NewProjectedGradient(500), 0, 0.05, 1e-8, zerolog.Nop())
}

func assertValidWeights(t *testing.T, weights []float64) {
	t.Helper()
	sum := 0.0
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, -1e-9)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestOptimizeModerateFavorsHighReturn(t *testing.T) {
	o := newTestOptimizer()

	res, err := o.Optimize(Request{Model: twoAssetModel(), Profile: domain.RiskModerate, HorizonYears: 1})
	require.NoError(t, err)
	assertValidWeights(t, res.Weights)

	// At lambda 0.5 the unconstrained optimum sits past the simplex corner,
	// so everything lands on the higher-return asset.
	assert.InDelta(t, 1.0, res.Weights[0], 1e-4)
	assert.InDelta(t, 0.0, res.Weights[1], 1e-4)
	assert.InDelta(t, 0.10, res.ExpectedReturn, 1e-4)
	assert.InDelta(t, 0.20, res.Volatility, 1e-4)
	assert.InDelta(t, 0.5, res.SharpeRatio, 1e-3)
}

func TestSolverInteriorOptimum(t *testing.T) {
	solver := NewProjectedGradient(500)

	mu := []float64{0.10, 0.05}
	sigma := mat.NewSymDense(2, []float64{0.04, 0.01, 0.01, 0.02})
	upper := []float64{1, 1}

	// Analytic optimum for lambda=2: d/da [0.05 + 0.05a - 2(0.04a^2 - 0.02a + 0.02)] = 0
	// gives a = 0.5625.
	sol, err := solver.Solve(mu, sigma, 2, upper)
	require.NoError(t, err)
	assert.InDelta(t, 0.5625, sol.Weights[0], 1e-4)
	assert.InDelta(t, 0.4375, sol.Weights[1], 1e-4)
	assert.False(t, sol.Capped)
}

func TestHigherRiskAversionMovesTowardMinVariance(t *testing.T) {
	solver := NewProjectedGradient(500)

	mu := []float64{0.10, 0.05}
	sigma := mat.NewSymDense(2, []float64{0.04, 0.01, 0.01, 0.02})
	upper := []float64{1, 1}

	moderate, err := solver.Solve(mu, sigma, 2, upper)
	require.NoError(t, err)
	averse, err := solver.Solve(mu, sigma, 10, upper)
	require.NoError(t, err)

	// The minimum-variance portfolio here holds 25% of the first asset;
	// rising lambda pulls the allocation toward it.
	assert.Less(t, averse.Weights[0], moderate.Weights[0])
	assert.InDelta(t, 0.3125, averse.Weights[0], 1e-4)
}

func TestOptimizeRespectsWeightCap(t *testing.T) {
	o := newTestOptimizer()

	res, err := o.Optimize(Request{
		Model:        twoAssetModel(),
		Profile:      domain.RiskModerate,
		HorizonYears: 1,
		MaxWeight:    0.6,
	})
	require.NoError(t, err)
	assertValidWeights(t, res.Weights)
	assert.InDelta(t, 0.6, res.Weights[0], 1e-4)
	assert.InDelta(t, 0.4, res.Weights[1], 1e-4)
}

func TestOptimizeInfeasibleCaps(t *testing.T) {
	o := newTestOptimizer()

	_, err := o.Optimize(Request{
		Model:        twoAssetModel(),
		Profile:      domain.RiskModerate,
		HorizonYears: 1,
		MaxWeight:    0.4,
	})
	require.Error(t, err)

	var infeasible *domain.OptimizationInfeasibleError
	assert.ErrorAs(t, err, &infeasible)
}

func TestOptimizeSingleAsset(t *testing.T) {
	o := newTestOptimizer()

	model := domain.ReturnModel{
		Symbols:         []string{"ONLY"},
		ExpectedReturns: []float64{0.08},
		Covariance:      [][]float64{{0.04}},
		Periods:         252,
	}

	res, err := o.Optimize(Request{Model: model, Profile: domain.RiskAggressive, HorizonYears: 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, res.Weights)
	assert.InDelta(t, 0.08, res.ExpectedReturn, 1e-9)
	assert.InDelta(t, 0.2, res.Volatility, 1e-9)
}

func TestEffectiveRiskAversionHorizonDecay(t *testing.T) {
	o := newTestOptimizer()

	assert.InDelta(t, 0.5, o.EffectiveRiskAversion(domain.RiskModerate, 1), 1e-9)
	assert.InDelta(t, 0.5/1.2, o.EffectiveRiskAversion(domain.RiskModerate, 5), 1e-9)
	assert.InDelta(t, 0.3, o.EffectiveRiskAversion(domain.RiskConservative, 0), 1e-9)

	// Longer horizons tolerate more risk, so the high-return asset gains weight
	solver := NewProjectedGradient(500)
	mu := []float64{0.10, 0.05}
	sigma := mat.NewSymDense(2, []float64{0.04, 0.01, 0.01, 0.02})
	short, err := solver.Solve(mu, sigma, o.EffectiveRiskAversion(domain.RiskConservative, 1)*10, []float64{1, 1})
	require.NoError(t, err)
	long, err := solver.Solve(mu, sigma, o.EffectiveRiskAversion(domain.RiskConservative, 10)*10, []float64{1, 1})
	require.NoError(t, err)
	assert.Greater(t, long.Weights[0], short.Weights[0])
}

func TestOptimizeZeroVolatilitySharpe(t *testing.T) {
	o := newTestOptimizer()

	model := domain.ReturnModel{
		Symbols:         []string{"CASH"},
		ExpectedReturns: []float64{0.02},
		Covariance:      [][]float64{{0}},
		Periods:         252,
	}

	res, err := o.Optimize(Request{Model: model, Profile: domain.RiskModerate, HorizonYears: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Volatility)
	assert.Equal(t, 0.0, res.SharpeRatio)
}

func TestProjectCappedSimplex(t *testing.T) {
	w := projectCappedSimplex([]float64{0.9, 0.9, 0.9}, []float64{1, 1, 1})
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, w[0], w[1], 1e-9)

	w = projectCappedSimplex([]float64{2, 0, 0}, []float64{0.5, 1, 1})
	assert.InDelta(t, 0.5, w[0], 1e-9)
	assert.InDelta(t, 1.0, w[0]+w[1]+w[2], 1e-9)
}
