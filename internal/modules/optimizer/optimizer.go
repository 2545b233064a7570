// Package optimizer computes mean-variance optimal portfolio weights.
package optimizer

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/advisor/internal/domain"
)

// Request describes one optimization run
type Request struct {
	Model        domain.ReturnModel
	Profile      domain.RiskProfile
	HorizonYears int
	// MaxWeight caps each asset's allocation. Zero means uncapped (1.0).
	MaxWeight float64
}

// Result is the optimal allocation with its portfolio statistics
type Result struct {
	Symbols        []string  `json:"symbols"`
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	Volatility     float64   `json:"volatility"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	Iterations     int       `json:"iterations"`
	Capped         bool      `json:"capped"`
}

// Optimizer wraps the solver with risk-profile and horizon handling
type Optimizer struct {
	solver       Solver
	riskFreeRate float64
	horizonDecay float64
	ridge        float64
	log          zerolog.Logger
}

// New creates an optimizer. horizonDecay softens risk aversion for long
// horizons; ridge is added to the covariance diagonal so near-singular
// matrices stay numerically tame.
func New(solver Solver, riskFreeRate, horizonDecay, ridge float64, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		solver:       solver,
		riskFreeRate: riskFreeRate,
		horizonDecay: horizonDecay,
		ridge:        ridge,
		log:          log.With().Str("component", "optimizer").Logger(),
	}
}

// EffectiveRiskAversion scales the profile's coefficient down as the horizon
// grows: lambda / (1 + decay*(years-1)). A one-year horizon leaves the
// coefficient untouched.
func (o *Optimizer) EffectiveRiskAversion(profile domain.RiskProfile, horizonYears int) float64 {
	if horizonYears < 1 {
		horizonYears = 1
	}
	return profile.Coefficient() / (1 + o.horizonDecay*float64(horizonYears-1))
}

// Optimize solves for the weights maximizing expected return minus the
// risk-aversion-weighted variance, subject to full investment and per-asset
// caps.
func (o *Optimizer) Optimize(req Request) (Result, error) {
	model := req.Model
	n := len(model.Symbols)

	if n == 0 {
		return Result{}, &domain.InvalidPortfolioError{Reason: "no assets to optimize"}
	}

	maxWeight := req.MaxWeight
	if maxWeight <= 0 || maxWeight > 1 {
		maxWeight = 1
	}

	lambda := o.EffectiveRiskAversion(req.Profile, req.HorizonYears)

	if n == 1 {
		// Full investment forces the single asset to 100% regardless of caps
		if maxWeight < 1-domain.WeightSumTolerance {
			return Result{}, &domain.OptimizationInfeasibleError{
				Reason: "weight caps sum to less than 1",
			}
		}
		return o.finalize(model, []float64{1}, 1, false)
	}

	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := model.Covariance[i][j]
			if i == j {
				v += o.ridge
			}
			sigma.SetSym(i, j, v)
		}
	}

	upper := make([]float64, n)
	for i := range upper {
		upper[i] = maxWeight
	}

	sol, err := o.solver.Solve(model.ExpectedReturns, sigma, lambda, upper)
	if err != nil {
		return Result{}, err
	}

	o.log.Debug().
		Int("assets", n).
		Float64("lambda", lambda).
		Int("iterations", sol.Iterations).
		Bool("capped", sol.Capped).
		Msg("Optimization solved")

	return o.finalize(model, sol.Weights, sol.Iterations, sol.Capped)
}

// finalize attaches portfolio statistics to a weight vector and runs the
// finite-value guard before the result crosses the API boundary.
func (o *Optimizer) finalize(model domain.ReturnModel, weights []float64, iterations int, capped bool) (Result, error) {
	expReturn := 0.0
	for i, w := range weights {
		expReturn += w * model.ExpectedReturns[i]
	}

	variance := 0.0
	for i, wi := range weights {
		for j, wj := range weights {
			variance += wi * wj * model.Covariance[i][j]
		}
	}
	if variance < 0 {
		variance = 0
	}
	volatility := math.Sqrt(variance)

	sharpe := 0.0
	if volatility > 0 {
		sharpe = (expReturn - o.riskFreeRate) / volatility
	}

	values := append([]float64{expReturn, volatility, sharpe}, weights...)
	if err := domain.CheckFinite(values...); err != nil {
		return Result{}, err
	}

	return Result{
		Symbols:        model.Symbols,
		Weights:        weights,
		ExpectedReturn: expReturn,
		Volatility:     volatility,
		SharpeRatio:    sharpe,
		Iterations:     iterations,
		Capped:         capped,
	}, nil
}
