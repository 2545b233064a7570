package optimizer

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/advisor/internal/domain"
)

// Solution is the raw solver output before portfolio statistics are attached
type Solution struct {
	Weights    []float64
	Iterations int
	Capped     bool
}

// Solver finds weights maximizing mu'w - lambda * w'Sigma*w over the capped
// simplex {sum(w) = 1, 0 <= w_i <= upper_i}.
type Solver interface {
	Solve(mu []float64, sigma *mat.SymDense, lambda float64, upper []float64) (Solution, error)
}

// ProjectedGradient is a first-order solver: gradient ascent steps followed by
// Euclidean projection back onto the capped simplex. The concave quadratic
// objective makes every fixed point a global optimum, so hitting the
// iteration cap only costs precision, never correctness of direction.
type ProjectedGradient struct {
	MaxIterations int
	Tolerance     float64
}

// NewProjectedGradient creates a solver with the given iteration cap
func NewProjectedGradient(maxIterations int) *ProjectedGradient {
	return &ProjectedGradient{
		MaxIterations: maxIterations,
		Tolerance:     1e-10,
	}
}

// Solve implements Solver. The starting point is the equal-weight portfolio
// projected into bounds, which makes the most even optimum the one reached
// when several are tied.
func (pg *ProjectedGradient) Solve(mu []float64, sigma *mat.SymDense, lambda float64, upper []float64) (Solution, error) {
	n := len(mu)

	total := 0.0
	for _, u := range upper {
		total += u
	}
	if total < 1-domain.WeightSumTolerance {
		return Solution{}, &domain.OptimizationInfeasibleError{
			Reason: "weight caps sum to less than 1",
		}
	}

	start := make([]float64, n)
	for i := range start {
		start[i] = 1.0 / float64(n)
	}
	w := projectCappedSimplex(start, upper)

	// Step size from a Lipschitz bound on the gradient (max row sum of
	// 2*lambda*Sigma). A floor keeps the step finite when lambda is tiny.
	lip := 0.0
	for i := 0; i < n; i++ {
		row := 0.0
		for j := 0; j < n; j++ {
			row += math.Abs(sigma.At(i, j))
		}
		if row > lip {
			lip = row
		}
	}
	step := 1.0 / math.Max(2*lambda*lip, 1e-6)

	grad := make([]float64, n)
	next := make([]float64, n)
	iterations := 0
	capped := true

	for iter := 0; iter < pg.MaxIterations; iter++ {
		iterations = iter + 1

		// grad = mu - 2*lambda*Sigma*w
		for i := 0; i < n; i++ {
			sw := 0.0
			for j := 0; j < n; j++ {
				sw += sigma.At(i, j) * w[j]
			}
			grad[i] = mu[i] - 2*lambda*sw
		}

		for i := 0; i < n; i++ {
			next[i] = w[i] + step*grad[i]
		}
		projected := projectCappedSimplex(next, upper)

		maxDelta := 0.0
		for i := 0; i < n; i++ {
			if d := math.Abs(projected[i] - w[i]); d > maxDelta {
				maxDelta = d
			}
		}
		copy(w, projected)

		if maxDelta < pg.Tolerance {
			capped = false
			break
		}
	}

	return Solution{Weights: w, Iterations: iterations, Capped: capped}, nil
}

// projectCappedSimplex computes the Euclidean projection of v onto
// {w : sum(w) = 1, 0 <= w_i <= upper_i}. The projection has the form
// w_i = clip(v_i - tau, 0, upper_i) for a shift tau found by bisection:
// the clipped sum is nonincreasing in tau and crosses 1 exactly once.
func projectCappedSimplex(v, upper []float64) []float64 {
	n := len(v)

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		if d := v[i] - upper[i]; d < lo {
			lo = d
		}
		if v[i] > hi {
			hi = v[i]
		}
	}

	clippedSum := func(tau float64) float64 {
		s := 0.0
		for i := 0; i < n; i++ {
			w := v[i] - tau
			if w < 0 {
				w = 0
			} else if w > upper[i] {
				w = upper[i]
			}
			s += w
		}
		return s
	}

	for iter := 0; iter < 100; iter++ {
		mid := (lo + hi) / 2
		if clippedSum(mid) > 1 {
			lo = mid
		} else {
			hi = mid
		}
	}

	tau := (lo + hi) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		w := v[i] - tau
		if w < 0 {
			w = 0
		} else if w > upper[i] {
			w = upper[i]
		}
		out[i] = w
	}
	return out
}
