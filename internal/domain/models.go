// Package domain holds the shared types of the analytics core.
// Everything here is request-scoped and free of infrastructure dependencies.
package domain

import (
	"fmt"
	"math"
	"time"
)

// RiskProfile is the qualitative risk tolerance requested by the caller.
type RiskProfile string

const (
	RiskConservative RiskProfile = "CONSERVATIVE"
	RiskModerate     RiskProfile = "MODERATE"
	RiskAggressive   RiskProfile = "AGGRESSIVE"
)

// Coefficient maps a risk profile to the optimizer's risk-aversion coefficient.
// Unknown labels fall back to MODERATE.
func (p RiskProfile) Coefficient() float64 {
	switch p {
	case RiskConservative:
		return 0.3
	case RiskAggressive:
		return 0.8
	default:
		return 0.5
	}
}

// VolatilityBand classifies annualized portfolio volatility.
type VolatilityBand string

const (
	BandLow      VolatilityBand = "LOW"
	BandModerate VolatilityBand = "MODERATE"
	BandHigh     VolatilityBand = "HIGH"
)

// rank orders bands for fit comparisons.
func (b VolatilityBand) rank() int {
	switch b {
	case BandLow:
		return 0
	case BandModerate:
		return 1
	default:
		return 2
	}
}

// AtMost reports whether b is the same band as other or a calmer one.
func (b VolatilityBand) AtMost(other VolatilityBand) bool {
	return b.rank() <= other.rank()
}

// ExpectedBand returns the volatility band a profile is comfortable with.
// CONSERVATIVE expects LOW, MODERATE tolerates up to MODERATE, AGGRESSIVE accepts any.
func (p RiskProfile) ExpectedBand() VolatilityBand {
	switch p {
	case RiskConservative:
		return BandLow
	case RiskAggressive:
		return BandHigh
	default:
		return BandModerate
	}
}

// PricePoint is a single close observation in a historical series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// AssetSeries is a time-ordered historical price series for one symbol.
// Dates are strictly increasing; that invariant is the adapter's responsibility.
type AssetSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s AssetSeries) LastClose() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// Returns converts the price series into simple periodic returns.
// The result is one element shorter than the price series. Periods whose
// previous close is non-positive contribute a zero return, mirroring the
// divide-by-zero guard used throughout the price pipeline.
func (s AssetSeries) Returns() []float64 {
	if len(s.Points) < 2 {
		return []float64{}
	}
	rets := make([]float64, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Close
		cur := s.Points[i].Close
		if prev > 0 && !math.IsNaN(prev) && !math.IsNaN(cur) {
			rets[i-1] = (cur - prev) / prev
		}
	}
	return rets
}

// Holding is one line of the caller's current portfolio.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"currentPrice"`
}

// WeightSumTolerance is the floating tolerance for "weights sum to 1" checks.
const WeightSumTolerance = 1e-6

// Weights converts holdings into normalized allocation weights (quantity x price,
// scaled to sum to 1). Returns the total portfolio value alongside.
func Weights(holdings []Holding) ([]float64, float64, error) {
	weights := make([]float64, len(holdings))
	total := 0.0
	for i, h := range holdings {
		v := h.Quantity * h.CurrentPrice
		weights[i] = v
		total += v
	}
	if total <= 0 {
		return nil, 0, &InvalidPortfolioError{Reason: "portfolio has no value"}
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights, total, nil
}

// ReturnModel is the estimator's output: annualized expected returns and the
// annualized return covariance matrix, both aligned to Symbols order.
type ReturnModel struct {
	Symbols         []string    `json:"symbols"`
	ExpectedReturns []float64   `json:"expected_returns"`
	Covariance      [][]float64 `json:"covariance"`
	Periods         int         `json:"periods"`
}

// ExpectedReturn looks up the expected return for a symbol.
func (m ReturnModel) ExpectedReturn(symbol string) (float64, bool) {
	for i, s := range m.Symbols {
		if s == symbol {
			return m.ExpectedReturns[i], true
		}
	}
	return 0, false
}

// PredictionPoint is one projected price with its confidence bounds.
type PredictionPoint struct {
	Day       int     `json:"day"`
	Projected float64 `json:"projected"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// PredictionSeries is the trend predictor's output for one asset.
type PredictionSeries struct {
	Symbol    string            `json:"symbol"`
	LastClose float64           `json:"last_close"`
	Trend     string            `json:"trend"`
	Points    []PredictionPoint `json:"points"`
}

// CheckFinite rejects NaN and Infinity before values cross the API boundary.
func CheckFinite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value in result: %v", v)
		}
	}
	return nil
}
