// Package risk classifies portfolio volatility and concentration.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/quantfolio/advisor/internal/domain"
)

// Assessment is the risk report for one weight vector
type Assessment struct {
	Volatility      float64               `json:"volatility"`
	Band            domain.VolatilityBand `json:"band"`
	Herfindahl      float64               `json:"herfindahl"`
	Diversification float64               `json:"diversification"`
	FitsProfile     bool                  `json:"fits_profile"`
	ExpectedBand    domain.VolatilityBand `json:"expected_band"`
	LargestWeight   float64               `json:"largest_weight"`
}

// Assessor computes portfolio risk statistics against configured volatility bands
type Assessor struct {
	bandLow  float64
	bandHigh float64
	log      zerolog.Logger
}

// New creates a risk assessor. bandLow and bandHigh are the annualized
// volatility thresholds separating LOW/MODERATE/HIGH.
func New(bandLow, bandHigh float64, log zerolog.Logger) *Assessor {
	return &Assessor{
		bandLow:  bandLow,
		bandHigh: bandHigh,
		log:      log.With().Str("component", "risk_assessor").Logger(),
	}
}

// Band classifies an annualized volatility value
func (a *Assessor) Band(volatility float64) domain.VolatilityBand {
	switch {
	case volatility < a.bandLow:
		return domain.BandLow
	case volatility < a.bandHigh:
		return domain.BandModerate
	default:
		return domain.BandHigh
	}
}

// Assess validates the weight vector and computes portfolio volatility
// sqrt(w'Sigma*w), its band, the Herfindahl concentration index, and whether
// the risk fits the caller's profile.
func (a *Assessor) Assess(weights []float64, model domain.ReturnModel, profile domain.RiskProfile) (Assessment, error) {
	if len(weights) != len(model.Symbols) {
		return Assessment{}, &domain.InvalidPortfolioError{
			Reason: fmt.Sprintf("%d weights for %d assets", len(weights), len(model.Symbols)),
		}
	}

	sum := 0.0
	largest := 0.0
	herfindahl := 0.0
	for _, w := range weights {
		if w < -domain.WeightSumTolerance {
			return Assessment{}, &domain.InvalidPortfolioError{Reason: "negative weight"}
		}
		sum += w
		herfindahl += w * w
		if w > largest {
			largest = w
		}
	}
	if math.Abs(sum-1) > domain.WeightSumTolerance {
		return Assessment{}, &domain.InvalidPortfolioError{
			Reason: fmt.Sprintf("weights sum to %.6f, expected 1", sum),
		}
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

	if err := domain.CheckFinite(volatility, herfindahl); err != nil {
		return Assessment{}, err
	}

	band := a.Band(volatility)
	expected := profile.ExpectedBand()

	assessment := Assessment{
		Volatility:      volatility,
		Band:            band,
		Herfindahl:      herfindahl,
		Diversification: 1 - herfindahl,
		FitsProfile:     band.AtMost(expected),
		ExpectedBand:    expected,
		LargestWeight:   largest,
	}

	a.log.Debug().
		Float64("volatility", volatility).
		Str("band", string(band)).
		Bool("fits_profile", assessment.FitsProfile).
		Msg("Assessed portfolio risk")

	return assessment, nil
}
