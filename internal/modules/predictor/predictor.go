// Package predictor projects prices forward from historical drift and
// volatility, with EMA-crossover trend labels.
package predictor

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/advisor/internal/domain"
)

// Trend labels from the EMA crossover
const (
	TrendBullish = "BULLISH"
	TrendBearish = "BEARISH"
	TrendNeutral = "NEUTRAL"
)

const (
	emaFastPeriod = 12
	emaSlowPeriod = 26

	// trendTolerance is the relative EMA gap below which the trend is NEUTRAL
	trendTolerance = 0.001
)

// Predictor projects an asset's price path over a forward window
type Predictor struct {
	confidenceZ float64
	minHistory  int
	log         zerolog.Logger
}

// New creates a predictor. confidenceZ is the z-score for the confidence
// bounds (1.96 for 95%); minHistory is the minimum number of observations
// required to fit drift and volatility.
func New(confidenceZ float64, minHistory int, log zerolog.Logger) *Predictor {
	return &Predictor{
		confidenceZ: confidenceZ,
		minHistory:  minHistory,
		log:         log.With().Str("component", "predictor").Logger(),
	}
}

// Predict projects the series forward by days. The point estimate compounds
// the mean daily return; the confidence bounds widen with the square root of
// the forward offset. Lower bounds never go below zero.
func (p *Predictor) Predict(series domain.AssetSeries, days int) (domain.PredictionSeries, error) {
	if len(series.Points) < p.minHistory {
		return domain.PredictionSeries{}, &domain.InsufficientHistoryError{
			Symbol:       series.Symbol,
			Observations: len(series.Points),
			Required:     p.minHistory,
		}
	}
	if days < 1 {
		days = 1
	}

	returns := series.Returns()
	drift := stat.Mean(returns, nil)
	vol := math.Sqrt(stat.Variance(returns, nil))
	lastClose := series.LastClose()
	if err := domain.CheckFinite(drift, vol, lastClose); err != nil {
		return domain.PredictionSeries{}, err
	}

	points := make([]domain.PredictionPoint, days)
	for k := 1; k <= days; k++ {
		projected := lastClose * math.Pow(1+drift, float64(k))
		spread := p.confidenceZ * vol * math.Sqrt(float64(k)) * projected

		lower := projected - spread
		if lower < 0 {
			lower = 0
		}

		if err := domain.CheckFinite(projected, lower, projected+spread); err != nil {
			return domain.PredictionSeries{}, err
		}
		points[k-1] = domain.PredictionPoint{
			Day:       k,
			Projected: projected,
			Lower:     lower,
			Upper:     projected + spread,
		}
	}

	trend := p.trendLabel(series)

	p.log.Debug().
		Str("symbol", series.Symbol).
		Int("days", days).
		Float64("drift", drift).
		Str("trend", trend).
		Msg("Projected price path")

	return domain.PredictionSeries{
		Symbol:    series.Symbol,
		LastClose: lastClose,
		Trend:     trend,
		Points:    points,
	}, nil
}

// trendLabel compares fast and slow EMAs of the close series. Fast above slow
// reads bullish, below reads bearish, and gaps within trendTolerance of the
// slow EMA read neutral.
func (p *Predictor) trendLabel(series domain.AssetSeries) string {
	closes := make([]float64, len(series.Points))
	for i, pt := range series.Points {
		closes[i] = pt.Close
	}
	if len(closes) < emaSlowPeriod {
		return TrendNeutral
	}

	fast := talib.Ema(closes, emaFastPeriod)
	slow := talib.Ema(closes, emaSlowPeriod)

	f := fast[len(fast)-1]
	s := slow[len(slow)-1]
	if s == 0 {
		return TrendNeutral
	}

	switch gap := (f - s) / s; {
	case gap > trendTolerance:
		return TrendBullish
	case gap < -trendTolerance:
		return TrendBearish
	default:
		return TrendNeutral
	}
}
