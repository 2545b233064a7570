// Package estimator turns historical price series into the annualized return
// model consumed by the optimizer and risk assessor.
package estimator

import (
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/advisor/internal/domain"
)

// Estimator computes expected returns and the return covariance matrix
type Estimator struct {
	annualization float64
	cache         *Cache
	log           zerolog.Logger
}

// New creates an estimator. annualizationFactor scales per-period moments to
// annual terms (252 for daily observations). cache is optional.
func New(annualizationFactor float64, cache *Cache, log zerolog.Logger) *Estimator {
	return &Estimator{
		annualization: annualizationFactor,
		cache:         cache,
		log:           log.With().Str("component", "estimator").Logger(),
	}
}

// Estimate builds the return model for the given symbols. Series of unequal
// length are aligned by truncating each to the shortest common length,
// counted back from the most recent observation. Any asset with fewer than
// two aligned return periods fails the whole estimate.
//
// Results are cached for 24 hours when a cache is configured; lookbackDays
// only participates in the cache key.
func (e *Estimator) Estimate(series map[string]domain.AssetSeries, symbols []string, lookbackDays int) (domain.ReturnModel, error) {
	if e.cache != nil {
		key := modelKey(symbols, lookbackDays)
		if model, ok := e.cache.GetModel(key); ok {
			e.log.Debug().Int("symbols", len(symbols)).Msg("Using cached return model")
			return model, nil
		}
	}

	returns := make([][]float64, len(symbols))
	minPeriods := -1
	for i, symbol := range symbols {
		s, ok := series[symbol]
		if !ok {
			return domain.ReturnModel{}, &domain.SymbolMismatchError{Symbol: symbol}
		}
		r := s.Returns()
		returns[i] = r
		if minPeriods < 0 || len(r) < minPeriods {
			minPeriods = len(r)
		}
	}

	if minPeriods < 2 {
		shortest := symbols[0]
		for i, r := range returns {
			if len(r) == minPeriods {
				shortest = symbols[i]
				break
			}
		}
		return domain.ReturnModel{}, &domain.InsufficientDataError{Symbol: shortest, Periods: minPeriods}
	}

	// Align on the most recent minPeriods observations
	for i := range returns {
		returns[i] = returns[i][len(returns[i])-minPeriods:]
	}

	expected := make([]float64, len(symbols))
	for i := range symbols {
		expected[i] = stat.Mean(returns[i], nil) * e.annualization
	}

	cov := make([][]float64, len(symbols))
	for i := range symbols {
		cov[i] = make([]float64, len(symbols))
		for j := 0; j <= i; j++ {
			c := stat.Covariance(returns[i], returns[j], nil) * e.annualization
			cov[i][j] = c
			cov[j][i] = c
		}
	}

	model := domain.ReturnModel{
		Symbols:         append([]string(nil), symbols...),
		ExpectedReturns: expected,
		Covariance:      cov,
		Periods:         minPeriods,
	}

	e.log.Info().
		Int("symbols", len(symbols)).
		Int("periods", minPeriods).
		Msg("Built return model")

	if e.cache != nil {
		key := modelKey(symbols, lookbackDays)
		if err := e.cache.SetModel(key, model); err != nil {
			e.log.Warn().Err(err).Msg("Failed to cache return model")
		}
	}
	return model, nil
}
