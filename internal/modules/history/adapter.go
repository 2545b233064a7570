package history

import (
	"github.com/rs/zerolog"

	"github.com/quantfolio/advisor/internal/domain"
)

// Adapter turns stored daily prices into the aligned series the analytics
// core consumes.
type Adapter struct {
	store *Store
	log   zerolog.Logger
}

// NewAdapter creates a series adapter on top of a price store
func NewAdapter(store *Store, log zerolog.Logger) *Adapter {
	return &Adapter{
		store: store,
		log:   log.With().Str("component", "history_adapter").Logger(),
	}
}

// Fetch loads the historical close series for each requested symbol over the
// lookback window. A symbol with no stored rows at all fails the whole fetch
// with a SymbolMismatchError; alignment of unequal lengths is left to the
// estimator.
func (a *Adapter) Fetch(symbols []string, lookbackDays int) (map[string]domain.AssetSeries, error) {
	out := make(map[string]domain.AssetSeries, len(symbols))

	for _, symbol := range symbols {
		prices, err := a.store.GetRecentPrices(symbol, lookbackDays)
		if err != nil {
			return nil, err
		}
		if len(prices) == 0 {
			a.log.Warn().Str("symbol", symbol).Msg("No historical data for symbol")
			return nil, &domain.SymbolMismatchError{Symbol: symbol}
		}

		points := make([]domain.PricePoint, len(prices))
		for i, p := range prices {
			points[i] = domain.PricePoint{Date: p.Date, Close: p.Close}
		}
		out[symbol] = domain.AssetSeries{Symbol: symbol, Points: points}
	}

	return out, nil
}
