package history

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/advisor/internal/events"
)

// QuoteSource provides the latest observed price per symbol.
// The live feed client satisfies this with its in-memory quote cache.
type QuoteSource interface {
	Snapshot() map[string]float64
}

// SyncJob persists the feed's latest quotes as daily closes.
// Runs nightly so each trading day gains one row per symbol.
type SyncJob struct {
	store  *Store
	quotes QuoteSource
	bus    *events.Bus
	log    zerolog.Logger
}

// NewSyncJob creates the nightly price sync job
func NewSyncJob(store *Store, quotes QuoteSource, bus *events.Bus, log zerolog.Logger) *SyncJob {
	return &SyncJob{
		store:  store,
		quotes: quotes,
		bus:    bus,
		log:    log.With().Str("component", "price_sync").Logger(),
	}
}

// Name implements scheduler.Job
func (j *SyncJob) Name() string { return "price_sync" }

// Run implements scheduler.Job
func (j *SyncJob) Run() error {
	snapshot := j.quotes.Snapshot()
	if len(snapshot) == 0 {
		j.log.Debug().Msg("No quotes to sync")
		return nil
	}

	now := time.Now()
	rows := 0
	for symbol, price := range snapshot {
		if price <= 0 {
			continue
		}
		if err := j.store.UpsertDailyClose(symbol, now, price); err != nil {
			j.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to upsert daily close")
			return err
		}
		rows++
	}

	j.log.Info().Int("symbols", len(snapshot)).Int("rows", rows).Msg("Price sync completed")

	if j.bus != nil {
		j.bus.Publish(events.PricesSynced, &events.PricesSyncedData{
			Symbols: len(snapshot),
			Rows:    rows,
		})
	}
	return nil
}
