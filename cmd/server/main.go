// Package main is the entry point for the portfolio advisor service.
// The service keeps a local store of daily prices fed by a live quote
// stream, and serves portfolio optimization, market prediction, and risk
// assessment over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantfolio/advisor/internal/clients/quotefeed"
	"github.com/quantfolio/advisor/internal/config"
	"github.com/quantfolio/advisor/internal/events"
	"github.com/quantfolio/advisor/internal/modules/advisor"
	advisorhandlers "github.com/quantfolio/advisor/internal/modules/advisor/handlers"
	"github.com/quantfolio/advisor/internal/modules/estimator"
	"github.com/quantfolio/advisor/internal/modules/history"
	"github.com/quantfolio/advisor/internal/modules/optimizer"
	"github.com/quantfolio/advisor/internal/modules/predictor"
	"github.com/quantfolio/advisor/internal/modules/risk"
	"github.com/quantfolio/advisor/internal/scheduler"
	"github.com/quantfolio/advisor/internal/server"
	"github.com/quantfolio/advisor/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting advisor service")

	bus := events.NewBus(log)

	// Price store and calculation cache share one database file
	store, db, err := history.Open(cfg.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open price store")
	}
	defer db.Close()

	// Live quote feed keeps the latest price per symbol in memory
	feed := quotefeed.New(cfg.FeedURL, bus, log)
	if err := feed.Start(); err != nil {
		log.Warn().Err(err).Msg("Quote feed unavailable at startup, continuing with stored prices")
	}

	// Nightly job persists feed quotes as daily closes
	sched := scheduler.New(log)
	syncJob := history.NewSyncJob(store, feed, bus, log)
	if err := sched.AddJob(cfg.SyncSchedule, syncJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SyncSchedule).Msg("Failed to register price sync job")
	}
	sched.Start()

	// Analytics pipeline
	calcCache := estimator.NewCache(db, log)
	adapter := history.NewAdapter(store, log)
	est := estimator.New(cfg.Analytics.AnnualizationFactor, calcCache, log)
	opt := optimizer.New(
		optimizer.NewProjectedGradient(cfg.Analytics.MaxIterations),
		cfg.Analytics.RiskFreeRate,
		cfg.Analytics.HorizonDecay,
		cfg.Analytics.Ridge,
		log,
	)
	assessor := risk.New(cfg.Analytics.VolatilityLow, cfg.Analytics.VolatilityHigh, log)
	pred := predictor.New(cfg.Analytics.ConfidenceZ, cfg.Analytics.MinHistory, log)

	service := advisor.NewService(adapter, est, opt, assessor, pred, bus, cfg.Analytics, log)

	srv := server.New(server.Config{
		Log:             log,
		Cfg:             cfg,
		AdvisorHandlers: advisorhandlers.NewHandler(service, log),
		Feed:            feed,
		Store:           store,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	sched.Stop()
	if err := feed.Stop(); err != nil {
		log.Error().Err(err).Msg("Quote feed shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
