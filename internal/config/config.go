// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the price database (always absolute)
	LogLevel     string
	Port         int
	DevMode      bool
	FeedURL      string // Quote feed websocket URL; empty disables the feed client
	SyncSchedule string // Cron expression for the price-store refresh job
	Analytics    Analytics
}

// Analytics holds the analytics constants shared by the estimator, optimizer,
// risk assessor and predictor. They are read-only after startup and passed
// explicitly into each component constructor so computations stay pure and
// independently testable.
type Analytics struct {
	AnnualizationFactor float64 // Periods per year implied by the data (252 for daily series)
	RiskFreeRate        float64 // Annual risk-free rate used in Sharpe ratios
	LookbackDays        int     // Historical window requested for optimization and risk
	VolatilityLow       float64 // Annualized volatility below this is LOW
	VolatilityHigh      float64 // Annualized volatility below this is MODERATE, above HIGH
	ConfidenceZ         float64 // Confidence multiplier for prediction bounds (1.96 ~ 95%)
	MinHistory          int     // Minimum observations required to fit drift/volatility
	ActionThreshold     float64 // Allocation deviation that triggers BUY/SELL
	HorizonDecay        float64 // Per-year dampening of risk aversion beyond year one
	MaxIterations       int     // Solver iteration cap
	Ridge               float64 // Identity multiple added to singular covariance matrices
}

// DefaultAnalytics returns the built-in analytics constants. The thresholds are
// policy defaults, not invariants; each can be overridden via environment.
func DefaultAnalytics() Analytics {
	return Analytics{
		AnnualizationFactor: 252,
		RiskFreeRate:        0.0,
		LookbackDays:        365,
		VolatilityLow:       0.10,
		VolatilityHigh:      0.20,
		ConfidenceZ:         1.96,
		MinHistory:          30,
		ActionThreshold:     0.03,
		HorizonDecay:        0.05,
		MaxIterations:       500,
		Ridge:               1e-8,
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// ADVISOR_DATA_DIR env var, else ./data, always resolved to absolute.
	dataDir := getEnv("ADVISOR_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	analytics := DefaultAnalytics()
	analytics.AnnualizationFactor = getEnvAsFloat("ANNUALIZATION_FACTOR", analytics.AnnualizationFactor)
	analytics.RiskFreeRate = getEnvAsFloat("RISK_FREE_RATE", analytics.RiskFreeRate)
	analytics.LookbackDays = getEnvAsInt("LOOKBACK_DAYS", analytics.LookbackDays)
	analytics.VolatilityLow = getEnvAsFloat("VOLATILITY_BAND_LOW", analytics.VolatilityLow)
	analytics.VolatilityHigh = getEnvAsFloat("VOLATILITY_BAND_HIGH", analytics.VolatilityHigh)
	analytics.ConfidenceZ = getEnvAsFloat("PREDICTION_CONFIDENCE_Z", analytics.ConfidenceZ)
	analytics.MinHistory = getEnvAsInt("PREDICTION_MIN_HISTORY", analytics.MinHistory)
	analytics.ActionThreshold = getEnvAsFloat("ACTION_THRESHOLD", analytics.ActionThreshold)
	analytics.HorizonDecay = getEnvAsFloat("HORIZON_DECAY", analytics.HorizonDecay)
	analytics.MaxIterations = getEnvAsInt("SOLVER_MAX_ITERATIONS", analytics.MaxIterations)

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("PORT", 8000),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		FeedURL:      getEnv("QUOTE_FEED_URL", ""),
		SyncSchedule: getEnv("PRICE_SYNC_SCHEDULE", "0 30 6 * * *"), // 06:30 daily
		Analytics:    analytics,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	a := c.Analytics
	if a.AnnualizationFactor <= 0 {
		return fmt.Errorf("annualization factor must be positive, got %v", a.AnnualizationFactor)
	}
	if a.VolatilityLow <= 0 || a.VolatilityHigh <= a.VolatilityLow {
		return fmt.Errorf("volatility bands must satisfy 0 < low < high, got low=%v high=%v",
			a.VolatilityLow, a.VolatilityHigh)
	}
	if a.MinHistory < 2 {
		return fmt.Errorf("minimum history must be at least 2, got %d", a.MinHistory)
	}
	if a.MaxIterations <= 0 {
		return fmt.Errorf("solver iteration cap must be positive, got %d", a.MaxIterations)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
