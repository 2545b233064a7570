package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADVISOR_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 252.0, cfg.Analytics.AnnualizationFactor)
	assert.Equal(t, 0.03, cfg.Analytics.ActionThreshold)
	assert.Equal(t, 30, cfg.Analytics.MinHistory)
	assert.Equal(t, 365, cfg.Analytics.LookbackDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ADVISOR_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ANNUALIZATION_FACTOR", "12")
	t.Setenv("ACTION_THRESHOLD", "0.05")
	t.Setenv("SOLVER_MAX_ITERATIONS", "1000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 12.0, cfg.Analytics.AnnualizationFactor)
	assert.Equal(t, 0.05, cfg.Analytics.ActionThreshold)
	assert.Equal(t, 1000, cfg.Analytics.MaxIterations)
}

func TestValidateRejectsBadBands(t *testing.T) {
	cfg := &Config{Port: 8000, Analytics: DefaultAnalytics()}
	cfg.Analytics.VolatilityHigh = cfg.Analytics.VolatilityLow // high must exceed low

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{Port: 0, Analytics: DefaultAnalytics()}
	assert.Error(t, cfg.Validate())
}

func TestLoadIgnoresMalformedEnvValues(t *testing.T) {
	t.Setenv("ADVISOR_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ANNUALIZATION_FACTOR", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 252.0, cfg.Analytics.AnnualizationFactor)
}
