package estimator

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/quantfolio/advisor/internal/domain"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE calc_cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return NewCache(db, zerolog.Nop())
}

func sampleModel() domain.ReturnModel {
	return domain.ReturnModel{
		Symbols:         []string{"AAA", "BBB"},
		ExpectedReturns: []float64{0.10, 0.05},
		Covariance:      [][]float64{{0.04, 0.01}, {0.01, 0.02}},
		Periods:         200,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)

	key := modelKey([]string{"AAA", "BBB"}, 365)
	_, ok := cache.GetModel(key)
	assert.False(t, ok)

	require.NoError(t, cache.SetModel(key, sampleModel()))

	got, ok := cache.GetModel(key)
	require.True(t, ok)
	assert.Equal(t, sampleModel(), got)
}

func TestModelKeyOrderIndependent(t *testing.T) {
	a := modelKey([]string{"AAA", "BBB"}, 365)
	b := modelKey([]string{"BBB", "AAA"}, 365)
	assert.Equal(t, a, b)

	c := modelKey([]string{"AAA", "BBB"}, 180)
	assert.NotEqual(t, a, c)
}

func TestCacheExpiredEntryMisses(t *testing.T) {
	cache := newTestCache(t)

	key := modelKey([]string{"AAA"}, 365)
	require.NoError(t, cache.SetModel(key, sampleModel()))

	// Force the entry into the past
	_, err := cache.db.Exec("UPDATE calc_cache SET expires_at = ?", time.Now().Add(-time.Hour).Unix())
	require.NoError(t, err)

	_, ok := cache.GetModel(key)
	assert.False(t, ok)

	require.NoError(t, cache.Prune())

	var count int
	require.NoError(t, cache.db.QueryRow("SELECT COUNT(*) FROM calc_cache").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestEstimatorUsesCache(t *testing.T) {
	cache := newTestCache(t)
	e := New(252, cache, zerolog.Nop())

	series := map[string]domain.AssetSeries{
		"AAA": seriesFromCloses("AAA", []float64{100, 110, 99}),
		"BBB": seriesFromCloses("BBB", []float64{50, 55, 49.5}),
	}

	first, err := e.Estimate(series, []string{"AAA", "BBB"}, 365)
	require.NoError(t, err)

	// Second call is served from cache even when the underlying series change
	series["AAA"] = seriesFromCloses("AAA", []float64{1, 2, 3, 4})
	second, err := e.Estimate(series, []string{"AAA", "BBB"}, 365)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
