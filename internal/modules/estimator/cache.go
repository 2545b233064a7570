package estimator

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantfolio/advisor/internal/domain"
)

// ModelTTL is how long a cached return model stays valid. Daily closes only
// change once per trading day, so 24 hours keeps the cache honest.
const ModelTTL = 24 * time.Hour

// Cache stores serialized return models in the calc_cache table.
// Values are msgpack blobs keyed by a hash of the request parameters.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates a calculation cache on an open database connection.
// The calc_cache table is created by the history store's schema init.
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
}

// modelKey builds a deterministic cache key. Symbols are sorted so the key is
// order-independent.
func modelKey(symbols []string, lookbackDays int) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	h := sha256.Sum256([]byte(fmt.Sprintf("model|%s|%d", strings.Join(sorted, ","), lookbackDays)))
	return hex.EncodeToString(h[:16])
}

// GetModel fetches a cached return model. Expired or undecodable entries are
// treated as misses.
func (c *Cache) GetModel(key string) (domain.ReturnModel, bool) {
	var blob []byte
	var expiresAt int64
	err := c.db.QueryRow(
		"SELECT value, expires_at FROM calc_cache WHERE key = ?", key,
	).Scan(&blob, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.log.Warn().Err(err).Msg("Cache lookup failed")
		}
		return domain.ReturnModel{}, false
	}

	if time.Now().Unix() > expiresAt {
		return domain.ReturnModel{}, false
	}

	var model domain.ReturnModel
	if err := msgpack.Unmarshal(blob, &model); err != nil {
		c.log.Warn().Err(err).Msg("Failed to decode cached model, recalculating")
		return domain.ReturnModel{}, false
	}
	return model, true
}

// SetModel stores a return model under key with the standard TTL
func (c *Cache) SetModel(key string, model domain.ReturnModel) error {
	blob, err := msgpack.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode return model: %w", err)
	}

	expiresAt := time.Now().Add(ModelTTL).Unix()
	_, err = c.db.Exec(`
		INSERT INTO calc_cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, blob, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cached model: %w", err)
	}
	return nil
}

// Prune deletes expired cache entries
func (c *Cache) Prune() error {
	res, err := c.db.Exec("DELETE FROM calc_cache WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.log.Debug().Int64("removed", n).Msg("Pruned expired cache entries")
	}
	return nil
}
